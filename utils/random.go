package utils

import (
	"github.com/pocketbase/pocketbase/tools/security"
)

// SlugAlphabet is the charset used for slug suffixes.
const SlugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomString returns a crypto-random string of size characters from SlugAlphabet.
func RandomString(size int) string {
	if size <= 0 {
		return ""
	}
	return security.RandomStringWithAlphabet(size, SlugAlphabet)
}
