package utils

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// WordsPerMinute is the reading speed used by ReadTime.
const WordsPerMinute = 200

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// StripTags returns the text content of an HTML fragment.
func StripTags(value string) string {
	if !strings.ContainsAny(value, "<>&") {
		return value
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(value))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input, keep what was collected
			return sb.String()
		case html.TextToken:
			sb.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			sb.WriteByte(' ')
		}
	}
}

// CountWords counts word tokens in text after stripping HTML.
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(StripTags(text), -1))
}

// ReadTime estimates the reading time of text in whole minutes, rounded up.
func ReadTime(text string) int {
	count := CountWords(text)
	return (count + WordsPerMinute - 1) / WordsPerMinute
}
