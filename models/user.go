package models

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Name        string `json:"full_name"`
	Avatar      string `json:"picture"`
	PhoneNumber string `json:"phone_number"`
}

// Profile is the public view of a user.
type Profile struct {
	Username string `json:"username"`
	Picture  string `json:"picture"`
}

func (u *User) Profile() Profile {
	if u == nil {
		return Profile{}
	}
	return Profile{Username: u.Username, Picture: u.Avatar}
}
