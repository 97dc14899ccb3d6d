package models

import "time"

type Attendee struct {
	ID      string `json:"id"`
	UserID  string `json:"user"`
	EventID string `json:"event"`
	// HasAttended is nil until attendance is recorded.
	HasAttended *bool     `json:"has_attended"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

func (a *Attendee) MarkAttended() {
	attended := true
	a.HasAttended = &attended
}

func (a *Attendee) Attended() bool {
	return a.HasAttended != nil && *a.HasAttended
}

func (a *Attendee) Missed() bool {
	return a.HasAttended != nil && !*a.HasAttended
}
