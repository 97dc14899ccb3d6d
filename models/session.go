package models

import (
	"fmt"
	"time"
)

type SessionType string

const (
	SessionTalk         SessionType = "Talk"
	SessionLightingTalk SessionType = "Lighting Talk"
	SessionWorkShop     SessionType = "WorkShop"
)

var SessionTypes = []SessionType{SessionTalk, SessionLightingTalk, SessionWorkShop}

func ParseSessionType(s string) (SessionType, error) {
	for _, t := range SessionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

type SessionStatus string

const (
	StatusDraft    SessionStatus = "Draft"
	StatusAccepted SessionStatus = "Accepted"
	StatusDenied   SessionStatus = "Denied"
)

var SessionStatuses = []SessionStatus{StatusDraft, StatusAccepted, StatusDenied}

// sessionTransitions lists the statuses reachable from each status.
// Review is free-form: every status may follow every other.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	StatusDraft:    {StatusDraft, StatusAccepted, StatusDenied},
	StatusAccepted: {StatusDraft, StatusAccepted, StatusDenied},
	StatusDenied:   {StatusDraft, StatusAccepted, StatusDenied},
}

func ParseSessionStatus(s string) (SessionStatus, error) {
	for _, st := range SessionStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// CanTransitionTo reports whether next may follow s.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Session struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        SessionType   `json:"session_type"`
	Status      SessionStatus `json:"status"`
	Slug        string        `json:"slug"`
	EventID     string        `json:"event"`
	ProposerID  string        `json:"proposed_by"`
	Created     time.Time     `json:"created"`
	Updated     time.Time     `json:"updated"`
}

// TransitionTo moves the session to next, validating the transition.
func (s *Session) TransitionTo(next SessionStatus) error {
	current := s.Status
	if current == "" {
		current = StatusDraft
	}
	if !current.CanTransitionTo(next) {
		return fmt.Errorf("cannot move session from %s to %s", current, next)
	}
	s.Status = next
	return nil
}

type SessionQuery struct {
	EventID  string
	Status   SessionStatus
	Search   string
	Ordering string
	Limit    int
	Offset   int
}

var sessionOrderingFields = map[string]bool{
	"title":        true,
	"session_type": true,
}

func ValidSessionOrdering(ordering string) bool {
	if len(ordering) > 0 && ordering[0] == '-' {
		ordering = ordering[1:]
	}
	return sessionOrderingFields[ordering]
}
