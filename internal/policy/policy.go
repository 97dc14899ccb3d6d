// Package policy holds the ownership rules gating mutations on events and sessions.
package policy

import (
	"time"

	"meetup-api/models"
)

type Capability int

const (
	EditEvent Capability = iota
	DeleteEvent
	ReviewSessions
	MarkAttendance
	ManageOrganizers
	EditProposal
)

func (c Capability) String() string {
	switch c {
	case EditEvent:
		return "edit_event"
	case DeleteEvent:
		return "delete_event"
	case ReviewSessions:
		return "review_sessions"
	case MarkAttendance:
		return "mark_attendance"
	case ManageOrganizers:
		return "manage_organizers"
	case EditProposal:
		return "edit_proposal"
	}
	return "unknown"
}

// Actor is the authenticated caller; an empty ID is an anonymous caller.
type Actor struct {
	ID string
}

func (a Actor) Authenticated() bool {
	return a.ID != ""
}

// rule decides a capability for an actor against an event.
type rule func(actor Actor, event *models.Event, now time.Time) bool

func hostOfOpenEvent(actor Actor, event *models.Event, now time.Time) bool {
	return event.IsHost(actor.ID) && event.IsOpen(now)
}

func staffOfOpenEvent(actor Actor, event *models.Event, now time.Time) bool {
	return IsStaff(actor, event) && event.IsOpen(now)
}

var eventRules = map[Capability]rule{
	EditEvent:        hostOfOpenEvent,
	DeleteEvent:      hostOfOpenEvent,
	ReviewSessions:   hostOfOpenEvent,
	ManageOrganizers: hostOfOpenEvent,
	MarkAttendance:   staffOfOpenEvent,
}

// Can reports whether actor holds capability c on event at now.
func Can(actor Actor, c Capability, event *models.Event, now time.Time) bool {
	if !actor.Authenticated() || event == nil {
		return false
	}
	r, ok := eventRules[c]
	if !ok {
		return false
	}
	return r(actor, event, now)
}

// CanEditProposal reports whether actor may change or withdraw session.
func CanEditProposal(actor Actor, session *models.Session) bool {
	return actor.Authenticated() && session != nil && session.ProposerID == actor.ID
}

// IsStaff reports whether actor hosts or co-organizes event.
func IsStaff(actor Actor, event *models.Event) bool {
	if !actor.Authenticated() || event == nil {
		return false
	}
	return event.IsHost(actor.ID) || event.IsOrganizer(actor.ID)
}
