package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ReadTime     int       `json:"read_time"`
	Slug         string    `json:"slug"`
	EventDate    time.Time `json:"event_date"`
	TotalGuest   int       `json:"total_guest"`
	HostID       string    `json:"hosted_by"`
	OrganizerIDs []string  `json:"organizers"`
	Tags         []string  `json:"tags"`
	Cover        string    `json:"cover"`
	Geom         *GeoPoint `json:"geom,omitempty"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// IsOpen reports whether the event is still upcoming at now.
func (e *Event) IsOpen(now time.Time) bool {
	return e.EventDate.After(now)
}

func (e *Event) IsHost(userID string) bool {
	return userID != "" && e.HostID == userID
}

func (e *Event) IsOrganizer(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range e.OrganizerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddOrganizer adds userID to the organizers, ignoring duplicates.
func (e *Event) AddOrganizer(userID string) {
	if !e.IsOrganizer(userID) {
		e.OrganizerIDs = append(e.OrganizerIDs, userID)
	}
}

func (e *Event) RemoveOrganizer(userID string) {
	kept := e.OrganizerIDs[:0]
	for _, id := range e.OrganizerIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	e.OrganizerIDs = kept
}

// GeoPoint is a GeoJSON point, coordinates ordered longitude, latitude.
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (g *GeoPoint) Validate() error {
	if g.Type != "Point" {
		return fmt.Errorf("geom type must be Point, got %q", g.Type)
	}
	if len(g.Coordinates) != 2 {
		return fmt.Errorf("geom must have 2 coordinates, got %d", len(g.Coordinates))
	}
	lng, lat := g.Coordinates[0], g.Coordinates[1]
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("geom coordinates out of range")
	}
	return nil
}

type Tag struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	TotalEvents int    `json:"total_events"`
}

// EventQuery selects events for the list endpoints.
type EventQuery struct {
	Upcoming   bool
	Past       bool
	Now        time.Time
	TagName    string
	ReadTime   *int
	DateAfter  *time.Time
	DateBefore *time.Time
	Search     string
	Ordering   string
	Limit      int
	Offset     int
}

var eventOrderingFields = map[string]bool{
	"total_guest": true,
	"event_date":  true,
	"read_time":   true,
}

// ValidEventOrdering reports whether ordering names a sortable event field, with optional "-".
func ValidEventOrdering(ordering string) bool {
	if len(ordering) > 0 && ordering[0] == '-' {
		ordering = ordering[1:]
	}
	return eventOrderingFields[ordering]
}

type EventStats struct {
	TotalAttendees        int             `json:"total_attendees"`
	AvailablePlace        int             `json:"available_place"`
	TotalAttended         int             `json:"total_attended"`
	TotalNotAttended      int             `json:"total_not_attended"`
	TotalSessions         int             `json:"total_sessions"`
	TotalDraftSessions    int             `json:"total_draft_sessions"`
	TotalAcceptedSessions int             `json:"total_accepted_sessions"`
	TotalDeniedSessions   int             `json:"total_denied_sessions"`
	TotalTalk             int             `json:"total_talk"`
	TotalLightingTalk     int             `json:"total_lighting_talk"`
	TotalWorkshop         int             `json:"total_workshop"`
	OccupancyRate         decimal.Decimal `json:"occupancy_rate"`
}

// Finalize derives the capacity fields from the attendee count.
// AvailablePlace may go negative; capacity is not enforced.
func (s *EventStats) Finalize(totalGuest int) {
	s.AvailablePlace = totalGuest - s.TotalAttendees
	if totalGuest <= 0 {
		s.OccupancyRate = decimal.Zero
		return
	}
	s.OccupancyRate = decimal.NewFromInt(int64(s.TotalAttendees)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(totalGuest))).
		Round(2)
}
