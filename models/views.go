package models

import "time"

type EventListItem struct {
	Title          string    `json:"title"`
	EventDate      time.Time `json:"event_date"`
	TotalGuest     int       `json:"total_guest"`
	AvailablePlace int       `json:"available_place"`
	ReadTime       int       `json:"read_time"`
	Slug           string    `json:"slug"`
	Cover          string    `json:"cover"`
	HostedBy       Profile   `json:"hosted_by"`
	Tags           []string  `json:"tags"`
}

type EventDetail struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ReadTime    int       `json:"read_time"`
	Slug        string    `json:"slug"`
	EventDate   time.Time `json:"event_date"`
	TotalGuest  int       `json:"total_guest"`
	HostedBy    Profile   `json:"hosted_by"`
	Cover       string    `json:"cover"`
	Tags        []string  `json:"tags"`
	Organizers  []Profile `json:"organizers"`
	Geom        *GeoPoint `json:"geom"`
	EventStats

	HasSignUp       bool `json:"has_sign_up"`
	EventIsOpen     bool `json:"event_is_open"`
	IsAuthenticated bool `json:"is_authenticated"`
	IsStaff         bool `json:"is_stuff"`
}

type SessionListItem struct {
	Title      string      `json:"title"`
	Type       SessionType `json:"session_type"`
	Slug       string      `json:"slug"`
	ProposedBy Profile     `json:"proposed_by"`
}

type SessionDetail struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        SessionType   `json:"session_type"`
	Status      SessionStatus `json:"status"`
	Slug        string        `json:"slug"`
	ProposedBy  Profile       `json:"proposed_by"`
}

type AttendeeView struct {
	User Profile `json:"user"`
}

type SpeakerView struct {
	ProposedBy Profile `json:"proposed_by"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasNext bool `json:"has_next"`
	Results []T  `json:"results"`
}
