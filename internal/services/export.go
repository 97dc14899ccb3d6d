package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"
)

var attendeeCSVHeader = []string{"username", "full_name", "email", "phone_number", "has_attended", "registered_at"}

// ExportAttendees writes the attendee roster of the event as CSV. Only staff may export.
func (s *EventService) ExportAttendees(ctx context.Context, actor policy.Actor, slug string, w io.Writer) error {
	if !actor.Authenticated() {
		return status.ErrUnauthorized
	}
	event, err := s.event(ctx, slug)
	if err != nil {
		return err
	}
	if !policy.IsStaff(actor, event) {
		return fmt.Errorf("%w: only the host or an organizer can export attendees", status.ErrForbidden)
	}
	return s.WriteAttendeesCSV(ctx, event, w)
}

// WriteAttendeesCSV writes the roster without any permission check.
func (s *EventService) WriteAttendeesCSV(ctx context.Context, event *models.Event, w io.Writer) error {
	attendees, err := s.repo.ListAttendees(ctx, event.ID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(attendees))
	for _, a := range attendees {
		ids = append(ids, a.UserID)
	}
	users, err := s.profiles(ctx, ids)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(attendeeCSVHeader); err != nil {
		return err
	}
	for _, a := range attendees {
		user := users[a.UserID]
		if user == nil {
			user = &models.User{ID: a.UserID}
		}
		record := []string{
			user.Username,
			user.Name,
			user.Email,
			user.PhoneNumber,
			attendanceLabel(a),
			a.Created.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func attendanceLabel(a *models.Attendee) string {
	if a.HasAttended == nil {
		return ""
	}
	return strconv.FormatBool(*a.HasAttended)
}
