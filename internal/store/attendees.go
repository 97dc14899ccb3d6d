package store

import (
	"context"
	"fmt"

	"meetup-api/internal/status"
	"meetup-api/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

func (s *Store) CreateAttendee(ctx context.Context, attendee *models.Attendee) error {
	collection, err := s.app.FindCollectionByNameOrId(AttendeesCollection)
	if err != nil {
		return err
	}
	record := core.NewRecord(collection)
	setAttendee(record, attendee)

	if err := s.app.Save(record); err != nil {
		// a concurrent sign up loses against the (user, event) unique index
		if _, findErr := s.FindAttendee(ctx, attendee.EventID, attendee.UserID); findErr == nil {
			return fmt.Errorf("%w: %v", status.ErrAlreadyRegistered, err)
		}
		return fmt.Errorf("save attendee: %w", err)
	}
	attendee.ID = record.Id
	attendee.Created = record.GetDateTime("created").Time()
	attendee.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *Store) UpdateAttendee(ctx context.Context, attendee *models.Attendee) error {
	record, err := s.app.FindRecordById(AttendeesCollection, attendee.ID)
	if err != nil {
		return notFound(err, "attendee %s", attendee.ID)
	}
	setAttendee(record, attendee)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save attendee %s: %w", attendee.ID, err)
	}
	attendee.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *Store) FindAttendee(ctx context.Context, eventID, userID string) (*models.Attendee, error) {
	record, err := s.app.FindFirstRecordByFilter(
		AttendeesCollection,
		"event = {:event} && user = {:user}",
		dbx.Params{"event": eventID, "user": userID},
	)
	if err != nil {
		return nil, notFound(err, "attendee %s of event %s", userID, eventID)
	}
	return recordToAttendee(record), nil
}

func (s *Store) ListAttendees(ctx context.Context, eventID string) ([]*models.Attendee, error) {
	records, err := s.app.FindRecordsByFilter(
		AttendeesCollection,
		"event = {:event}",
		"created",
		0,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	attendees := make([]*models.Attendee, 0, len(records))
	for _, record := range records {
		attendees = append(attendees, recordToAttendee(record))
	}
	return attendees, nil
}

func (s *Store) CountAttendees(ctx context.Context, eventID string) (int, error) {
	total, err := s.app.CountRecords(AttendeesCollection, dbx.HashExp{"event": eventID})
	if err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return int(total), nil
}

func setAttendee(record *core.Record, attendee *models.Attendee) {
	record.Set("user", attendee.UserID)
	record.Set("event", attendee.EventID)
	record.Set("has_attended", AttendanceValue(attendee.HasAttended))
}

// AttendanceValue encodes the tri-state attendance flag as a select value.
func AttendanceValue(hasAttended *bool) string {
	switch {
	case hasAttended == nil:
		return ""
	case *hasAttended:
		return AttendedValue
	default:
		return MissedValue
	}
}

// ParseAttendance decodes a has_attended select value.
func ParseAttendance(value string) *bool {
	var flag bool
	switch value {
	case AttendedValue:
		flag = true
	case MissedValue:
		flag = false
	default:
		return nil
	}
	return &flag
}

func recordToAttendee(record *core.Record) *models.Attendee {
	return &models.Attendee{
		ID:          record.Id,
		UserID:      record.GetString("user"),
		EventID:     record.GetString("event"),
		HasAttended: ParseAttendance(record.GetString("has_attended")),
		Created:     record.GetDateTime("created").Time(),
		Updated:     record.GetDateTime("updated").Time(),
	}
}
