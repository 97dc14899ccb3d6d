package store

import (
	"context"
	"fmt"

	"meetup-api/models"

	"github.com/pocketbase/dbx"
)

// CountEventStats counts attendees and sessions of an event. Capacity fields
// are derived by the caller.
func (s *Store) CountEventStats(ctx context.Context, eventID string) (*models.EventStats, error) {
	stats := &models.EventStats{}

	counters := []struct {
		collection string
		where      dbx.HashExp
		target     *int
	}{
		{AttendeesCollection, dbx.HashExp{"event": eventID}, &stats.TotalAttendees},
		{AttendeesCollection, dbx.HashExp{"event": eventID, "has_attended": AttendedValue}, &stats.TotalAttended},
		{AttendeesCollection, dbx.HashExp{"event": eventID, "has_attended": MissedValue}, &stats.TotalNotAttended},
		{SessionsCollection, dbx.HashExp{"event": eventID}, &stats.TotalSessions},
		{SessionsCollection, dbx.HashExp{"event": eventID, "status": string(models.StatusDraft)}, &stats.TotalDraftSessions},
		{SessionsCollection, dbx.HashExp{"event": eventID, "status": string(models.StatusAccepted)}, &stats.TotalAcceptedSessions},
		{SessionsCollection, dbx.HashExp{"event": eventID, "status": string(models.StatusDenied)}, &stats.TotalDeniedSessions},
		{SessionsCollection, dbx.HashExp{"event": eventID, "session_type": string(models.SessionTalk)}, &stats.TotalTalk},
		{SessionsCollection, dbx.HashExp{"event": eventID, "session_type": string(models.SessionLightingTalk)}, &stats.TotalLightingTalk},
		{SessionsCollection, dbx.HashExp{"event": eventID, "session_type": string(models.SessionWorkShop)}, &stats.TotalWorkshop},
	}

	for _, c := range counters {
		total, err := s.app.CountRecords(c.collection, c.where)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.collection, err)
		}
		*c.target = int(total)
	}
	return stats, nil
}
