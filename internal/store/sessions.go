package store

import (
	"context"
	"fmt"
	"strings"

	"meetup-api/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	collection, err := s.app.FindCollectionByNameOrId(SessionsCollection)
	if err != nil {
		return err
	}
	record := core.NewRecord(collection)
	setSession(record, session)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save session %q: %w", session.Slug, err)
	}
	session.ID = record.Id
	session.Created = record.GetDateTime("created").Time()
	session.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *models.Session) error {
	record, err := s.app.FindRecordById(SessionsCollection, session.ID)
	if err != nil {
		return notFound(err, "session %s", session.ID)
	}
	setSession(record, session)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save session %q: %w", session.Slug, err)
	}
	session.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	record, err := s.app.FindRecordById(SessionsCollection, sessionID)
	if err != nil {
		return notFound(err, "session %s", sessionID)
	}
	return s.app.Delete(record)
}

func (s *Store) FindSession(ctx context.Context, eventID, slug string) (*models.Session, error) {
	record, err := s.app.FindFirstRecordByFilter(
		SessionsCollection,
		"event = {:event} && slug = {:slug}",
		dbx.Params{"event": eventID, "slug": slug},
	)
	if err != nil {
		return nil, notFound(err, "session %q", slug)
	}
	return recordToSession(record), nil
}

func (s *Store) ListSessions(ctx context.Context, q models.SessionQuery) ([]*models.Session, error) {
	filters := []string{"event = {:event}"}
	params := dbx.Params{"event": q.EventID}
	if q.Status != "" {
		filters = append(filters, "status = {:status}")
		params["status"] = string(q.Status)
	}
	if q.Search != "" {
		filters = append(filters, "(title ~ {:search} || description ~ {:search})")
		params["search"] = q.Search
	}

	records, err := s.app.FindRecordsByFilter(
		SessionsCollection,
		strings.Join(filters, " && "),
		q.Ordering,
		q.Limit,
		q.Offset,
		params,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]*models.Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, recordToSession(record))
	}
	return sessions, nil
}

func setSession(record *core.Record, session *models.Session) {
	record.Set("title", session.Title)
	record.Set("description", session.Description)
	record.Set("session_type", string(session.Type))
	record.Set("status", string(session.Status))
	record.Set("slug", session.Slug)
	record.Set("event", session.EventID)
	record.Set("proposed_by", session.ProposerID)
}

func recordToSession(record *core.Record) *models.Session {
	return &models.Session{
		ID:          record.Id,
		Title:       record.GetString("title"),
		Description: record.GetString("description"),
		Type:        models.SessionType(record.GetString("session_type")),
		Status:      models.SessionStatus(record.GetString("status")),
		Slug:        record.GetString("slug"),
		EventID:     record.GetString("event"),
		ProposerID:  record.GetString("proposed_by"),
		Created:     record.GetDateTime("created").Time(),
		Updated:     record.GetDateTime("updated").Time(),
	}
}
