// Package store maps the PocketBase collections onto the domain models.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"meetup-api/internal/services"
	"meetup-api/internal/status"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

const (
	UsersCollection     = "users"
	TagsCollection      = "tags"
	EventsCollection    = "events"
	SessionsCollection  = "sessions"
	AttendeesCollection = "attendees"
)

// has_attended select values; an empty value means attendance was never recorded.
const (
	AttendedValue = "attended"
	MissedValue   = "missed"
)

type Store struct {
	app core.App
}

func New(app core.App) *Store {
	return &Store{app: app}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), status.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func fileURL(record *core.Record, field string) string {
	name := record.GetString(field)
	if name == "" {
		return ""
	}
	return "/api/files/" + record.BaseFilesPath() + "/" + name
}

func dbTime(t types.DateTime) string {
	return t.String()
}

var _ services.Repository = (*Store)(nil)
