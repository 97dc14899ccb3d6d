package store

import (
	"fmt"
	"log/slog"

	"meetup-api/internal/status"
	"meetup-api/models"
	"meetup-api/utils"

	"github.com/pocketbase/pocketbase/core"
)

// RegisterHooks fills derived fields on every write, including the ones made
// from the admin dashboard.
func RegisterHooks(app core.App, slugSize int) {
	app.OnRecordCreate(EventsCollection).BindFunc(func(e *core.RecordEvent) error {
		applyEventDefaults(e.Record, slugSize)
		return e.Next()
	})

	app.OnRecordUpdate(EventsCollection).BindFunc(func(e *core.RecordEvent) error {
		refreshReadTime(e.Record)
		return e.Next()
	})

	app.OnRecordCreate(SessionsCollection).BindFunc(func(e *core.RecordEvent) error {
		applySessionDefaults(e.Record, slugSize)
		return e.Next()
	})

	app.OnRecordCreate(AttendeesCollection).BindFunc(func(e *core.RecordEvent) error {
		event, err := e.App.FindRecordById(EventsCollection, e.Record.GetString("event"))
		if err != nil {
			return notFound(err, "event %s", e.Record.GetString("event"))
		}
		if err := checkAttendee(e.Record, event); err != nil {
			return err
		}
		return e.Next()
	})

	app.OnRecordAfterCreateSuccess(EventsCollection).BindFunc(func(e *core.RecordEvent) error {
		slog.Info("Event record created", "event_id", e.Record.Id, "slug", e.Record.GetString("slug"))
		return e.Next()
	})
}

func applyEventDefaults(record *core.Record, slugSize int) {
	if record.GetString("slug") == "" {
		record.Set("slug", utils.UniqueSlug(record.GetString("title"), slugSize))
	}
	if record.GetInt("read_time") == 0 {
		record.Set("read_time", utils.ReadTime(record.GetString("description")))
	}
	if record.GetInt("total_guest") < 1 {
		record.Set("total_guest", 1)
	}
}

func refreshReadTime(record *core.Record) {
	description := record.GetString("description")
	if original := record.Original(); original != nil && original.GetString("description") == description {
		return
	}
	record.Set("read_time", utils.ReadTime(description))
}

func applySessionDefaults(record *core.Record, slugSize int) {
	if record.GetString("slug") == "" {
		record.Set("slug", utils.UniqueSlug(record.GetString("title"), slugSize))
	}
	if record.GetString("status") == "" {
		record.Set("status", string(models.StatusDraft))
	}
}

func checkAttendee(attendee, event *core.Record) error {
	if attendee.GetString("user") == event.GetString("hosted_by") {
		return fmt.Errorf("%w: %s", status.ErrOwnerSignUp, event.GetString("title"))
	}
	return nil
}
