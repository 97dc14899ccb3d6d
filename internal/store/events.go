package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"meetup-api/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/pocketbase/pocketbase/tools/types"
)

func (s *Store) CreateEvent(ctx context.Context, event *models.Event, cover *filesystem.File) error {
	collection, err := s.app.FindCollectionByNameOrId(EventsCollection)
	if err != nil {
		return err
	}
	record := core.NewRecord(collection)
	if err := s.saveEvent(record, event, cover); err != nil {
		return err
	}
	event.ID = record.Id
	event.Cover = fileURL(record, "cover")
	event.Created = record.GetDateTime("created").Time()
	event.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, event *models.Event, cover *filesystem.File) error {
	record, err := s.app.FindRecordById(EventsCollection, event.ID)
	if err != nil {
		return notFound(err, "event %s", event.ID)
	}
	if err := s.saveEvent(record, event, cover); err != nil {
		return err
	}
	event.Cover = fileURL(record, "cover")
	event.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *Store) saveEvent(record *core.Record, event *models.Event, cover *filesystem.File) error {
	tagIDs, err := s.tagIDs(event.Tags)
	if err != nil {
		return err
	}

	record.Set("title", event.Title)
	record.Set("description", event.Description)
	record.Set("read_time", event.ReadTime)
	record.Set("slug", event.Slug)
	record.Set("event_date", event.EventDate)
	record.Set("total_guest", event.TotalGuest)
	record.Set("hosted_by", event.HostID)
	record.Set("organizers", event.OrganizerIDs)
	record.Set("tags", tagIDs)
	if event.Geom != nil {
		record.Set("geom", event.Geom)
	}
	if cover != nil {
		record.Set("cover", cover)
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save event %q: %w", event.Slug, err)
	}
	return nil
}

// tagIDs resolves tag names to record ids, creating missing tags.
func (s *Store) tagIDs(names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	if len(names) == 0 {
		return ids, nil
	}

	var collection *core.Collection
	for _, name := range names {
		name = strings.ToLower(name)
		record, err := s.app.FindFirstRecordByData(TagsCollection, "name", name)
		if errors.Is(err, sql.ErrNoRows) {
			if collection == nil {
				if collection, err = s.app.FindCollectionByNameOrId(TagsCollection); err != nil {
					return nil, err
				}
			}
			record = core.NewRecord(collection)
			record.Set("name", name)
			if err := s.app.Save(record); err != nil {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
		} else if err != nil {
			return nil, err
		}
		ids = append(ids, record.Id)
	}
	return ids, nil
}

func (s *Store) SetOrganizers(ctx context.Context, eventID string, userIDs []string) error {
	record, err := s.app.FindRecordById(EventsCollection, eventID)
	if err != nil {
		return notFound(err, "event %s", eventID)
	}
	record.Set("organizers", userIDs)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save organizers of event %s: %w", eventID, err)
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	record, err := s.app.FindRecordById(EventsCollection, eventID)
	if err != nil {
		return notFound(err, "event %s", eventID)
	}
	return s.app.Delete(record)
}

func (s *Store) FindEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	record, err := s.app.FindFirstRecordByData(EventsCollection, "slug", slug)
	if err != nil {
		return nil, notFound(err, "event %q", slug)
	}
	s.expandTags([]*core.Record{record})
	return recordToEvent(record), nil
}

func (s *Store) ListEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error) {
	filters := []string{"id != ''"}
	params := dbx.Params{}

	now := types.NowDateTime()
	if !q.Now.IsZero() {
		now, _ = types.ParseDateTime(q.Now)
	}
	if q.Upcoming {
		filters = append(filters, "event_date > {:now}")
		params["now"] = dbTime(now)
	}
	if q.Past {
		filters = append(filters, "event_date < {:now}")
		params["now"] = dbTime(now)
	}
	if q.TagName != "" {
		filters = append(filters, "tags.name ?= {:tag}")
		params["tag"] = strings.ToLower(q.TagName)
	}
	if q.ReadTime != nil {
		filters = append(filters, "read_time = {:read_time}")
		params["read_time"] = *q.ReadTime
	}
	if q.DateAfter != nil {
		after, _ := types.ParseDateTime(*q.DateAfter)
		filters = append(filters, "event_date >= {:after}")
		params["after"] = dbTime(after)
	}
	if q.DateBefore != nil {
		before, _ := types.ParseDateTime(*q.DateBefore)
		filters = append(filters, "event_date <= {:before}")
		params["before"] = dbTime(before)
	}
	if q.Search != "" {
		filters = append(filters, "(title ~ {:search} || description ~ {:search})")
		params["search"] = q.Search
	}

	records, err := s.app.FindRecordsByFilter(
		EventsCollection,
		strings.Join(filters, " && "),
		q.Ordering,
		q.Limit,
		q.Offset,
		params,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.expandTags(records)

	events := make([]*models.Event, 0, len(records))
	for _, record := range records {
		events = append(events, recordToEvent(record))
	}
	return events, nil
}

func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	records, err := s.app.FindAllRecords(TagsCollection)
	if err != nil {
		return nil, err
	}

	tags := make([]models.Tag, 0, len(records))
	for _, record := range records {
		// multiple relations are stored as a JSON array of ids
		total, err := s.app.CountRecords(EventsCollection, dbx.NewExp(
			"[[tags]] LIKE {:pattern}",
			dbx.Params{"pattern": `%"` + record.Id + `"%`},
		))
		if err != nil {
			return nil, err
		}
		tags = append(tags, models.Tag{
			ID:          record.Id,
			Name:        record.GetString("name"),
			TotalEvents: int(total),
		})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *Store) expandTags(records []*core.Record) {
	if len(records) == 0 {
		return
	}
	for field, err := range s.app.ExpandRecords(records, []string{"tags"}, nil) {
		slog.Warn("Failed to expand event relation", "field", field, "error", err)
	}
}

func recordToEvent(record *core.Record) *models.Event {
	event := &models.Event{
		ID:           record.Id,
		Title:        record.GetString("title"),
		Description:  record.GetString("description"),
		ReadTime:     record.GetInt("read_time"),
		Slug:         record.GetString("slug"),
		EventDate:    record.GetDateTime("event_date").Time(),
		TotalGuest:   record.GetInt("total_guest"),
		HostID:       record.GetString("hosted_by"),
		OrganizerIDs: record.GetStringSlice("organizers"),
		Cover:        fileURL(record, "cover"),
		Created:      record.GetDateTime("created").Time(),
		Updated:      record.GetDateTime("updated").Time(),
	}

	for _, tag := range record.ExpandedAll("tags") {
		event.Tags = append(event.Tags, tag.GetString("name"))
	}

	if raw, ok := record.Get("geom").(types.JSONRaw); ok && len(raw) > 0 && string(raw) != "null" {
		var geom models.GeoPoint
		if err := json.Unmarshal(raw, &geom); err == nil {
			event.Geom = &geom
		}
	}
	return event
}
