package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"meetup-api/config"
	"meetup-api/internal/cache"
	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"
	"meetup-api/utils"

	"github.com/pocketbase/pocketbase/tools/filesystem"
)

const maxTitleLength = 400

// EventInput carries the writable event fields. Nil fields are left untouched
// on partial updates.
type EventInput struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	TotalGuest  *int
	Tags        []string
	Geom        *models.GeoPoint
	Cover       *filesystem.File
}

type EventService struct {
	base
}

func NewEventService(repo Repository, statsCache StatsCache, notifier Notifier, tracker Tracker, cfg *config.Config) *EventService {
	return &EventService{base: newBase(repo, statsCache, notifier, tracker, cfg)}
}

func (s *EventService) PageSize() int {
	return s.pageSize
}

// ListUpcoming returns a page of events that have not started yet.
func (s *EventService) ListUpcoming(ctx context.Context, q models.EventQuery, page int) (*models.Page[models.EventListItem], error) {
	q.Upcoming, q.Past = true, false
	if q.Ordering == "" {
		q.Ordering = "event_date"
	}
	if !models.ValidEventOrdering(q.Ordering) {
		return nil, fmt.Errorf("%w: cannot order by %q", status.ErrInvalid, q.Ordering)
	}

	limit, offset, err := s.window(page)
	if err != nil {
		return nil, err
	}
	q.Now, q.Limit, q.Offset = s.now(), limit, offset

	events, err := s.repo.ListEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	items, err := s.listItems(ctx, events)
	if err != nil {
		return nil, err
	}
	return paginate(page, s.pageSize, items)
}

// ListPast returns every event whose date has passed.
func (s *EventService) ListPast(ctx context.Context) ([]models.EventListItem, error) {
	events, err := s.repo.ListEvents(ctx, models.EventQuery{
		Past:     true,
		Now:      s.now(),
		Ordering: "-event_date",
	})
	if err != nil {
		return nil, err
	}
	return s.listItems(ctx, events)
}

func (s *EventService) listItems(ctx context.Context, events []*models.Event) ([]models.EventListItem, error) {
	hostIDs := make([]string, 0, len(events))
	for _, event := range events {
		hostIDs = append(hostIDs, event.HostID)
	}
	hosts, err := s.profiles(ctx, hostIDs)
	if err != nil {
		return nil, err
	}

	items := make([]models.EventListItem, 0, len(events))
	for _, event := range events {
		attendees, err := s.repo.CountAttendees(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, models.EventListItem{
			Title:          event.Title,
			EventDate:      event.EventDate,
			TotalGuest:     event.TotalGuest,
			AvailablePlace: event.TotalGuest - attendees,
			ReadTime:       event.ReadTime,
			Slug:           event.Slug,
			Cover:          event.Cover,
			HostedBy:       hosts[event.HostID].Profile(),
			Tags:           nonNil(event.Tags),
		})
	}
	return items, nil
}

func (s *EventService) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.repo.ListTags(ctx)
}

// Get returns the event detail as seen by actor.
func (s *EventService) Get(ctx context.Context, actor policy.Actor, slug string) (*models.EventDetail, error) {
	event, err := s.event(ctx, slug)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx, event)
	if err != nil {
		return nil, err
	}

	users, err := s.profiles(ctx, append([]string{event.HostID}, event.OrganizerIDs...))
	if err != nil {
		return nil, err
	}
	organizers := make([]models.Profile, 0, len(event.OrganizerIDs))
	for _, id := range event.OrganizerIDs {
		if u, ok := users[id]; ok {
			organizers = append(organizers, u.Profile())
		}
	}

	hasSignUp := false
	if actor.Authenticated() {
		_, err := s.repo.FindAttendee(ctx, event.ID, actor.ID)
		switch {
		case err == nil:
			hasSignUp = true
		case !errors.Is(err, status.ErrNotFound):
			return nil, err
		}
	}

	return &models.EventDetail{
		Title:           event.Title,
		Description:     event.Description,
		ReadTime:        event.ReadTime,
		Slug:            event.Slug,
		EventDate:       event.EventDate,
		TotalGuest:      event.TotalGuest,
		HostedBy:        users[event.HostID].Profile(),
		Cover:           event.Cover,
		Tags:            nonNil(event.Tags),
		Organizers:      organizers,
		Geom:            event.Geom,
		EventStats:      *stats,
		HasSignUp:       hasSignUp,
		EventIsOpen:     event.IsOpen(s.now()),
		IsAuthenticated: actor.Authenticated(),
		IsStaff:         policy.IsStaff(actor, event),
	}, nil
}

// Stats returns the event counters, reading through the stats cache.
func (s *EventService) Stats(ctx context.Context, event *models.Event) (*models.EventStats, error) {
	if s.cache != nil {
		stats, err := s.cache.Get(ctx, event.ID)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("Stats cache read failed", "event_id", event.ID, "error", err)
		}
	}

	stats, err := s.repo.CountEventStats(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	stats.Finalize(event.TotalGuest)

	if s.cache != nil {
		if err := s.cache.Set(ctx, event, stats); err != nil {
			slog.Warn("Stats cache write failed", "event_id", event.ID, "error", err)
		}
	}
	return stats, nil
}

// Create stores a new event hosted by actor.
func (s *EventService) Create(ctx context.Context, actor policy.Actor, in EventInput) (*models.Event, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	if err := validateEventInput(in, false); err != nil {
		return nil, err
	}

	event := &models.Event{
		HostID:     actor.ID,
		TotalGuest: 1,
	}
	applyEventInput(event, in)
	event.Slug = utils.UniqueSlug(event.Title, s.slugSize)

	if err := s.repo.CreateEvent(ctx, event, in.Cover); err != nil {
		return nil, err
	}
	s.tracker.TrackEventCreated()
	slog.Info("Event created", "event_id", event.ID, "slug", event.Slug, "host", actor.ID)
	return event, nil
}

// Update changes an upcoming event. Only the host may update it.
func (s *EventService) Update(ctx context.Context, actor policy.Actor, slug string, in EventInput, partial bool) (*models.Event, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	event, err := s.event(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.EditEvent, event, s.now()) {
		return nil, fmt.Errorf("%w: only the host can edit an upcoming event", status.ErrForbidden)
	}
	if err := validateEventInput(in, partial); err != nil {
		return nil, err
	}

	applyEventInput(event, in)
	if err := s.repo.UpdateEvent(ctx, event, in.Cover); err != nil {
		return nil, err
	}
	s.invalidate(ctx, event.ID)
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, actor policy.Actor, slug string) error {
	if !actor.Authenticated() {
		return status.ErrUnauthorized
	}
	event, err := s.event(ctx, slug)
	if err != nil {
		return err
	}
	if !policy.Can(actor, policy.DeleteEvent, event, s.now()) {
		return fmt.Errorf("%w: only the host can delete an upcoming event", status.ErrForbidden)
	}
	if err := s.repo.DeleteEvent(ctx, event.ID); err != nil {
		return err
	}
	s.invalidate(ctx, event.ID)
	slog.Info("Event deleted", "event_id", event.ID, "slug", event.Slug)
	return nil
}

func validateEventInput(in EventInput, partial bool) error {
	if !partial {
		if in.Title == nil {
			return fmt.Errorf("%w: title is required", status.ErrInvalid)
		}
		if in.EventDate == nil {
			return fmt.Errorf("%w: event_date is required", status.ErrInvalid)
		}
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return fmt.Errorf("%w: title may not be blank", status.ErrInvalid)
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return fmt.Errorf("%w: title exceeds %d characters", status.ErrInvalid, maxTitleLength)
		}
	}
	if in.EventDate != nil && in.EventDate.IsZero() {
		return fmt.Errorf("%w: event_date is required", status.ErrInvalid)
	}
	if in.TotalGuest != nil && *in.TotalGuest < 1 {
		return fmt.Errorf("%w: total_guest must be at least 1", status.ErrInvalid)
	}
	if in.Geom != nil {
		if err := in.Geom.Validate(); err != nil {
			return fmt.Errorf("%w: %v", status.ErrInvalid, err)
		}
	}
	return nil
}

func applyEventInput(event *models.Event, in EventInput) {
	if in.Title != nil {
		event.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		event.Description = *in.Description
		event.ReadTime = utils.ReadTime(event.Description)
	}
	if in.EventDate != nil {
		event.EventDate = in.EventDate.UTC()
	}
	if in.TotalGuest != nil {
		event.TotalGuest = *in.TotalGuest
	}
	if in.Tags != nil {
		event.Tags = NormalizeTags(in.Tags)
	}
	if in.Geom != nil {
		event.Geom = in.Geom
	}
}

// NormalizeTags lower-cases and de-duplicates tag names, dropping blanks.
func NormalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
