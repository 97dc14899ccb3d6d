package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meetup-api/config"
	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"
	"meetup-api/utils"

	"github.com/pocketbase/pocketbase/tools/filesystem"
)

// Repository is the persistence boundary. Lookups that match nothing return
// an error wrapping status.ErrNotFound.
type Repository interface {
	CreateEvent(ctx context.Context, event *models.Event, cover *filesystem.File) error
	UpdateEvent(ctx context.Context, event *models.Event, cover *filesystem.File) error
	DeleteEvent(ctx context.Context, eventID string) error
	// SetOrganizers writes only the organizers of an event.
	SetOrganizers(ctx context.Context, eventID string, userIDs []string) error
	FindEventBySlug(ctx context.Context, slug string) (*models.Event, error)
	ListEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error)
	ListTags(ctx context.Context) ([]models.Tag, error)

	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User, avatar *filesystem.File) error

	CreateAttendee(ctx context.Context, attendee *models.Attendee) error
	UpdateAttendee(ctx context.Context, attendee *models.Attendee) error
	FindAttendee(ctx context.Context, eventID, userID string) (*models.Attendee, error)
	ListAttendees(ctx context.Context, eventID string) ([]*models.Attendee, error)
	CountAttendees(ctx context.Context, eventID string) (int, error)

	CreateSession(ctx context.Context, session *models.Session) error
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	FindSession(ctx context.Context, eventID, slug string) (*models.Session, error)
	ListSessions(ctx context.Context, q models.SessionQuery) ([]*models.Session, error)

	CountEventStats(ctx context.Context, eventID string) (*models.EventStats, error)
}

type StatsCache interface {
	Get(ctx context.Context, eventID string) (*models.EventStats, error)
	Set(ctx context.Context, event *models.Event, stats *models.EventStats) error
	Invalidate(ctx context.Context, eventID string) error
}

type Notifier interface {
	SessionStatusChanged(ctx context.Context, event *models.Event, session *models.Session)
	AttendeeJoined(ctx context.Context, event *models.Event, username string, availablePlace int)
	OrganizersChanged(ctx context.Context, event *models.Event, userID, action string)
}

type Tracker interface {
	TrackSignUp(result string)
	TrackSessionStatus(status string)
	TrackAttendance(count int)
	TrackEventCreated()
}

type noopTracker struct{}

func (noopTracker) TrackSignUp(string)        {}
func (noopTracker) TrackSessionStatus(string) {}
func (noopTracker) TrackAttendance(int)       {}
func (noopTracker) TrackEventCreated()        {}

type noopNotifier struct{}

func (noopNotifier) SessionStatusChanged(context.Context, *models.Event, *models.Session) {}
func (noopNotifier) AttendeeJoined(context.Context, *models.Event, string, int)          {}
func (noopNotifier) OrganizersChanged(context.Context, *models.Event, string, string)    {}

// base holds the collaborators shared by every service.
type base struct {
	repo     Repository
	cache    StatsCache
	notifier Notifier
	tracker  Tracker
	pageSize int
	slugSize int
	now      func() time.Time
}

func newBase(repo Repository, statsCache StatsCache, notifier Notifier, tracker Tracker, cfg *config.Config) base {
	b := base{
		repo:     repo,
		cache:    statsCache,
		notifier: notifier,
		tracker:  tracker,
		pageSize: 10,
		slugSize: utils.DefaultSlugSuffixSize,
		now:      time.Now,
	}
	if cfg != nil {
		if cfg.PageSize > 0 {
			b.pageSize = cfg.PageSize
		}
		if cfg.SlugSuffixSize > 0 {
			b.slugSize = cfg.SlugSuffixSize
		}
	}
	if b.notifier == nil {
		b.notifier = noopNotifier{}
	}
	if b.tracker == nil {
		b.tracker = noopTracker{}
	}
	return b
}

func (b *base) event(ctx context.Context, slug string) (*models.Event, error) {
	event, err := b.repo.FindEventBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", slug, err)
	}
	return event, nil
}

// Authorize loads the event and checks that actor holds capability on it.
// A denial is reported as status.ErrHidden.
func (b *base) Authorize(ctx context.Context, actor policy.Actor, slug string, capability policy.Capability) (*models.Event, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	event, err := b.event(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !policy.Can(actor, capability, event, b.now()) {
		return nil, status.ErrHidden
	}
	return event, nil
}

// window converts a 1-based page into a limit/offset pair. One extra row is
// requested so HasNext can be derived without a count query.
func (b *base) window(page int) (limit, offset int, err error) {
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: invalid page %d", status.ErrNotFound, page)
	}
	return b.pageSize + 1, (page - 1) * b.pageSize, nil
}

func paginate[T any](page, size int, items []T) (*models.Page[T], error) {
	if page > 1 && len(items) == 0 {
		return nil, fmt.Errorf("%w: invalid page %d", status.ErrNotFound, page)
	}
	hasNext := len(items) > size
	if hasNext {
		items = items[:size]
	}
	if items == nil {
		items = []T{}
	}
	return &models.Page[T]{Page: page, PerPage: size, HasNext: hasNext, Results: items}, nil
}

// invalidate drops the cached stats of an event. Failures only log.
func (b *base) invalidate(ctx context.Context, eventID string) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx, eventID); err != nil {
		slog.Warn("Stats cache invalidation failed", "event_id", eventID, "error", err)
	}
}

func (b *base) profiles(ctx context.Context, ids []string) (map[string]*models.User, error) {
	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}
	return b.repo.FindUsers(ctx, unique(ids))
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
