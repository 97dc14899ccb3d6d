package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"meetup-api/internal/status"
	"meetup-api/models"

	"github.com/pocketbase/pocketbase/tools/filesystem"
)

type fakeRepo struct {
	mu        sync.Mutex
	seq       int
	events    map[string]*models.Event
	users     map[string]*models.User
	attendees map[string]*models.Attendee
	sessions  map[string]*models.Session
	statsHits int
	updates   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:    map[string]*models.Event{},
		users:     map[string]*models.User{},
		attendees: map[string]*models.Attendee{},
		sessions:  map[string]*models.Session{},
	}
}

func (r *fakeRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s%d", prefix, r.seq)
}

func (r *fakeRepo) addUser(id, username string) *models.User {
	u := &models.User{ID: id, Username: username, Email: username + "@example.com"}
	r.users[id] = u
	return u
}

func (r *fakeRepo) addEvent(slug, hostID string, date time.Time, totalGuest int) *models.Event {
	e := &models.Event{ID: r.nextID("ev"), Title: slug, Slug: slug, HostID: hostID, EventDate: date, TotalGuest: totalGuest}
	r.events[e.ID] = e
	return e
}

func (r *fakeRepo) addSession(event *models.Event, slug, proposerID string, st models.SessionStatus) *models.Session {
	s := &models.Session{ID: r.nextID("se"), Title: slug, Slug: slug, EventID: event.ID, ProposerID: proposerID, Status: st, Type: models.SessionTalk}
	r.sessions[s.ID] = s
	return s
}

func (r *fakeRepo) CreateEvent(ctx context.Context, event *models.Event, cover *filesystem.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Slug == event.Slug {
			return fmt.Errorf("%w: slug taken", status.ErrInvalid)
		}
	}
	event.ID = r.nextID("ev")
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdateEvent(ctx context.Context, event *models.Event, cover *filesystem.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return status.ErrNotFound
	}
	r.updates++
	copied := *event
	copied.OrganizerIDs = append([]string(nil), event.OrganizerIDs...)
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeRepo) SetOrganizers(ctx context.Context, eventID string, userIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return status.ErrNotFound
	}
	e.OrganizerIDs = append([]string(nil), userIDs...)
	return nil
}

func (r *fakeRepo) DeleteEvent(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, eventID)
	return nil
}

func (r *fakeRepo) FindEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Slug == slug {
			copied := *e
			copied.OrganizerIDs = append([]string(nil), e.OrganizerIDs...)
			return &copied, nil
		}
	}
	return nil, status.ErrNotFound
}

func (r *fakeRepo) ListEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, e := range r.events {
		if q.Upcoming && !e.EventDate.After(q.Now) {
			continue
		}
		if q.Past && !e.EventDate.Before(q.Now) {
			continue
		}
		if q.Search != "" && !strings.Contains(e.Title, q.Search) && !strings.Contains(e.Description, q.Search) {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	desc := strings.HasPrefix(q.Ordering, "-")
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].EventDate.Before(out[j].EventDate)
	})
	if q.Offset > len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *fakeRepo) ListTags(ctx context.Context) ([]models.Tag, error) {
	counts := map[string]int{}
	for _, e := range r.events {
		for _, t := range e.Tags {
			counts[t]++
		}
	}
	var tags []models.Tag
	for name, n := range counts {
		tags = append(tags, models.Tag{Name: name, TotalEvents: n})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (r *fakeRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, status.ErrNotFound
}

func (r *fakeRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, status.ErrNotFound
}

func (r *fakeRepo) FindUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateUser(ctx context.Context, user *models.User, avatar *filesystem.File) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func attendeeKey(eventID, userID string) string {
	return eventID + "/" + userID
}

func (r *fakeRepo) CreateAttendee(ctx context.Context, a *models.Attendee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attendeeKey(a.EventID, a.UserID)
	if _, ok := r.attendees[key]; ok {
		return status.ErrAlreadyRegistered
	}
	a.ID = r.nextID("at")
	a.Created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	copied := *a
	r.attendees[key] = &copied
	return nil
}

func (r *fakeRepo) UpdateAttendee(ctx context.Context, a *models.Attendee) error {
	copied := *a
	r.attendees[attendeeKey(a.EventID, a.UserID)] = &copied
	return nil
}

func (r *fakeRepo) FindAttendee(ctx context.Context, eventID, userID string) (*models.Attendee, error) {
	if a, ok := r.attendees[attendeeKey(eventID, userID)]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, status.ErrNotFound
}

func (r *fakeRepo) ListAttendees(ctx context.Context, eventID string) ([]*models.Attendee, error) {
	var out []*models.Attendee
	for _, a := range r.attendees {
		if a.EventID == eventID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) CountAttendees(ctx context.Context, eventID string) (int, error) {
	n := 0
	for _, a := range r.attendees {
		if a.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CreateSession(ctx context.Context, s *models.Session) error {
	s.ID = r.nextID("se")
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdateSession(ctx context.Context, s *models.Session) error {
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeRepo) DeleteSession(ctx context.Context, sessionID string) error {
	delete(r.sessions, sessionID)
	return nil
}

func (r *fakeRepo) FindSession(ctx context.Context, eventID, slug string) (*models.Session, error) {
	for _, s := range r.sessions {
		if s.EventID == eventID && s.Slug == slug {
			copied := *s
			return &copied, nil
		}
	}
	return nil, status.ErrNotFound
}

func (r *fakeRepo) ListSessions(ctx context.Context, q models.SessionQuery) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		if s.EventID != q.EventID || (q.Status != "" && s.Status != q.Status) {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if q.Offset > len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *fakeRepo) CountEventStats(ctx context.Context, eventID string) (*models.EventStats, error) {
	r.statsHits++
	stats := &models.EventStats{}
	for _, a := range r.attendees {
		if a.EventID != eventID {
			continue
		}
		stats.TotalAttendees++
		if a.Attended() {
			stats.TotalAttended++
		}
		if a.Missed() {
			stats.TotalNotAttended++
		}
	}
	for _, s := range r.sessions {
		if s.EventID != eventID {
			continue
		}
		stats.TotalSessions++
		switch s.Status {
		case models.StatusDraft:
			stats.TotalDraftSessions++
		case models.StatusAccepted:
			stats.TotalAcceptedSessions++
		case models.StatusDenied:
			stats.TotalDeniedSessions++
		}
	}
	return stats, nil
}

type memoryCache struct {
	entries     map[string]models.EventStats
	invalidated []string
	err         error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]models.EventStats{}}
}

func (c *memoryCache) Get(ctx context.Context, eventID string) (*models.EventStats, error) {
	if c.err != nil {
		return nil, c.err
	}
	stats, ok := c.entries[eventID]
	if !ok {
		return nil, errMiss
	}
	return &stats, nil
}

func (c *memoryCache) Set(ctx context.Context, event *models.Event, stats *models.EventStats) error {
	if c.err != nil {
		return c.err
	}
	c.entries[event.ID] = *stats
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, eventID string) error {
	c.invalidated = append(c.invalidated, eventID)
	delete(c.entries, eventID)
	return c.err
}

type recordingNotifier struct {
	statuses   []models.SessionStatus
	joined     []string
	available  []int
	organizers []string
}

func (n *recordingNotifier) SessionStatusChanged(ctx context.Context, event *models.Event, session *models.Session) {
	n.statuses = append(n.statuses, session.Status)
}

func (n *recordingNotifier) AttendeeJoined(ctx context.Context, event *models.Event, username string, availablePlace int) {
	n.joined = append(n.joined, username)
	n.available = append(n.available, availablePlace)
}

func (n *recordingNotifier) OrganizersChanged(ctx context.Context, event *models.Event, userID, action string) {
	n.organizers = append(n.organizers, action+":"+userID)
}

type countingTracker struct {
	signUps  map[string]int
	statuses map[string]int
	marked   int
	created  int
}

func newCountingTracker() *countingTracker {
	return &countingTracker{signUps: map[string]int{}, statuses: map[string]int{}}
}

func (t *countingTracker) TrackSignUp(result string)        { t.signUps[result]++ }
func (t *countingTracker) TrackSessionStatus(status string) { t.statuses[status]++ }
func (t *countingTracker) TrackAttendance(count int)        { t.marked += count }
func (t *countingTracker) TrackEventCreated()               { t.created++ }
