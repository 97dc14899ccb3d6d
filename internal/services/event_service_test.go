package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"meetup-api/config"
	"meetup-api/internal/cache"
	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMiss = cache.ErrMiss

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *fakeRepo
	cache    *memoryCache
	notifier *recordingNotifier
	tracker  *countingTracker
	events   *EventService
	sessions *SessionService
	users    *UserService

	host, organizer, alice, bob *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		cache:    newMemoryCache(),
		notifier: &recordingNotifier{},
		tracker:  newCountingTracker(),
	}
	cfg := &config.Config{PageSize: 2, SlugSuffixSize: 6}
	f.events = NewEventService(f.repo, f.cache, f.notifier, f.tracker, cfg)
	f.sessions = NewSessionService(f.repo, f.cache, f.notifier, f.tracker, cfg)
	f.users = NewUserService(f.repo, cfg)
	clock := func() time.Time { return fixedNow }
	f.events.now, f.sessions.now = clock, clock

	f.host = f.repo.addUser("u-host", "host")
	f.organizer = f.repo.addUser("u-org", "organizer")
	f.alice = f.repo.addUser("u-alice", "alice")
	f.bob = f.repo.addUser("u-bob", "bob")
	return f
}

func as(u *models.User) policy.Actor {
	return policy.Actor{ID: u.ID}
}

func upcoming() time.Time { return fixedNow.Add(48 * time.Hour) }
func past() time.Time     { return fixedNow.Add(-48 * time.Hour) }

func ptr[T any](v T) *T { return &v }

func TestEventService_Create(t *testing.T) {
	f := newFixture(t)

	event, err := f.events.Create(context.Background(), as(f.host), EventInput{
		Title:       ptr("Go Meetup: Généricité!"),
		Description: ptr("<p>" + strings.Repeat("word ", 201) + "</p>"),
		EventDate:   ptr(upcoming()),
		Tags:        []string{"Go", "go", " Backend "},
	})
	require.NoError(t, err)

	assert.Equal(t, f.host.ID, event.HostID)
	assert.Equal(t, 1, event.TotalGuest)
	assert.Equal(t, 2, event.ReadTime)
	assert.Equal(t, []string{"go", "backend"}, event.Tags)
	assert.True(t, strings.HasPrefix(event.Slug, "go-meetup-genericite-"), event.Slug)
	assert.Len(t, event.Slug, len("go-meetup-genericite-")+6)
	assert.Equal(t, 1, f.tracker.created)
}

func TestEventService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   EventInput
	}{
		{"missing title", EventInput{EventDate: ptr(upcoming())}},
		{"missing date", EventInput{Title: ptr("t")}},
		{"blank title", EventInput{Title: ptr("   "), EventDate: ptr(upcoming())}},
		{"long title", EventInput{Title: ptr(strings.Repeat("x", 401)), EventDate: ptr(upcoming())}},
		{"zero guests", EventInput{Title: ptr("t"), EventDate: ptr(upcoming()), TotalGuest: ptr(0)}},
		{"bad geom", EventInput{Title: ptr("t"), EventDate: ptr(upcoming()), Geom: &models.GeoPoint{Type: "Polygon"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.Create(ctx, as(f.host), tt.in)
			assert.ErrorIs(t, err, status.ErrInvalid)
		})
	}

	_, err := f.events.Create(ctx, policy.Actor{}, EventInput{Title: ptr("t"), EventDate: ptr(upcoming())})
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestEventService_SlugsDifferForSameTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.events.Create(ctx, as(f.host), EventInput{Title: ptr("Same"), EventDate: ptr(upcoming())})
	require.NoError(t, err)
	b, err := f.events.Create(ctx, as(f.host), EventInput{Title: ptr("Same"), EventDate: ptr(upcoming())})
	require.NoError(t, err)

	assert.NotEqual(t, a.Slug, b.Slug)
}

func TestEventService_UpdatePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.repo.addEvent("open", f.host.ID, upcoming(), 10)
	f.repo.addEvent("closed", f.host.ID, past(), 10)

	_, err := f.events.Update(ctx, as(f.alice), "open", EventInput{Title: ptr("hijack")}, true)
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = f.events.Update(ctx, as(f.host), "closed", EventInput{Title: ptr("late")}, true)
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = f.events.Update(ctx, as(f.host), "missing", EventInput{}, true)
	assert.ErrorIs(t, err, status.ErrNotFound)

	updated, err := f.events.Update(ctx, as(f.host), "open", EventInput{
		Title:       ptr("Renamed"),
		Description: ptr(strings.Repeat("w ", 450)),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "open", updated.Slug)
	assert.Equal(t, 3, updated.ReadTime)
	assert.Contains(t, f.cache.invalidated, open.ID)
}

func TestEventService_PutRequiresFullBody(t *testing.T) {
	f := newFixture(t)
	f.repo.addEvent("open", f.host.ID, upcoming(), 10)

	_, err := f.events.Update(context.Background(), as(f.host), "open", EventInput{Title: ptr("only title")}, false)
	assert.ErrorIs(t, err, status.ErrInvalid)
}

func TestEventService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.addEvent("open", f.host.ID, upcoming(), 10)

	assert.ErrorIs(t, f.events.Delete(ctx, as(f.bob), "open"), status.ErrForbidden)
	require.NoError(t, f.events.Delete(ctx, as(f.host), "open"))

	_, err := f.repo.FindEventBySlug(ctx, "open")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestEventService_SignUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 1)
	f.repo.addEvent("closed", f.host.ID, past(), 10)

	attendee, err := f.events.SignUp(ctx, as(f.alice), "open")
	require.NoError(t, err)
	assert.Nil(t, attendee.HasAttended)
	assert.Equal(t, []string{"alice"}, f.notifier.joined)
	assert.Equal(t, []int{0}, f.notifier.available)

	_, err = f.events.SignUp(ctx, as(f.alice), "open")
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)

	_, err = f.events.SignUp(ctx, as(f.host), "open")
	assert.ErrorIs(t, err, status.ErrOwnerSignUp)

	_, err = f.events.SignUp(ctx, as(f.bob), "closed")
	assert.ErrorIs(t, err, status.ErrRegistrationClosed)

	_, err = f.events.SignUp(ctx, policy.Actor{}, "open")
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	// capacity is not enforced
	_, err = f.events.SignUp(ctx, as(f.bob), "open")
	require.NoError(t, err)
	stats, err := f.events.Stats(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, -1, stats.AvailablePlace)

	assert.Equal(t, 2, f.tracker.signUps["created"])
	assert.Equal(t, 1, f.tracker.signUps["duplicate"])
	assert.Equal(t, 1, f.tracker.signUps["owner"])
	assert.Equal(t, 1, f.tracker.signUps["closed"])
}

func TestEventService_SignUpOrderOfChecks(t *testing.T) {
	f := newFixture(t)
	f.repo.addEvent("closed", f.host.ID, past(), 10)

	// the owner check wins over the closed registration window
	_, err := f.events.SignUp(context.Background(), as(f.host), "closed")
	assert.ErrorIs(t, err, status.ErrOwnerSignUp)
}

func TestEventService_StatsReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 8)
	f.repo.addSession(event, "talk", f.alice.ID, models.StatusAccepted)
	f.repo.addSession(event, "draft", f.bob.ID, models.StatusDraft)

	first, err := f.events.Stats(ctx, event)
	require.NoError(t, err)
	second, err := f.events.Stats(ctx, event)
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.statsHits)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.TotalSessions)
	assert.Equal(t, 1, first.TotalAcceptedSessions)
	assert.Equal(t, 8, first.AvailablePlace)
	assert.Equal(t, "0", first.OccupancyRate.String())
}

func TestEventService_StatsCacheFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.cache.err = errors.New("redis down")
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 4)

	stats, err := f.events.Stats(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.AvailablePlace)
}

func TestEventService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 4)
	event.OrganizerIDs = []string{f.organizer.ID}
	_, err := f.events.SignUp(ctx, as(f.alice), "open")
	require.NoError(t, err)

	detail, err := f.events.Get(ctx, as(f.alice), "open")
	require.NoError(t, err)
	assert.True(t, detail.HasSignUp)
	assert.True(t, detail.EventIsOpen)
	assert.True(t, detail.IsAuthenticated)
	assert.False(t, detail.IsStaff)
	assert.Equal(t, "host", detail.HostedBy.Username)
	require.Len(t, detail.Organizers, 1)
	assert.Equal(t, "organizer", detail.Organizers[0].Username)
	assert.Equal(t, 1, detail.TotalAttendees)
	assert.Equal(t, 3, detail.AvailablePlace)

	anon, err := f.events.Get(ctx, policy.Actor{}, "open")
	require.NoError(t, err)
	assert.False(t, anon.HasSignUp)
	assert.False(t, anon.IsAuthenticated)

	staff, err := f.events.Get(ctx, as(f.organizer), "open")
	require.NoError(t, err)
	assert.True(t, staff.IsStaff)

	_, err = f.events.Get(ctx, as(f.alice), "nope")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestEventService_ListUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, slug := range []string{"a", "b", "c"} {
		f.repo.addEvent(slug, f.host.ID, upcoming().Add(time.Duration(i)*time.Hour), 5)
	}
	f.repo.addEvent("old", f.host.ID, past(), 5)

	page1, err := f.events.ListUpcoming(ctx, models.EventQuery{}, 1)
	require.NoError(t, err)
	assert.True(t, page1.HasNext)
	assert.Equal(t, 2, page1.PerPage)
	require.Len(t, page1.Results, 2)
	assert.Equal(t, "a", page1.Results[0].Slug)
	assert.Equal(t, "host", page1.Results[0].HostedBy.Username)
	assert.Equal(t, 5, page1.Results[0].AvailablePlace)

	page2, err := f.events.ListUpcoming(ctx, models.EventQuery{}, 2)
	require.NoError(t, err)
	assert.False(t, page2.HasNext)
	require.Len(t, page2.Results, 1)
	assert.Equal(t, "c", page2.Results[0].Slug)

	_, err = f.events.ListUpcoming(ctx, models.EventQuery{}, 3)
	assert.ErrorIs(t, err, status.ErrNotFound)

	_, err = f.events.ListUpcoming(ctx, models.EventQuery{Ordering: "host"}, 1)
	assert.ErrorIs(t, err, status.ErrInvalid)

	old, err := f.events.ListPast(ctx)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, "old", old[0].Slug)
}

func TestEventService_ListUpcomingEmpty(t *testing.T) {
	f := newFixture(t)

	page, err := f.events.ListUpcoming(context.Background(), models.EventQuery{}, 1)
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
	assert.False(t, page.HasNext)
}

func TestEventService_MarkAttendance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 10)
	event.OrganizerIDs = []string{f.organizer.ID}
	f.repo.addEvent("closed", f.host.ID, past(), 10)
	_, err := f.events.SignUp(ctx, as(f.alice), "open")
	require.NoError(t, err)

	marked, err := f.events.MarkAttendance(ctx, as(f.organizer), "open", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	alice, err := f.repo.FindAttendee(ctx, event.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, alice.Attended())

	// bob never signed up and must not become an attendee
	_, err = f.repo.FindAttendee(ctx, event.ID, f.bob.ID)
	assert.ErrorIs(t, err, status.ErrNotFound)

	_, err = f.events.MarkAttendance(ctx, as(f.host), "open", []string{"ghost"})
	assert.ErrorIs(t, err, status.ErrNotFound)

	_, err = f.events.MarkAttendance(ctx, as(f.alice), "open", []string{"alice"})
	assert.ErrorIs(t, err, status.ErrHidden)

	_, err = f.events.MarkAttendance(ctx, as(f.host), "closed", []string{"alice"})
	assert.ErrorIs(t, err, status.ErrHidden)

	_, err = f.events.MarkAttendance(ctx, as(f.host), "open", nil)
	assert.ErrorIs(t, err, status.ErrInvalid)

	assert.Equal(t, 1, f.tracker.marked)
}

func TestEventService_ManageOrganizers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.addEvent("open", f.host.ID, upcoming(), 10)

	require.NoError(t, f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"alice", "bob"}, "Add"))
	require.NoError(t, f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"alice"}, "Add"))

	event, err := f.repo.FindEventBySlug(ctx, "open")
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice.ID, f.bob.ID}, event.OrganizerIDs)

	require.NoError(t, f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"alice"}, "Remove"))
	require.NoError(t, f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"alice"}, "Remove"))
	event, err = f.repo.FindEventBySlug(ctx, "open")
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, event.OrganizerIDs)

	err = f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"alice"}, "Promote")
	assert.ErrorIs(t, err, status.ErrInvalidOrganizerAct)

	err = f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"ghost"}, "Add")
	assert.ErrorIs(t, err, status.ErrNotFound)

	// organizers cannot manage organizers
	err = f.events.ManageOrganizers(ctx, as(f.bob), "open", []string{"alice"}, "Add")
	assert.ErrorIs(t, err, status.ErrHidden)

	assert.Contains(t, f.notifier.organizers, "added:"+f.alice.ID)
	assert.Contains(t, f.notifier.organizers, "removed:"+f.alice.ID)
}

func TestEventService_ManageOrganizersLeavesOtherFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 10)
	event.Tags = []string{"go", "cloud"}

	require.NoError(t, f.events.ManageOrganizers(ctx, as(f.host), "open", []string{"alice"}, "Add"))

	assert.Zero(t, f.repo.updates)
	stored, err := f.repo.FindEventBySlug(ctx, "open")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "cloud"}, stored.Tags)
	assert.Equal(t, []string{f.alice.ID}, stored.OrganizerIDs)
}

func TestEventService_AttendeesAndSpeakers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.repo.addEvent("open", f.host.ID, upcoming(), 10)
	_, err := f.events.SignUp(ctx, as(f.alice), "open")
	require.NoError(t, err)
	f.repo.addSession(event, "accepted", f.bob.ID, models.StatusAccepted)
	f.repo.addSession(event, "draft", f.alice.ID, models.StatusDraft)

	attendees, err := f.events.Attendees(ctx, "open")
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, "alice", attendees[0].User.Username)

	speakers, err := f.events.Speakers(ctx, "open")
	require.NoError(t, err)
	require.Len(t, speakers, 1)
	assert.Equal(t, "bob", speakers[0].ProposedBy.Username)
}

func TestEventService_ExportAttendees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.addEvent("open", f.host.ID, upcoming(), 10)
	_, err := f.events.SignUp(ctx, as(f.alice), "open")
	require.NoError(t, err)
	_, err = f.events.MarkAttendance(ctx, as(f.host), "open", []string{"alice"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.events.ExportAttendees(ctx, as(f.host), "open", &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, attendeeCSVHeader, rows[0])
	assert.Equal(t, []string{"alice", "", "alice@example.com", "", "true", "2026-03-01T12:00:00Z"}, rows[1])

	err = f.events.ExportAttendees(ctx, as(f.bob), "open", &bytes.Buffer{})
	assert.ErrorIs(t, err, status.ErrForbidden)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "cloud native"}, NormalizeTags([]string{"Go", "", "GO", "Cloud Native "}))
	assert.Empty(t, NormalizeTags(nil))
}
