package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"
)

type OrganizerAction string

const (
	OrganizerAdd    OrganizerAction = "Add"
	OrganizerRemove OrganizerAction = "Remove"
)

func ParseOrganizerAction(s string) (OrganizerAction, error) {
	switch OrganizerAction(s) {
	case OrganizerAdd, OrganizerRemove:
		return OrganizerAction(s), nil
	}
	return "", fmt.Errorf("%w: %q is not Add or Remove", status.ErrInvalidOrganizerAct, s)
}

// SignUp registers actor as an attendee of the event.
func (s *EventService) SignUp(ctx context.Context, actor policy.Actor, slug string) (*models.Attendee, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	event, err := s.event(ctx, slug)
	if err != nil {
		return nil, err
	}

	if event.IsHost(actor.ID) {
		s.tracker.TrackSignUp("owner")
		return nil, fmt.Errorf("%w: you are the owner of %s", status.ErrOwnerSignUp, event.Title)
	}

	_, err = s.repo.FindAttendee(ctx, event.ID, actor.ID)
	if err == nil {
		s.tracker.TrackSignUp("duplicate")
		return nil, fmt.Errorf("%w: you already attended %s", status.ErrAlreadyRegistered, event.Title)
	}
	if !errors.Is(err, status.ErrNotFound) {
		return nil, err
	}

	if event.EventDate.Before(s.now()) {
		s.tracker.TrackSignUp("closed")
		return nil, status.ErrRegistrationClosed
	}

	attendee := &models.Attendee{UserID: actor.ID, EventID: event.ID}
	if err := s.repo.CreateAttendee(ctx, attendee); err != nil {
		return nil, err
	}
	s.tracker.TrackSignUp("created")
	s.invalidate(ctx, event.ID)

	count, err := s.repo.CountAttendees(ctx, event.ID)
	if err != nil {
		slog.Warn("Failed to count attendees", "event_id", event.ID, "error", err)
		return attendee, nil
	}
	username := ""
	if user, err := s.repo.FindUserByID(ctx, actor.ID); err == nil {
		username = user.Username
	}
	s.notifier.AttendeeJoined(ctx, event, username, event.TotalGuest-count)

	return attendee, nil
}

// Attendees lists the public profiles of everyone registered to the event.
func (s *EventService) Attendees(ctx context.Context, slug string) ([]models.AttendeeView, error) {
	event, err := s.event(ctx, slug)
	if err != nil {
		return nil, err
	}
	attendees, err := s.repo.ListAttendees(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(attendees))
	for _, a := range attendees {
		ids = append(ids, a.UserID)
	}
	users, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.AttendeeView, 0, len(attendees))
	for _, a := range attendees {
		views = append(views, models.AttendeeView{User: users[a.UserID].Profile()})
	}
	return views, nil
}

// Speakers lists the proposers of the accepted sessions of the event.
func (s *EventService) Speakers(ctx context.Context, slug string) ([]models.SpeakerView, error) {
	event, err := s.event(ctx, slug)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListSessions(ctx, models.SessionQuery{
		EventID:  event.ID,
		Status:   models.StatusAccepted,
		Ordering: "title",
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ProposerID)
	}
	users, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.SpeakerView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, models.SpeakerView{ProposedBy: users[session.ProposerID].Profile()})
	}
	return views, nil
}

// MarkAttendance flags the registered users among usernames as attended.
// Every username must exist; users that never signed up are skipped.
func (s *EventService) MarkAttendance(ctx context.Context, actor policy.Actor, slug string, usernames []string) (int, error) {
	event, err := s.Authorize(ctx, actor, slug, policy.MarkAttendance)
	if err != nil {
		return 0, err
	}
	if usernames == nil {
		return 0, fmt.Errorf("%w: list_of_username is required", status.ErrInvalid)
	}

	users, err := s.resolveUsernames(ctx, usernames)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, user := range users {
		attendee, err := s.repo.FindAttendee(ctx, event.ID, user.ID)
		if errors.Is(err, status.ErrNotFound) {
			continue
		}
		if err != nil {
			return marked, err
		}
		attendee.MarkAttended()
		if err := s.repo.UpdateAttendee(ctx, attendee); err != nil {
			return marked, err
		}
		marked++
	}

	s.tracker.TrackAttendance(marked)
	s.invalidate(ctx, event.ID)
	slog.Info("Attendance marked", "event_id", event.ID, "marked", marked, "requested", len(usernames))
	return marked, nil
}

// ManageOrganizers adds or removes co-organizers of an upcoming event.
func (s *EventService) ManageOrganizers(ctx context.Context, actor policy.Actor, slug string, usernames []string, action string) error {
	event, err := s.Authorize(ctx, actor, slug, policy.ManageOrganizers)
	if err != nil {
		return err
	}
	if usernames == nil {
		return fmt.Errorf("%w: list_of_username is required", status.ErrInvalid)
	}
	act, err := ParseOrganizerAction(action)
	if err != nil {
		return err
	}

	users, err := s.resolveUsernames(ctx, usernames)
	if err != nil {
		return err
	}

	for _, user := range users {
		switch act {
		case OrganizerAdd:
			event.AddOrganizer(user.ID)
		case OrganizerRemove:
			event.RemoveOrganizer(user.ID)
		}
	}
	if err := s.repo.SetOrganizers(ctx, event.ID, event.OrganizerIDs); err != nil {
		return err
	}

	verb := "added"
	if act == OrganizerRemove {
		verb = "removed"
	}
	for _, user := range users {
		s.notifier.OrganizersChanged(ctx, event, user.ID, verb)
	}
	return nil
}

// resolveUsernames looks up every username, failing on the first unknown one.
func (s *EventService) resolveUsernames(ctx context.Context, usernames []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(usernames))
	for _, username := range unique(usernames) {
		user, err := s.repo.FindUserByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}
