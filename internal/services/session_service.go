package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"meetup-api/config"
	"meetup-api/internal/policy"
	"meetup-api/internal/status"
	"meetup-api/models"
	"meetup-api/utils"
)

type SessionInput struct {
	Title       *string
	Description *string
	Type        *string
}

type SessionService struct {
	base
}

func NewSessionService(repo Repository, statsCache StatsCache, notifier Notifier, tracker Tracker, cfg *config.Config) *SessionService {
	return &SessionService{base: newBase(repo, statsCache, notifier, tracker, cfg)}
}

// List returns a page of the event's sessions in the given status.
func (s *SessionService) List(ctx context.Context, eventSlug string, sessionStatus models.SessionStatus, q models.SessionQuery, page int) (*models.Page[models.SessionListItem], error) {
	event, err := s.event(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	if q.Ordering == "" {
		q.Ordering = "title"
	}
	if !models.ValidSessionOrdering(q.Ordering) {
		return nil, fmt.Errorf("%w: cannot order by %q", status.ErrInvalid, q.Ordering)
	}
	limit, offset, err := s.window(page)
	if err != nil {
		return nil, err
	}
	q.EventID, q.Status, q.Limit, q.Offset = event.ID, sessionStatus, limit, offset

	sessions, err := s.repo.ListSessions(ctx, q)
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

	items := make([]models.SessionListItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, models.SessionListItem{
			Title:      session.Title,
			Type:       session.Type,
			Slug:       session.Slug,
			ProposedBy: users[session.ProposerID].Profile(),
		})
	}
	return paginate(page, s.pageSize, items)
}

// Get returns a session of the event, provided it is in the given status.
func (s *SessionService) Get(ctx context.Context, eventSlug, slug string, sessionStatus models.SessionStatus) (*models.SessionDetail, error) {
	_, session, err := s.find(ctx, eventSlug, slug, sessionStatus)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, session)
}

// Propose submits a Draft session to the event on behalf of actor.
func (s *SessionService) Propose(ctx context.Context, actor policy.Actor, eventSlug string, in SessionInput) (*models.SessionDetail, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	event, err := s.event(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	if in.Title == nil {
		return nil, fmt.Errorf("%w: title is required", status.ErrInvalid)
	}
	if in.Type == nil {
		return nil, fmt.Errorf("%w: session_type is required", status.ErrInvalidSessionType)
	}

	session := &models.Session{
		EventID:    event.ID,
		ProposerID: actor.ID,
		Status:     models.StatusDraft,
	}
	if err := applySessionInput(session, in); err != nil {
		return nil, err
	}
	session.Slug = utils.UniqueSlug(session.Title, s.slugSize)

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	s.invalidate(ctx, event.ID)
	slog.Info("Session proposed", "event_id", event.ID, "session", session.Slug, "proposer", actor.ID)
	return s.detail(ctx, session)
}

// UpdateProposal edits a Draft session. Only its proposer may change it.
func (s *SessionService) UpdateProposal(ctx context.Context, actor policy.Actor, eventSlug, slug string, in SessionInput, partial bool) (*models.SessionDetail, error) {
	if !actor.Authenticated() {
		return nil, status.ErrUnauthorized
	}
	event, session, err := s.find(ctx, eventSlug, slug, models.StatusDraft)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditProposal(actor, session) {
		return nil, fmt.Errorf("%w: only the proposer can edit this session", status.ErrForbidden)
	}
	if !partial && (in.Title == nil || in.Type == nil) {
		return nil, fmt.Errorf("%w: title and session_type are required", status.ErrInvalid)
	}
	if err := applySessionInput(session, in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	s.invalidate(ctx, event.ID)
	return s.detail(ctx, session)
}

// DeleteProposal withdraws a Draft session. Only its proposer may delete it.
func (s *SessionService) DeleteProposal(ctx context.Context, actor policy.Actor, eventSlug, slug string) error {
	if !actor.Authenticated() {
		return status.ErrUnauthorized
	}
	event, session, err := s.find(ctx, eventSlug, slug, models.StatusDraft)
	if err != nil {
		return err
	}
	if !policy.CanEditProposal(actor, session) {
		return fmt.Errorf("%w: only the proposer can delete this session", status.ErrForbidden)
	}
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		return err
	}
	s.invalidate(ctx, event.ID)
	return nil
}

// SetStatus lets the host of an upcoming event review one of its sessions.
func (s *SessionService) SetStatus(ctx context.Context, actor policy.Actor, eventSlug, slug, value string) (*models.Session, error) {
	event, err := s.Authorize(ctx, actor, eventSlug, policy.ReviewSessions)
	if err != nil {
		return nil, err
	}

	next, err := models.ParseSessionStatus(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrInvalidStatus, err)
	}

	session, err := s.repo.FindSession(ctx, event.ID, slug)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", slug, err)
	}
	if err := session.TransitionTo(next); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrInvalidStatus, err)
	}
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	s.tracker.TrackSessionStatus(string(next))
	s.invalidate(ctx, event.ID)
	s.notifier.SessionStatusChanged(ctx, event, session)
	slog.Info("Session reviewed", "event_id", event.ID, "session", session.Slug, "status", next)
	return session, nil
}

func (s *SessionService) find(ctx context.Context, eventSlug, slug string, sessionStatus models.SessionStatus) (*models.Event, *models.Session, error) {
	event, err := s.event(ctx, eventSlug)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.repo.FindSession(ctx, event.ID, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("session %q: %w", slug, err)
	}
	if session.Status != sessionStatus {
		return nil, nil, fmt.Errorf("session %q: %w", slug, status.ErrNotFound)
	}
	return event, session, nil
}

func (s *SessionService) detail(ctx context.Context, session *models.Session) (*models.SessionDetail, error) {
	users, err := s.profiles(ctx, []string{session.ProposerID})
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{
		Title:       session.Title,
		Description: session.Description,
		Type:        session.Type,
		Status:      session.Status,
		Slug:        session.Slug,
		ProposedBy:  users[session.ProposerID].Profile(),
	}, nil
}

func applySessionInput(session *models.Session, in SessionInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return fmt.Errorf("%w: title may not be blank", status.ErrInvalid)
		}
		session.Title = title
	}
	if in.Description != nil {
		session.Description = *in.Description
	}
	if in.Type != nil {
		sessionType, err := models.ParseSessionType(*in.Type)
		if err != nil {
			return fmt.Errorf("%w: %v", status.ErrInvalidSessionType, err)
		}
		session.Type = sessionType
	}
	return nil
}
