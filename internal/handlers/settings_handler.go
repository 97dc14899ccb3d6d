package handlers

import (
	"fmt"
	"net/http"

	"meetup-api/internal/policy"
	"meetup-api/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

// SettingsHandler serves the staff-only endpoints of an event. A caller
// without the right to manage the event gets a 404, whatever the body.
type SettingsHandler struct {
	events   *services.EventService
	sessions *services.SessionService
}

func NewSettingsHandler(events *services.EventService, sessions *services.SessionService) *SettingsHandler {
	return &SettingsHandler{events: events, sessions: sessions}
}

type validatable interface {
	Validate() error
}

// bindSetting checks the caller's capability on the event before reading the body.
func (h *SettingsHandler) bindSetting(e *core.RequestEvent, capability policy.Capability, req validatable) error {
	if _, err := h.events.Authorize(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"), capability); err != nil {
		return toAPIError(err)
	}
	if err := e.BindBody(req); err != nil {
		return toAPIError(badBody(err))
	}
	if err := req.Validate(); err != nil {
		return toAPIError(err)
	}
	return nil
}

// SessionStatus - {"status": "Accepted"}
func (h *SettingsHandler) SessionStatus(e *core.RequestEvent) error {
	var req sessionSettingRequest
	if err := h.bindSetting(e, policy.ReviewSessions, &req); err != nil {
		return err
	}

	session, err := h.sessions.SetStatus(e.Request.Context(), actorOf(e),
		e.Request.PathValue("slug"), e.Request.PathValue("session"), req.Status)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{
		"detail": fmt.Sprintf("%s has been %s", session.Title, session.Status),
	})
}

// Attendance - {"list_of_username": ["gopher"]}
func (h *SettingsHandler) Attendance(e *core.RequestEvent) error {
	var req attendeeSettingRequest
	if err := h.bindSetting(e, policy.MarkAttendance, &req); err != nil {
		return err
	}

	marked, err := h.events.MarkAttendance(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"), req.Usernames)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]int{"marked": marked})
}

// Organizers - {"list_of_username": ["gopher"], "action": "Add"}
func (h *SettingsHandler) Organizers(e *core.RequestEvent) error {
	var req organizerSettingRequest
	if err := h.bindSetting(e, policy.ManageOrganizers, &req); err != nil {
		return err
	}

	err := h.events.ManageOrganizers(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"), req.Usernames, req.Action)
	if err != nil {
		return toAPIError(err)
	}
	return e.NoContent(http.StatusOK)
}
