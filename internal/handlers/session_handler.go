package handlers

import (
	"net/http"

	"meetup-api/internal/services"
	"meetup-api/models"

	"github.com/pocketbase/pocketbase/core"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List returns a handler listing the sessions of an event in one status bucket.
func (h *SessionHandler) List(sessionStatus models.SessionStatus) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		values := e.Request.URL.Query()
		page, err := parsePage(values)
		if err != nil {
			return toAPIError(err)
		}
		result, err := h.sessions.List(e.Request.Context(), e.Request.PathValue("slug"), sessionStatus, parseSessionQuery(values), page)
		if err != nil {
			return toAPIError(err)
		}
		return e.JSON(http.StatusOK, result)
	}
}

// Get returns a handler retrieving one session of an event in one status bucket.
func (h *SessionHandler) Get(sessionStatus models.SessionStatus) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		detail, err := h.sessions.Get(e.Request.Context(), e.Request.PathValue("slug"), e.Request.PathValue("session"), sessionStatus)
		if err != nil {
			return toAPIError(err)
		}
		return e.JSON(http.StatusOK, detail)
	}
}

func (h *SessionHandler) Propose(e *core.RequestEvent) error {
	var req sessionRequest
	if err := e.BindBody(&req); err != nil {
		return toAPIError(badBody(err))
	}
	detail, err := h.sessions.Propose(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"), req.toInput())
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusCreated, detail)
}

func (h *SessionHandler) UpdateProposal(e *core.RequestEvent) error {
	var req sessionRequest
	if err := e.BindBody(&req); err != nil {
		return toAPIError(badBody(err))
	}
	partial := e.Request.Method == http.MethodPatch
	detail, err := h.sessions.UpdateProposal(e.Request.Context(), actorOf(e),
		e.Request.PathValue("slug"), e.Request.PathValue("session"), req.toInput(), partial)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, detail)
}

func (h *SessionHandler) DeleteProposal(e *core.RequestEvent) error {
	err := h.sessions.DeleteProposal(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"), e.Request.PathValue("session"))
	if err != nil {
		return toAPIError(err)
	}
	return e.NoContent(http.StatusNoContent)
}
