package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"meetup-api/internal/services"
	"meetup-api/models"

	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// ListEvents - upcoming events, filtered and paginated
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	values := e.Request.URL.Query()
	page, err := parsePage(values)
	if err != nil {
		return toAPIError(err)
	}
	q, err := parseEventQuery(values)
	if err != nil {
		return toAPIError(err)
	}

	result, err := h.events.ListUpcoming(e.Request.Context(), q, page)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// ListOldEvents - events whose date has passed
func (h *EventHandler) ListOldEvents(e *core.RequestEvent) error {
	events, err := h.events.ListPast(e.Request.Context())
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, events)
}

func (h *EventHandler) ListTags(e *core.RequestEvent) error {
	tags, err := h.events.Tags(e.Request.Context())
	if err != nil {
		return toAPIError(err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return e.JSON(http.StatusOK, tags)
}

func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	in, err := bindEvent(e)
	if err != nil {
		return toAPIError(err)
	}
	event, err := h.events.Create(e.Request.Context(), actorOf(e), in)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	detail, err := h.events.Get(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, detail)
}

// UpdateEvent serves both PUT (full) and PATCH (partial) updates.
func (h *EventHandler) UpdateEvent(e *core.RequestEvent) error {
	in, err := bindEvent(e)
	if err != nil {
		return toAPIError(err)
	}
	partial := e.Request.Method == http.MethodPatch
	event, err := h.events.Update(e.Request.Context(), actorOf(e), e.Request.PathValue("slug"), in, partial)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(e *core.RequestEvent) error {
	if err := h.events.Delete(e.Request.Context(), actorOf(e), e.Request.PathValue("slug")); err != nil {
		return toAPIError(err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *EventHandler) SignUp(e *core.RequestEvent) error {
	if _, err := h.events.SignUp(e.Request.Context(), actorOf(e), e.Request.PathValue("slug")); err != nil {
		return toAPIError(err)
	}
	return e.NoContent(http.StatusCreated)
}

func (h *EventHandler) ListAttendees(e *core.RequestEvent) error {
	attendees, err := h.events.Attendees(e.Request.Context(), e.Request.PathValue("slug"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, attendees)
}

func (h *EventHandler) ListSpeakers(e *core.RequestEvent) error {
	speakers, err := h.events.Speakers(e.Request.Context(), e.Request.PathValue("slug"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, speakers)
}

// ExportAttendees - attendee roster as a CSV download, staff only
func (h *EventHandler) ExportAttendees(e *core.RequestEvent) error {
	slug := e.Request.PathValue("slug")

	// render first so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.events.ExportAttendees(e.Request.Context(), actorOf(e), slug, &buf); err != nil {
		return toAPIError(err)
	}

	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-attendees.csv"`, slug))
	return e.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
