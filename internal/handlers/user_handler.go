package handlers

import (
	"net/http"

	"meetup-api/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(e *core.RequestEvent) error {
	user, err := h.users.Me(e.Request.Context(), actorOf(e))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(e *core.RequestEvent) error {
	in, err := bindProfile(e)
	if err != nil {
		return toAPIError(err)
	}
	user, err := h.users.UpdateMe(e.Request.Context(), actorOf(e), in)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, user)
}
