package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"meetup-api/internal/status"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
)

var badRequestErrors = []error{
	status.ErrInvalid,
	status.ErrOwnerSignUp,
	status.ErrAlreadyRegistered,
	status.ErrRegistrationClosed,
	status.ErrInvalidStatus,
	status.ErrInvalidSessionType,
	status.ErrInvalidOrganizerAct,
}

// toAPIError maps service errors onto API responses.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *router.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return apis.NewBadRequestError("Invalid data.", verrs)
	}

	switch {
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewUnauthorizedError("Authentication credentials were not provided.", nil)
	case errors.Is(err, status.ErrHidden), errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Not found.", nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("You do not have permission to perform this action.", nil)
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return apis.NewBadRequestError(err.Error(), nil)
		}
	}

	slog.Error("Unhandled request error", "error", err)
	return apis.NewApiError(http.StatusInternalServerError, "Something went wrong while processing your request.", nil)
}

// actorOf returns the authenticated caller of the request.
func actorOf(e *core.RequestEvent) actor {
	if e.Auth == nil {
		return actor{}
	}
	return actor{ID: e.Auth.Id}
}
