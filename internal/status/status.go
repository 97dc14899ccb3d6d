package status

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")
	ErrInvalid      = errors.New("invalid input")

	// ErrHidden is a permission failure reported to the client as a missing resource.
	ErrHidden = errors.New("resource not found")

	ErrOwnerSignUp         = errors.New("sign up: host cannot attend own event")
	ErrAlreadyRegistered   = errors.New("sign up: already registered")
	ErrRegistrationClosed  = errors.New("sign up: registration time is finished")
	ErrInvalidStatus       = errors.New("session: invalid status")
	ErrInvalidSessionType  = errors.New("session: invalid session type")
	ErrInvalidOrganizerAct = errors.New("organizers: invalid action")
)
