package session

import (
	"errors"

	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Unwrap exposes the domain or store error the Error was mapped from.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func errSessionNotFound() *Error {
	return &Error{Status: 404, Code: "SESSION_NOT_FOUND", Message: "no active session"}
}

// mapError translates domain and store errors. Unknown errors pass through.
func mapError(err error) error {
	var ae *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, domain.ErrEmptyInput):
		return &Error{Status: 422, Code: "EMPTY_INPUT", Message: "input is empty", err: err}
	case errors.Is(err, domain.ErrNoParticipantsFound):
		return &Error{Status: 422, Code: "NO_PARTICIPANTS_FOUND", Message: "no participants found in input", err: err}
	case errors.Is(err, domain.ErrInvalidAmount):
		return &Error{Status: 422, Code: "INVALID_AMOUNT", Message: "amount must be between 0 and " + domain.MaxMoney.String(), Details: map[string]any{"amount": "must be >= 0 and <= " + domain.MaxMoney.String()}, err: err}
	case errors.Is(err, domain.ErrRequiresAmountEntry):
		return &Error{Status: 409, Code: "REQUIRES_AMOUNT_ENTRY", Message: "enter an amount before changing payment", err: err}
	case errors.Is(err, domain.ErrParticipantNotFound):
		return &Error{Status: 404, Code: "PARTICIPANT_NOT_FOUND", Message: "participant not found", err: err}
	case errors.Is(err, rosterstore.ErrSyncFailure):
		return &Error{Status: 503, Code: "SYNC_FAILURE", Message: "could not reach the shared roster", err: err}
	default:
		return err
	}
}

// Code returns the application error code of err, or "INTERNAL" when err is
// not an *Error.
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "INTERNAL"
}
