package domain

import "errors"

var (
	// ErrEmptyInput indicates the pasted text had no non-blank lines.
	ErrEmptyInput = errors.New("empty input")

	// ErrNoParticipantsFound indicates no line produced a participant.
	ErrNoParticipantsFound = errors.New("no participants found")

	// ErrRequiresAmountEntry is returned by TogglePayment for an unpaid drop-in or
	// converting member. It is a redirect signal: the caller should ask for an amount.
	ErrRequiresAmountEntry = errors.New("amount entry required")

	// ErrInvalidAmount indicates a negative or non-finite amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrParticipantNotFound indicates the roster has no participant with the given ID.
	ErrParticipantNotFound = errors.New("participant not found")

	ErrInvalidRoster = errors.New("invalid roster")
)
