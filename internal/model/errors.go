package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrIdentityNotFound = errors.New("identity not found")

	// Session lookup errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrGameRecordNotFound = errors.New("game record not found")

	// Join errors
	ErrSeatTaken        = errors.New("seat is already taken")
	ErrAlreadySeated    = errors.New("already seated in this session")
	ErrAlreadyObserving = errors.New("already observing this session")
	ErrNotInSession     = errors.New("not a participant of this session")
	ErrCodeExhausted    = errors.New("could not allocate a unique session code")

	// Play errors
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionComplete  = errors.New("session is already complete")
	ErrNotSeated        = errors.New("not seated at this game")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrIllegalMove      = errors.New("illegal move")

	// Abandonment errors
	ErrSeatNotAbandoned = errors.New("seat has not been abandoned")
	ErrClaimTooEarly    = errors.New("abandonment threshold has not elapsed")

	// Identity reconciliation errors
	ErrIdentityMismatch = errors.New("identity does not match the occupied slot")

	// Persistence errors
	ErrPersistenceFailed = errors.New("failed to persist completed session")
)

// ErrorKind groups errors into the wire-level taxonomy shared by the
// HTTP and websocket surfaces
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindInvalidTransition
	KindPersistenceFailure
)

// Kind classifies an error into its taxonomy group
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrIdentityNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrGameRecordNotFound),
		errors.Is(err, ErrNotInSession):
		return KindNotFound
	case errors.Is(err, ErrSeatTaken),
		errors.Is(err, ErrAlreadySeated),
		errors.Is(err, ErrAlreadyObserving),
		errors.Is(err, ErrCodeExhausted):
		return KindConflict
	case errors.Is(err, ErrNotSeated),
		errors.Is(err, ErrIdentityMismatch):
		return KindUnauthorized
	case errors.Is(err, ErrSessionNotActive),
		errors.Is(err, ErrSessionComplete),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrIllegalMove),
		errors.Is(err, ErrSeatNotAbandoned),
		errors.Is(err, ErrClaimTooEarly):
		return KindInvalidTransition
	case errors.Is(err, ErrPersistenceFailed):
		return KindPersistenceFailure
	default:
		return KindInternal
	}
}
