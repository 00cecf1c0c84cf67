package service

import "errors"

// Sentinel errors for the service layer. Handlers translate these to
// HTTP status codes with errors.Is; everything else is a 500.
var (
	// ErrValidation marks malformed input; nothing was written
	ErrValidation = errors.New("validation failed")

	// ErrAccountNotFound and ErrAccountInactive are surfaced before any
	// ledger write
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")

	// ErrPersistence means the ledger append failed; the submission did
	// not happen and is safe to retry (each retry appends a new record)
	ErrPersistence = errors.New("score submission failed")

	// ErrPartialFailure means the ledger append succeeded but the
	// ranking index could not be updated. The orchestrator never
	// retries the whole submission (that would double-count in the
	// ledger); the game is marked for reconciliation instead.
	ErrPartialFailure = errors.New("ranking update pending reconciliation")

	// ErrNotRanked means the user has no entry in a game's index
	ErrNotRanked = errors.New("user not ranked yet")

	ErrDuplicateAccount   = errors.New("an account with these credentials already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCodeInvalid        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("code has expired")
)
