package model

import "errors"

// membership and trust
var (
	ErrNotTrusted                = errors.New("caller is not a trusted owner")
	ErrOwnerNotFound             = errors.New("owner not found")
	ErrAlreadyOwner              = errors.New("already an owner")
	ErrInvalidPrincipal          = errors.New("invalid principal")
	ErrIneligiblePrincipal       = errors.New("principal is not eligible for membership")
	ErrNoSupporters              = errors.New("owner needs at least one supporter")
	ErrAlreadySupporting         = errors.New("already supporting the owner")
	ErrNotSupporter              = errors.New("not a supporter of the owner")
	ErrInsufficientTrustedOwners = errors.New("not enough trusted owners would remain")
	ErrInvalidQuorum             = errors.New("invalid quorum")
	ErrNotEnoughOwners           = errors.New("not enough initial owners")
)

// transactions
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyExecuted     = errors.New("transaction already executed")
	ErrAlreadyRevoked      = errors.New("transaction already revoked")
	ErrAlreadyConfirmed    = errors.New("transaction already confirmed")
	ErrQuorumNotReached    = errors.New("quorum not reached")
	ErrExecutionFailed     = errors.New("transaction execution failed")
)

// persistence
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotCorrupt  = errors.New("snapshot content does not match its hash")
	ErrPersistence      = errors.New("state could not be persisted")
	ErrNoEventLog       = errors.New("no event log configured")
)
