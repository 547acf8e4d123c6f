package ledger

import "errors"

var (
	ErrIntervalNotFound = errors.New("clock interval not found")
	// ErrDuplicateKey is returned when (employee_id, clock_in) already exists.
	ErrDuplicateKey = errors.New("clock interval already recorded")
	// ErrOpenIntervalConflict is returned when the employee already has an open interval.
	ErrOpenIntervalConflict = errors.New("employee already has an open clock interval")
	ErrLockContention       = errors.New("reconciliation already running")
	ErrLockNotHeld          = errors.New("lock is not held by this owner")
	ErrTransientFetch       = errors.New("transient shift source failure")
)
