package state

import "fmt"

// ErrInvalidRepoState indicates that reconstitution could not recover a
// trustworthy state from base_dir, for any reason: the caller's only
// correct response is to start a fresh session.
var ErrInvalidRepoState = fmt.Errorf("invalid repository state")

// ErrInvalidDelta indicates that Apply was called with a snapshot that does
// not directly extend the current state, or while a delta from a prior
// Apply is still pending a Save.
var ErrInvalidDelta = fmt.Errorf("invalid delta")

func errInvalidRepoState(reason string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrInvalidRepoState, reason)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidRepoState, reason, cause)
}

func errInvalidDelta(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDelta, reason)
}
