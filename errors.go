package lively

import "errors"

// Sentinel errors carried by panics raised on caller misuse. Both conditions
// are programming errors, not runtime failures, so they fail fast rather
// than returning. Hosts that must survive a misbehaving component can
// recover and match with errors.Is.
var (
	// ErrObserverConflict reports an observer identity registered a second
	// time under an incompatible owner or source.
	ErrObserverConflict = errors.New("observer already registered with a different owner")

	// ErrInvalidTransition reports a lifecycle step that does not exist,
	// such as moving down from Initialized or up from Resumed. It indicates
	// a violated stepping invariant, never a recoverable condition.
	ErrInvalidTransition = errors.New("no such lifecycle transition")
)
