package lively

import "fmt"

// LifeState represents a position in the linear lifecycle progression of an
// Owner. States are ordered; use IsAtLeast for comparisons.
//
// StateDestroyed sits below every other state. It is terminal and reachable
// only via EventDestroy.
type LifeState int32

const (
	// StateDestroyed is the terminal state. Once an owner is destroyed its
	// lifecycle never moves again and no further values are delivered.
	StateDestroyed LifeState = iota

	// StateInitialized is the state of a freshly constructed owner that has
	// not yet received any lifecycle event.
	StateInitialized

	// StateCreated is reached after EventCreate, or after EventStop on the
	// way back down.
	StateCreated

	// StateStarted is reached after EventStart, or after EventPause on the
	// way back down. Observers bound to an owner are active at StateStarted
	// and above.
	StateStarted

	// StateResumed is the topmost state.
	StateResumed
)

// String returns the string representation of the state.
func (s LifeState) String() string {
	switch s {
	case StateDestroyed:
		return "destroyed"
	case StateInitialized:
		return "initialized"
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// IsAtLeast reports whether the state is at or above the given state in the
// lifecycle ordering.
func (s LifeState) IsAtLeast(other LifeState) bool {
	return s >= other
}

// minState returns the lower of two states.
func minState(a, b LifeState) LifeState {
	if b < a {
		return b
	}
	return a
}

// LifecycleEvent is a single-step lifecycle transition. Every event except
// EventAny maps to exactly one resulting state via StateAfter.
type LifecycleEvent int32

const (
	// EventCreate moves Initialized up to Created. Observers tracked at
	// Destroyed also re-enter the ladder through EventCreate.
	EventCreate LifecycleEvent = iota

	// EventStart moves Created up to Started.
	EventStart

	// EventResume moves Started up to Resumed.
	EventResume

	// EventPause moves Resumed down to Started.
	EventPause

	// EventStop moves Started down to Created.
	EventStop

	// EventDestroy moves Created down to Destroyed.
	EventDestroy

	// EventAny matches every event when used as a filter with OnEvent.
	// It is never dispatched and has no resulting state.
	EventAny
)

// String returns the string representation of the event.
func (e LifecycleEvent) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventStart:
		return "start"
	case EventResume:
		return "resume"
	case EventPause:
		return "pause"
	case EventStop:
		return "stop"
	case EventDestroy:
		return "destroy"
	case EventAny:
		return "any"
	default:
		return "unknown"
	}
}

// StateAfter returns the state the lifecycle is in once the event has been
// dispatched. It panics for EventAny, which is a filter, not a transition.
func StateAfter(event LifecycleEvent) LifeState {
	switch event {
	case EventCreate, EventStop:
		return StateCreated
	case EventStart, EventPause:
		return StateStarted
	case EventResume:
		return StateResumed
	case EventDestroy:
		return StateDestroyed
	default:
		panic(fmt.Errorf("lively: %w: event %s has no resulting state", ErrInvalidTransition, event))
	}
}

// downEventFrom returns the event that moves an observer one step down from
// the given state. Initialized and Destroyed have no step down; reaching
// this case means the stepping invariant was violated.
func downEventFrom(state LifeState) LifecycleEvent {
	switch state {
	case StateCreated:
		return EventDestroy
	case StateStarted:
		return EventStop
	case StateResumed:
		return EventPause
	default:
		panic(fmt.Errorf("lively: %w: no event moves down from %s", ErrInvalidTransition, state))
	}
}

// upEventFrom returns the event that moves an observer one step up from the
// given state. Resumed has no step up.
func upEventFrom(state LifeState) LifecycleEvent {
	switch state {
	case StateInitialized, StateDestroyed:
		return EventCreate
	case StateCreated:
		return EventStart
	case StateStarted:
		return EventResume
	default:
		panic(fmt.Errorf("lively: %w: no event moves up from %s", ErrInvalidTransition, state))
	}
}
