package lively

import (
	"errors"
	"testing"
)

func TestLifeState_String(t *testing.T) {
	cases := map[LifeState]string{
		StateDestroyed:   "destroyed",
		StateInitialized: "initialized",
		StateCreated:     "created",
		StateStarted:     "started",
		StateResumed:     "resumed",
		LifeState(999):   "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestLifeState_Ordering(t *testing.T) {
	// Destroyed sits below everything; the rest ascend.
	if !StateInitialized.IsAtLeast(StateDestroyed) {
		t.Error("expected initialized to be at least destroyed")
	}
	if !StateResumed.IsAtLeast(StateStarted) {
		t.Error("expected resumed to be at least started")
	}
	if StateCreated.IsAtLeast(StateStarted) {
		t.Error("expected created to be below started")
	}
	if StateDestroyed.IsAtLeast(StateInitialized) {
		t.Error("expected destroyed to be below initialized")
	}
}

func TestLifecycleEvent_String(t *testing.T) {
	cases := map[LifecycleEvent]string{
		EventCreate:         "create",
		EventStart:          "start",
		EventResume:         "resume",
		EventPause:          "pause",
		EventStop:           "stop",
		EventDestroy:        "destroy",
		EventAny:            "any",
		LifecycleEvent(999): "unknown",
	}
	for event, want := range cases {
		if got := event.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestStateAfter(t *testing.T) {
	cases := map[LifecycleEvent]LifeState{
		EventCreate:  StateCreated,
		EventStart:   StateStarted,
		EventResume:  StateResumed,
		EventPause:   StateStarted,
		EventStop:    StateCreated,
		EventDestroy: StateDestroyed,
	}
	for event, want := range cases {
		if got := StateAfter(event); got != want {
			t.Errorf("StateAfter(%s): expected %s, got %s", event, want, got)
		}
	}
}

func TestStateAfter_EventAnyPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", r)
		}
	}()
	StateAfter(EventAny)
}

func TestUpEventFrom(t *testing.T) {
	cases := map[LifeState]LifecycleEvent{
		StateInitialized: EventCreate,
		StateDestroyed:   EventCreate,
		StateCreated:     EventStart,
		StateStarted:     EventResume,
	}
	for state, want := range cases {
		if got := upEventFrom(state); got != want {
			t.Errorf("upEventFrom(%s): expected %s, got %s", state, want, got)
		}
	}
}

func TestUpEventFrom_ResumedPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", r)
		}
	}()
	upEventFrom(StateResumed)
}

func TestDownEventFrom(t *testing.T) {
	cases := map[LifeState]LifecycleEvent{
		StateCreated: EventDestroy,
		StateStarted: EventStop,
		StateResumed: EventPause,
	}
	for state, want := range cases {
		if got := downEventFrom(state); got != want {
			t.Errorf("downEventFrom(%s): expected %s, got %s", state, want, got)
		}
	}
}

func TestDownEventFrom_InitializedPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", r)
		}
	}()
	downEventFrom(StateInitialized)
}

func TestDownEventFrom_DestroyedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	downEventFrom(StateDestroyed)
}
