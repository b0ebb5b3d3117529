package lively

import (
	"testing"
)

// eventRecorder collects every event dispatched to it.
type eventRecorder struct {
	events []LifecycleEvent
}

func (r *eventRecorder) OnStateChanged(_ Owner, event LifecycleEvent) {
	r.events = append(r.events, event)
}

// namedRecorder appends name:event entries to a shared log, for tests that
// assert cross-observer ordering.
type namedRecorder struct {
	name string
	log  *[]string
}

func (r *namedRecorder) OnStateChanged(_ Owner, event LifecycleEvent) {
	*r.log = append(*r.log, r.name+":"+event.String())
}

// reentrantObserver runs a hook on a chosen event, before recording it.
type reentrantObserver struct {
	on     LifecycleEvent
	hook   func()
	events []LifecycleEvent
}

func (r *reentrantObserver) OnStateChanged(_ Owner, event LifecycleEvent) {
	if event == r.on && r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	r.events = append(r.events, event)
}

func sameEvents(got, want []LifecycleEvent) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestRegistry_InitialState(t *testing.T) {
	owner := NewSimpleOwner()
	if s := owner.Lifecycle().State(); s != StateInitialized {
		t.Errorf("expected initialized, got %s", s)
	}
	if n := owner.Lifecycle().ObserverCount(); n != 0 {
		t.Errorf("expected 0 observers, got %d", n)
	}
}

func TestRegistry_ForwardEventSequence(t *testing.T) {
	owner := NewSimpleOwner()
	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)

	owner.Lifecycle().HandleEvent(EventCreate)
	owner.Lifecycle().HandleEvent(EventStart)
	owner.Lifecycle().HandleEvent(EventResume)

	want := []LifecycleEvent{EventCreate, EventStart, EventResume}
	if !sameEvents(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
	if s := owner.Lifecycle().State(); s != StateResumed {
		t.Errorf("expected resumed, got %s", s)
	}
}

func TestRegistry_MarkStateWalksIntermediateSteps(t *testing.T) {
	owner := NewSimpleOwner()
	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)

	owner.Lifecycle().MarkState(StateResumed)

	want := []LifecycleEvent{EventCreate, EventStart, EventResume}
	if !sameEvents(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestRegistry_BackwardSync(t *testing.T) {
	owner := NewSimpleOwner()
	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)
	owner.Lifecycle().MarkState(StateResumed)

	owner.Lifecycle().MarkState(StateCreated)

	want := []LifecycleEvent{
		EventCreate, EventStart, EventResume,
		EventPause, EventStop,
	}
	if !sameEvents(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
	if s := owner.Lifecycle().State(); s != StateCreated {
		t.Errorf("expected created, got %s", s)
	}
}

func TestRegistry_SameStateIsNoop(t *testing.T) {
	owner := NewSimpleOwner()
	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)
	owner.Lifecycle().MarkState(StateStarted)
	n := len(rec.events)

	owner.Lifecycle().MarkState(StateStarted)

	if len(rec.events) != n {
		t.Errorf("expected no events on same-state set, got %v", rec.events[n:])
	}
}

func TestRegistry_AddObserverCatchesUp(t *testing.T) {
	owner := NewSimpleOwner()
	owner.Lifecycle().MarkState(StateResumed)

	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)

	want := []LifecycleEvent{EventCreate, EventStart, EventResume}
	if !sameEvents(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestRegistry_AddObserverTwiceIsNoop(t *testing.T) {
	owner := NewSimpleOwner()
	owner.Lifecycle().MarkState(StateStarted)

	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)
	n := len(rec.events)
	owner.Lifecycle().AddObserver(rec)

	if len(rec.events) != n {
		t.Errorf("expected duplicate add to dispatch nothing, got %v", rec.events[n:])
	}
	if c := owner.Lifecycle().ObserverCount(); c != 1 {
		t.Errorf("expected 1 observer, got %d", c)
	}
}

func TestRegistry_AddObserverAfterDestroyReceivesNothing(t *testing.T) {
	owner := NewSimpleOwner()
	owner.Lifecycle().HandleEvent(EventCreate)
	owner.Lifecycle().HandleEvent(EventDestroy)

	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)

	if len(rec.events) != 0 {
		t.Errorf("expected no events after destroy, got %v", rec.events)
	}
	if c := owner.Lifecycle().ObserverCount(); c != 1 {
		t.Errorf("expected observer to remain registered, got %d", c)
	}
}

func TestRegistry_RemoveObserverDispatchesNoTeardown(t *testing.T) {
	owner := NewSimpleOwner()
	rec := &eventRecorder{}
	owner.Lifecycle().AddObserver(rec)
	owner.Lifecycle().MarkState(StateResumed)
	n := len(rec.events)

	owner.Lifecycle().RemoveObserver(rec)
	owner.Lifecycle().MarkState(StateCreated)

	if len(rec.events) != n {
		t.Errorf("expected no events after removal, got %v", rec.events[n:])
	}
	if c := owner.Lifecycle().ObserverCount(); c != 0 {
		t.Errorf("expected 0 observers, got %d", c)
	}
}

func TestRegistry_ForwardPassVisitsEldestFirst(t *testing.T) {
	owner := NewSimpleOwner()
	var log []string
	owner.Lifecycle().AddObserver(&namedRecorder{name: "a", log: &log})
	owner.Lifecycle().AddObserver(&namedRecorder{name: "b", log: &log})

	owner.Lifecycle().HandleEvent(EventCreate)

	want := []string{"a:create", "b:create"}
	if len(log) != 2 || log[0] != want[0] || log[1] != want[1] {
		t.Errorf("expected %v, got %v", want, log)
	}
}

func TestRegistry_BackwardPassVisitsNewestFirst(t *testing.T) {
	owner := NewSimpleOwner()
	var log []string
	owner.Lifecycle().AddObserver(&namedRecorder{name: "a", log: &log})
	owner.Lifecycle().AddObserver(&namedRecorder{name: "b", log: &log})
	owner.Lifecycle().MarkState(StateResumed)
	log = nil

	owner.Lifecycle().HandleEvent(EventPause)

	want := []string{"b:pause", "a:pause"}
	if len(log) != 2 || log[0] != want[0] || log[1] != want[1] {
		t.Errorf("expected %v, got %v", want, log)
	}
}

func TestRegistry_ReentrantRemoveSkipsUnvisitedObserver(t *testing.T) {
	owner := NewSimpleOwner()
	victim := &eventRecorder{}
	remover := &reentrantObserver{on: EventCreate}
	remover.hook = func() {
		owner.Lifecycle().RemoveObserver(victim)
	}
	owner.Lifecycle().AddObserver(remover)
	owner.Lifecycle().AddObserver(victim)

	owner.Lifecycle().HandleEvent(EventCreate)

	if len(victim.events) != 0 {
		t.Errorf("expected removed observer to receive nothing, got %v", victim.events)
	}
	if !sameEvents(remover.events, []LifecycleEvent{EventCreate}) {
		t.Errorf("expected remover to receive create, got %v", remover.events)
	}
}

func TestRegistry_ReentrantAddIsCapped(t *testing.T) {
	owner := NewSimpleOwner()
	late := &eventRecorder{}
	adder := &reentrantObserver{on: EventCreate}
	adder.hook = func() {
		owner.Lifecycle().AddObserver(late)
		// The transition above us is still in flight; the new observer
		// must not have advanced past it yet.
		if len(late.events) != 0 {
			t.Errorf("expected capped observer to receive nothing mid-dispatch, got %v", late.events)
		}
	}
	owner.Lifecycle().AddObserver(adder)

	owner.Lifecycle().HandleEvent(EventCreate)

	if !sameEvents(late.events, []LifecycleEvent{EventCreate}) {
		t.Errorf("expected late observer to end at created, got %v", late.events)
	}
}

func TestRegistry_ReentrantTransitionRestartsSync(t *testing.T) {
	owner := NewSimpleOwner()
	mover := &reentrantObserver{on: EventCreate}
	mover.hook = func() {
		owner.Lifecycle().MarkState(StateStarted)
	}
	owner.Lifecycle().AddObserver(mover)

	owner.Lifecycle().HandleEvent(EventCreate)

	want := []LifecycleEvent{EventCreate, EventStart}
	if !sameEvents(mover.events, want) {
		t.Errorf("expected %v, got %v", want, mover.events)
	}
	if s := owner.Lifecycle().State(); s != StateStarted {
		t.Errorf("expected started, got %s", s)
	}
}

func TestRegistry_ReentrantReadSeesNewTarget(t *testing.T) {
	owner := NewSimpleOwner()
	var seen LifeState
	probe := &reentrantObserver{on: EventCreate}
	probe.hook = func() {
		seen = owner.Lifecycle().State()
	}
	owner.Lifecycle().AddObserver(probe)

	owner.Lifecycle().HandleEvent(EventCreate)

	if seen != StateCreated {
		t.Errorf("expected reentrant read to see created, got %s", seen)
	}
}

func TestRegistry_OnEventFilter(t *testing.T) {
	owner := NewSimpleOwner()
	var starts, all int
	owner.Lifecycle().AddObserver(OnEvent(EventStart, func(Owner, LifecycleEvent) {
		starts++
	}))
	owner.Lifecycle().AddObserver(OnEvent(EventAny, func(Owner, LifecycleEvent) {
		all++
	}))

	owner.Lifecycle().MarkState(StateResumed)

	if starts != 1 {
		t.Errorf("expected 1 start, got %d", starts)
	}
	if all != 3 {
		t.Errorf("expected 3 events, got %d", all)
	}
}
