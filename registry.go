package lively

import "fmt"

// LifecycleObserver receives lifecycle transition events, one step at a
// time, from the Registry it is registered with.
//
// Implementations must use a comparable receiver (typically a pointer):
// the registry keys its observer set by identity.
type LifecycleObserver interface {
	// OnStateChanged is called for each single-step transition. The
	// observer may re-enter the registry: add or remove observers, or
	// trigger further transitions. The registry serializes such reentrant
	// mutation into complete, ordered passes.
	OnStateChanged(owner Owner, event LifecycleEvent)
}

// OnEvent returns a LifecycleObserver that invokes fn whenever the given
// event is dispatched. Pass EventAny to invoke fn for every event.
func OnEvent(event LifecycleEvent, fn func(owner Owner, event LifecycleEvent)) LifecycleObserver {
	return &filteredObserver{event: event, fn: fn}
}

type filteredObserver struct {
	event LifecycleEvent
	fn    func(Owner, LifecycleEvent)
}

func (o *filteredObserver) OnStateChanged(owner Owner, event LifecycleEvent) {
	if o.event == EventAny || o.event == event {
		o.fn(owner, event)
	}
}

// observerWithState pairs a registered observer with the state the registry
// has walked it to so far. Only the registry's dispatch step mutates it,
// exactly one event at a time.
type observerWithState struct {
	observer LifecycleObserver
	state    LifeState
}

// dispatchEvent delivers one transition step. The tracked state is capped
// at the event's resulting state before the callback runs, so an observer
// that re-enters and reads its own reported position never sees a state
// more advanced than the one it is being told about.
func (o *observerWithState) dispatchEvent(owner Owner, event LifecycleEvent) {
	next := StateAfter(event)
	o.state = minState(o.state, next)
	o.observer.OnStateChanged(owner, event)
	o.state = next
}

// Registry is the lifecycle state machine for a single Owner. It holds the
// authoritative current state and synchronizes every registered observer to
// it, dispatching transition events in a deterministic order even when
// callbacks re-enter the registry mid-dispatch.
//
// A Registry is not safe for concurrent use. All mutation is expected on
// one control goroutine; reentrancy, not parallelism, is what the internal
// guards defend against.
type Registry struct {
	observers *orderedMap[LifecycleObserver, *observerWithState]

	state LifeState

	// Non-owning back-reference, passed to observer callbacks. The owner
	// outlives the registry by construction.
	owner Owner

	addingObserverCounter int
	handlingEvent         bool
	newEventOccurred      bool

	// parentStates caps the target of observers added from within a
	// dispatch, so a just-added observer cannot skip ahead of a transition
	// still in progress above it in the call stack.
	parentStates []LifeState
}

// NewRegistry returns a registry for owner, starting at StateInitialized.
func NewRegistry(owner Owner) *Registry {
	return &Registry{
		observers: newOrderedMap[LifecycleObserver, *observerWithState](),
		state:     StateInitialized,
		owner:     owner,
	}
}

// State returns the current lifecycle state.
func (r *Registry) State() LifeState {
	return r.state
}

// ObserverCount returns the number of registered observers.
func (r *Registry) ObserverCount() int {
	return r.observers.size()
}

// HandleEvent moves the lifecycle to the state resulting from event and
// synchronizes all observers. The host driver is trusted to emit events in
// valid single-step order; the registry does not re-validate it.
func (r *Registry) HandleEvent(event LifecycleEvent) {
	r.moveToState(StateAfter(event))
}

// MarkState moves the lifecycle directly to the given state, dispatching
// every intermediate single-step event to each observer along the way.
func (r *Registry) MarkState(state LifeState) {
	r.moveToState(state)
}

func (r *Registry) moveToState(next LifeState) {
	if r.state == next {
		return
	}
	prev := r.state
	// Commit first: reentrant reads must see the new target immediately.
	r.state = next
	emit(LifecycleStateChanged,
		KeyOldState.Field(prev.String()),
		KeyNewState.Field(next.String()),
	)
	if r.handlingEvent || r.addingObserverCounter != 0 {
		// An outer pass is running; it will notice and loop again.
		r.newEventOccurred = true
		return
	}
	r.handlingEvent = true
	r.sync()
	r.handlingEvent = false
}

// isSynced reports whether every observer's tracked state equals the
// registry's current state.
func (r *Registry) isSynced() bool {
	if r.observers.size() == 0 {
		return true
	}
	eldest := r.observers.eldest().value.state
	newest := r.observers.newest().value.state
	return eldest == newest && r.state == newest
}

// sync walks observers backward or forward until all of them converge on
// the current state. A reentrant transition invalidates the pass in
// progress and restarts the loop against the new target.
func (r *Registry) sync() {
	if r.owner == nil {
		panic(fmt.Errorf("lively: registry has no owner; events cannot be dispatched"))
	}
	for !r.isSynced() {
		r.newEventOccurred = false
		if eldest := r.observers.eldest(); eldest != nil && r.state < eldest.value.state {
			r.backwardPass()
		}
		newest := r.observers.newest()
		if !r.newEventOccurred && newest != nil && r.state > newest.value.state {
			r.forwardPass()
		}
	}
	r.newEventOccurred = false
}

// forwardPass steps observers up toward the current state, least recently
// added first. Observers added during the pass are visited too.
func (r *Registry) forwardPass() {
	it := r.observers.ascendingWithAdditions()
	defer r.observers.release(it)
	for e, ok := it.advance(); ok && !r.newEventOccurred; e, ok = it.advance() {
		obs := e.value
		for obs.state < r.state && !r.newEventOccurred && r.observers.contains(e.key) {
			r.pushParentState(obs.state)
			obs.dispatchEvent(r.owner, upEventFrom(obs.state))
			r.popParentState()
		}
	}
}

// backwardPass steps observers down toward the current state, most recently
// added first.
func (r *Registry) backwardPass() {
	it := r.observers.descending()
	defer r.observers.release(it)
	for e, ok := it.advance(); ok && !r.newEventOccurred; e, ok = it.advance() {
		obs := e.value
		for obs.state > r.state && !r.newEventOccurred && r.observers.contains(e.key) {
			event := downEventFrom(obs.state)
			r.pushParentState(StateAfter(event))
			obs.dispatchEvent(r.owner, event)
			r.popParentState()
		}
	}
}

func (r *Registry) pushParentState(state LifeState) {
	r.parentStates = append(r.parentStates, state)
}

func (r *Registry) popParentState() {
	r.parentStates = r.parentStates[:len(r.parentStates)-1]
}

// calculateTargetState returns how far a newly added observer may advance
// right now: no further than the registry's state, its preceding sibling's
// state, or the innermost in-flight transition.
func (r *Registry) calculateTargetState(observer LifecycleObserver) LifeState {
	target := r.state
	if prev := r.observers.previousOf(observer); prev != nil {
		target = minState(target, prev.value.state)
	}
	if n := len(r.parentStates); n > 0 {
		target = minState(target, r.parentStates[n-1])
	}
	return target
}

// AddObserver registers an observer and walks it forward, one event at a
// time, until it catches up with the rest of the registry. Adding an
// observer that is already registered is a no-op.
//
// An observer added after the lifecycle is destroyed starts at
// StateDestroyed and receives no events.
func (r *Registry) AddObserver(observer LifecycleObserver) {
	initial := StateInitialized
	if r.state == StateDestroyed {
		initial = StateDestroyed
	}
	stateful := &observerWithState{observer: observer, state: initial}
	if _, added := r.observers.putIfAbsent(observer, stateful); !added {
		return
	}
	emit(LifecycleObserverAdded, KeyObservers.Field(r.observers.size()))

	isReentrance := r.addingObserverCounter != 0 || r.handlingEvent
	target := r.calculateTargetState(observer)
	r.addingObserverCounter++
	for stateful.state < target && r.observers.contains(observer) {
		r.pushParentState(stateful.state)
		stateful.dispatchEvent(r.owner, upEventFrom(stateful.state))
		r.popParentState()
		// The cap can move while siblings and parents advance.
		target = r.calculateTargetState(observer)
	}
	if !isReentrance {
		r.sync()
	}
	r.addingObserverCounter--
}

// RemoveObserver deletes the observer from the registry. No teardown events
// are dispatched: the removed observer's own callbacks already saw every
// state it passed through, and synthesizing extra down-events here would
// double-report teardown to cleanup code that triggered the removal.
func (r *Registry) RemoveObserver(observer LifecycleObserver) {
	if _, ok := r.observers.remove(observer); ok {
		emit(LifecycleObserverRemoved, KeyObservers.Field(r.observers.size()))
	}
}
