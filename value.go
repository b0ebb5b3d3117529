package lively

import "fmt"

// startVersion is below every dispatch-eligible version, so a wrapper that
// has never been notified always sees the first write as new.
const startVersion = -1

// Observer receives values from a Value container.
//
// Implementations must use a comparable receiver (typically a pointer):
// the container keys its observer set by identity, and that identity is
// what Observe, ObserveForever, and RemoveObserver agree on.
type Observer[T any] interface {
	OnChanged(value T)
}

// FuncObserver adapts a plain function to the Observer interface. Each call
// to ObserverOf allocates a distinct identity; keep the returned pointer to
// remove the observer later.
type FuncObserver[T any] struct {
	fn func(T)
}

// ObserverOf wraps fn as an Observer.
func ObserverOf[T any](fn func(value T)) *FuncObserver[T] {
	return &FuncObserver[T]{fn: fn}
}

// OnChanged invokes the wrapped function.
func (o *FuncObserver[T]) OnChanged(value T) {
	o.fn(value)
}

// Observable is the read surface shared by Value and Mediator. Transform
// functions and mediator sources accept any Observable.
type Observable[T any] interface {
	container() *Value[T]
}

// Value holds a single current value and notifies registered observers when
// it changes, delivering only to observers whose associated lifecycle is
// active (at or above StateStarted).
//
// A Value distinguishes "never set" from every valid value, including the
// zero value; Get reports presence separately. Every Set bumps a monotonic
// version, and an observer only receives a value whose version is strictly
// newer than the last one it saw: an observer activating after several
// writes receives just the most recent value, exactly once.
//
// A Value is not safe for concurrent use; all operations belong on one
// control goroutine. Observer callbacks may freely re-enter the container.
type Value[T any] struct {
	observers *orderedMap[Observer[T], valueObserver[T]]

	data    T
	present bool
	version int

	activeCount         int
	changingActiveState bool

	dispatchingValue    bool
	dispatchInvalidated bool

	// Overridden by Mediator to plug and unplug its sources.
	onActive   func()
	onInactive func()
}

// NewValue returns an unset container.
func NewValue[T any]() *Value[T] {
	return &Value[T]{
		observers: newOrderedMap[Observer[T], valueObserver[T]](),
		version:   startVersion,
	}
}

// NewValueOf returns a container already holding initial.
func NewValueOf[T any](initial T) *Value[T] {
	v := NewValue[T]()
	v.data = initial
	v.present = true
	v.version = startVersion + 1
	return v
}

func (v *Value[T]) container() *Value[T] { return v }

// Get returns the current value, or the zero value and false if the
// container has never been set. Reading performs no bookkeeping.
func (v *Value[T]) Get() (T, bool) {
	if !v.present {
		var zero T
		return zero, false
	}
	return v.data, true
}

// Set stores a new value and notifies every active observer. The version
// always advances, even when the new value equals the old one; use Distinct
// for value-equality deduplication.
func (v *Value[T]) Set(value T) {
	v.version++
	v.data = value
	v.present = true
	emit(ValueChanged, KeyVersion.Field(v.version))
	v.dispatchValue(nil)
}

// HasObservers reports whether any observer is registered.
func (v *Value[T]) HasObservers() bool {
	return v.observers.size() > 0
}

// HasActiveObservers reports whether any registered observer is currently
// active.
func (v *Value[T]) HasActiveObservers() bool {
	return v.activeCount > 0
}

// Observe registers an observer bound to owner's lifecycle. The observer
// receives values only while the owner is at or above StateStarted, and is
// removed automatically when the owner is destroyed.
//
// If the owner is already destroyed the call is ignored. Re-registering the
// identical (owner, observer) pair is a no-op. Registering the same
// observer under a different owner panics with ErrObserverConflict.
func (v *Value[T]) Observe(owner Owner, observer Observer[T]) {
	if owner.Lifecycle().State() == StateDestroyed {
		return
	}
	wrapper := &lifecycleBoundObserver[T]{
		observerState: observerState[T]{observer: observer, lastVersion: startVersion},
		owner:         owner,
		value:         v,
	}
	existing, added := v.observers.putIfAbsent(observer, wrapper)
	if !added {
		if !existing.attachedTo(owner) {
			panic(fmt.Errorf("lively: %w", ErrObserverConflict))
		}
		return
	}
	owner.Lifecycle().AddObserver(wrapper)
}

// ObserveForever registers an observer that is active unconditionally for
// as long as it stays registered. It immediately receives the current value
// if the container is set.
//
// Registering an observer that is already lifecycle-bound panics with
// ErrObserverConflict; re-registering an existing forever observer is a
// no-op.
func (v *Value[T]) ObserveForever(observer Observer[T]) {
	wrapper := &alwaysActiveObserver[T]{
		observerState: observerState[T]{observer: observer, lastVersion: startVersion},
	}
	existing, added := v.observers.putIfAbsent(observer, wrapper)
	if !added {
		if _, bound := existing.(*lifecycleBoundObserver[T]); bound {
			panic(fmt.Errorf("lively: %w", ErrObserverConflict))
		}
		return
	}
	v.activeStateChanged(wrapper, true)
}

// RemoveObserver detaches and deactivates the observer. Removing an
// observer that is not registered is a no-op.
func (v *Value[T]) RemoveObserver(observer Observer[T]) {
	removed, ok := v.observers.remove(observer)
	if !ok {
		return
	}
	removed.detach()
	v.activeStateChanged(removed, false)
}

// RemoveObservers removes every observer bound to the given owner.
func (v *Value[T]) RemoveObservers(owner Owner) {
	it := v.observers.ascending()
	defer v.observers.release(it)
	for e, ok := it.advance(); ok; e, ok = it.advance() {
		if e.value.attachedTo(owner) {
			v.RemoveObserver(e.key)
		}
	}
}

// considerNotify delivers the current value to one wrapper if, right now,
// it is active, its lifecycle still agrees it should be, and it has not
// already seen this version.
func (v *Value[T]) considerNotify(w valueObserver[T]) {
	s := w.state()
	if !s.active {
		return
	}
	// The activation flag can go stale when a lifecycle moved without this
	// container hearing about it yet. Flip it off instead of delivering.
	if !w.shouldBeActive() {
		v.activeStateChanged(w, false)
		return
	}
	if s.lastVersion >= v.version {
		return
	}
	s.lastVersion = v.version
	s.observer.OnChanged(v.data)
}

// dispatchValue runs a delivery pass over one wrapper (initiator, used when
// a single observer just became active) or over all wrappers in
// registration order. A dispatch requested while one is already running
// only marks the running pass invalid; the outer loop restarts full passes
// until one completes uninterrupted.
func (v *Value[T]) dispatchValue(initiator valueObserver[T]) {
	if v.dispatchingValue {
		v.dispatchInvalidated = true
		return
	}
	v.dispatchingValue = true
	for {
		v.dispatchInvalidated = false
		if initiator != nil {
			v.considerNotify(initiator)
			initiator = nil
		} else {
			it := v.observers.ascendingWithAdditions()
			for e, ok := it.advance(); ok; e, ok = it.advance() {
				v.considerNotify(e.value)
				if v.dispatchInvalidated {
					break
				}
			}
			v.observers.release(it)
		}
		if !v.dispatchInvalidated {
			break
		}
	}
	v.dispatchingValue = false
}

// activeStateChanged flips a wrapper's active flag, maintains the active
// count, and lets a freshly activated observer catch up to the latest
// value. The flag flips before any delivery so reentrant dispatch never
// targets a wrapper that is no longer (or not yet) active.
func (v *Value[T]) activeStateChanged(w valueObserver[T], active bool) {
	s := w.state()
	if active == s.active {
		return
	}
	s.active = active
	delta := 1
	if !active {
		delta = -1
	}
	v.changeActiveCounter(delta)
	if s.active {
		v.dispatchValue(w)
	}
}

// changeActiveCounter adjusts the active count and invokes the activation
// hook on 0->1 and the deactivation hook on ->0. Hooks can themselves flip
// observer activity; the loop keeps reconciling until the count settles,
// while the changingActiveState guard collapses nested calls.
func (v *Value[T]) changeActiveCounter(delta int) {
	previous := v.activeCount
	v.activeCount += delta
	if v.changingActiveState {
		return
	}
	v.changingActiveState = true
	defer func() { v.changingActiveState = false }()
	for previous != v.activeCount {
		callActive := previous == 0 && v.activeCount > 0
		callInactive := previous > 0 && v.activeCount == 0
		previous = v.activeCount
		if callActive {
			emit(ValueActivated, KeyActiveObservers.Field(v.activeCount))
			if v.onActive != nil {
				v.onActive()
			}
		} else if callInactive {
			emit(ValueDeactivated, KeyActiveObservers.Field(v.activeCount))
			if v.onInactive != nil {
				v.onInactive()
			}
		}
	}
}

// valueObserver is the closed set of observer wrapper variants: bound to a
// lifecycle, or always active. The contract is eligibility for dispatch
// plus reaction to an activation signal.
type valueObserver[T any] interface {
	state() *observerState[T]
	shouldBeActive() bool
	attachedTo(owner Owner) bool
	detach()
}

// observerState is the bookkeeping common to all wrapper variants.
type observerState[T any] struct {
	observer    Observer[T]
	active      bool
	lastVersion int
}

func (s *observerState[T]) state() *observerState[T] { return s }
func (s *observerState[T]) attachedTo(Owner) bool    { return false }
func (s *observerState[T]) detach()                  {}

// alwaysActiveObserver backs ObserveForever.
type alwaysActiveObserver[T any] struct {
	observerState[T]
}

func (w *alwaysActiveObserver[T]) shouldBeActive() bool { return true }

// lifecycleBoundObserver backs Observe. It registers itself with the
// owner's registry so lifecycle transitions drive its active flag, and
// removes itself from the container when the owner is destroyed.
type lifecycleBoundObserver[T any] struct {
	observerState[T]
	owner Owner
	value *Value[T]
}

func (w *lifecycleBoundObserver[T]) shouldBeActive() bool {
	return w.owner.Lifecycle().State().IsAtLeast(StateStarted)
}

func (w *lifecycleBoundObserver[T]) attachedTo(owner Owner) bool {
	return w.owner == owner
}

func (w *lifecycleBoundObserver[T]) detach() {
	w.owner.Lifecycle().RemoveObserver(w)
}

// OnStateChanged implements LifecycleObserver. The loop re-reads the
// lifecycle after each flip because delivery callbacks can move the
// lifecycle again before this step returns.
func (w *lifecycleBoundObserver[T]) OnStateChanged(Owner, LifecycleEvent) {
	current := w.owner.Lifecycle().State()
	if current == StateDestroyed {
		w.value.RemoveObserver(w.observer)
		return
	}
	previous := LifeState(-1)
	for previous != current {
		previous = current
		w.value.activeStateChanged(w, w.shouldBeActive())
		current = w.owner.Lifecycle().State()
	}
}
