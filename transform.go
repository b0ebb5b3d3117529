package lively

// Map returns a mediator that republishes fn(v) for every value v the
// source delivers while the mediator has an active observer.
func Map[S, T any](source Observable[S], fn func(S) T) *Mediator[T] {
	m := NewMediator[T]()
	AddSource(m, source, ObserverOf(func(value S) {
		m.Set(fn(value))
	}))
	return m
}

// SwitchMap returns a mediator backed by whichever container fn selects for
// the most recent trigger value. When fn returns a container different by
// identity from the currently bridged one, the mediator unsubscribes from
// the old container and republishes values from the new one; subsequent
// writes to the old container are not delivered. fn may return nil to
// bridge nothing.
func SwitchMap[S, T any](trigger Observable[S], fn func(S) Observable[T]) *Mediator[T] {
	m := NewMediator[T]()
	var bridged *Value[T]
	AddSource(m, trigger, ObserverOf(func(value S) {
		var next *Value[T]
		if selected := fn(value); selected != nil {
			next = selected.container()
		}
		if bridged == next {
			return
		}
		if bridged != nil {
			RemoveSource(m, bridged)
		}
		bridged = next
		if bridged != nil {
			AddSource(m, bridged, ObserverOf(func(v T) {
				m.Set(v)
			}))
		}
	}))
	return m
}

// Distinct returns a mediator that suppresses consecutive equal values from
// the source. The first value always passes through.
func Distinct[T comparable](source Observable[T]) *Mediator[T] {
	m := NewMediator[T]()
	first := true
	AddSource(m, source, ObserverOf(func(value T) {
		current, ok := m.Get()
		if first || !ok || current != value {
			first = false
			m.Set(value)
		}
	}))
	return m
}
