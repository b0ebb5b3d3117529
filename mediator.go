package lively

import "fmt"

// Mediator is a Value that republishes values derived from one or more
// upstream containers. It subscribes to its sources only while it has at
// least one active observer of its own: while the mediator is inactive its
// sources are paused, not forgotten.
//
// AddSource and RemoveSource are package functions rather than methods
// because each source carries its own element type.
type Mediator[T any] struct {
	Value[T]

	// Keyed by upstream container identity; the elements' types vary per
	// source, so the key is held as any.
	sources *orderedMap[any, mediatorSource]
}

// mediatorSource erases the upstream element type behind the plug/unplug
// contract.
type mediatorSource interface {
	plug()
	unplug()
}

// NewMediator returns a mediator with no sources and no value.
func NewMediator[T any]() *Mediator[T] {
	m := &Mediator[T]{
		Value:   *NewValue[T](),
		sources: newOrderedMap[any, mediatorSource](),
	}
	m.onActive = m.plugAll
	m.onInactive = m.unplugAll
	return m
}

func (m *Mediator[T]) plugAll() {
	it := m.sources.ascending()
	defer m.sources.release(it)
	for e, ok := it.advance(); ok; e, ok = it.advance() {
		e.value.plug()
	}
}

func (m *Mediator[T]) unplugAll() {
	it := m.sources.ascending()
	defer m.sources.release(it)
	for e, ok := it.advance(); ok; e, ok = it.advance() {
		e.value.unplug()
	}
}

// AddSource subscribes the mediator to an upstream container. onChanged
// receives each upstream value whose version the mediator has not consumed
// yet; it typically computes and calls m.Set.
//
// Adding the identical (source, onChanged) pair again is a no-op. Adding a
// source that is already registered with a different onChanged panics with
// ErrObserverConflict.
func AddSource[T, S any](m *Mediator[T], source Observable[S], onChanged Observer[S]) {
	c := source.container()
	wrapper := &sourceWrapper[S]{src: c, observer: onChanged, version: startVersion}
	existing, added := m.sources.putIfAbsent(c, wrapper)
	if !added {
		if existing.(*sourceWrapper[S]).observer != onChanged {
			panic(fmt.Errorf("lively: %w: source already added with a different observer", ErrObserverConflict))
		}
		return
	}
	emit(MediatorSourceAdded, KeySources.Field(m.sources.size()))
	if m.HasActiveObservers() {
		wrapper.plug()
	}
}

// RemoveSource unsubscribes from the upstream container and discards its
// wrapper. Removing an absent source is a no-op.
func RemoveSource[T, S any](m *Mediator[T], source Observable[S]) {
	if wrapper, ok := m.sources.remove(source.container()); ok {
		wrapper.unplug()
		emit(MediatorSourceRemoved, KeySources.Field(m.sources.size()))
	}
}

// sourceWrapper bridges one upstream container into the mediator. It is its
// own always-active observer on the upstream while plugged, and keeps the
// last upstream version it consumed so a replayed version (for example the
// redelivery that follows replugging) is not forwarded twice.
type sourceWrapper[S any] struct {
	src      *Value[S]
	observer Observer[S]
	version  int
}

func (s *sourceWrapper[S]) plug() {
	s.src.ObserveForever(s)
}

func (s *sourceWrapper[S]) unplug() {
	s.src.RemoveObserver(s)
}

func (s *sourceWrapper[S]) OnChanged(value S) {
	if s.version != s.src.version {
		s.version = s.src.version
		s.observer.OnChanged(value)
	}
}
