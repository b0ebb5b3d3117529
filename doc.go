/*
Package lively provides lifecycle-aware observable value containers.

A Value holds a single current value and notifies registered observers when
it changes, but only delivers to observers whose associated lifecycle is
active. The lifecycle itself is a Registry: a small state machine that walks
every observer, one event at a time, to the owner's current state, with
deterministic ordering even when callbacks re-enter the machinery.

# Lifecycle

An Owner exposes a Registry tracking one of five states:

	Destroyed < Initialized < Created < Started < Resumed

Hosts drive the registry from their platform callbacks:

	owner := lively.NewSimpleOwner()
	owner.Lifecycle().HandleEvent(lively.EventCreate)
	owner.Lifecycle().HandleEvent(lively.EventStart)
	// ... later
	owner.Lifecycle().HandleEvent(lively.EventStop)
	owner.Lifecycle().HandleEvent(lively.EventDestroy)

# Observing values

Observers bound to an owner receive values only while the owner is at or
above Started, immediately catch up to the latest value on activation, and
are removed automatically when the owner is destroyed:

	count := lively.NewValue[int]()
	count.Observe(owner, lively.ObserverOf(func(n int) {
	    render(n)
	}))
	count.Set(1) // delivered while owner is started

ObserveForever registers an observer that stays active until removed.

# Mediators and transformations

A Mediator republishes values derived from upstream containers. Map,
SwitchMap, and Distinct are built on it:

	celsius := lively.NewValue[float64]()
	fahrenheit := lively.Map(celsius, func(c float64) float64 {
	    return c*9/5 + 32
	})
	fahrenheit.Observe(owner, lively.ObserverOf(display))

Mediators subscribe to their sources only while they have active observers
of their own, so derived work pauses when nothing is watching.

# File sources

FileSource feeds a container from a file on disk, debouncing changes and
decoding and validating the contents before publishing:

	type Config struct {
	    Port int `yaml:"port" validate:"min=1,max=65535"`
	}

	source := lively.NewFileSource[Config]("config.yaml")
	source.Value().Observe(owner, lively.ObserverOf(apply))
	err := source.Start(ctx)

# Concurrency

Registries and containers are single-goroutine structures: all mutation
belongs on one control goroutine, and the internal guards exist to
serialize reentrant callbacks, not parallel ones. FileSource runs its watch
loop on its own goroutine; use WithPost to marshal publication back onto
the control goroutine.
*/
package lively
