package lively

import "github.com/zoobzio/capitan"

// Field keys for lively events.
var (
	// KeyOldState is the state before a lifecycle transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the state after a lifecycle transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyObservers is the number of observers registered with a registry.
	KeyObservers = capitan.NewIntKey("observers")

	// KeyActiveObservers is the number of active observers on a container.
	KeyActiveObservers = capitan.NewIntKey("active_observers")

	// KeyVersion is the container version after a write.
	KeyVersion = capitan.NewIntKey("version")

	// KeySources is the number of upstream sources held by a mediator.
	KeySources = capitan.NewIntKey("sources")

	// KeyPath is the file path a FileSource watches.
	KeyPath = capitan.NewStringKey("path")

	// KeyDebounce is the configured debounce duration of a FileSource.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")
)
