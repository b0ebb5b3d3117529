package lively

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Lifecycle registry signals.
var (
	// LifecycleStateChanged is emitted when a registry's state moves.
	LifecycleStateChanged = capitan.NewSignal(
		"lively.lifecycle.state.changed",
		"Lifecycle state transition",
	)

	// LifecycleObserverAdded is emitted when an observer registers with a registry.
	LifecycleObserverAdded = capitan.NewSignal(
		"lively.lifecycle.observer.added",
		"Lifecycle observer registered",
	)

	// LifecycleObserverRemoved is emitted when an observer leaves a registry.
	LifecycleObserverRemoved = capitan.NewSignal(
		"lively.lifecycle.observer.removed",
		"Lifecycle observer removed",
	)
)

// Value container signals.
var (
	// ValueChanged is emitted on every Set, before the dispatch pass runs.
	ValueChanged = capitan.NewSignal(
		"lively.value.changed",
		"Value written to container",
	)

	// ValueActivated is emitted when a container's active observer count rises from zero.
	ValueActivated = capitan.NewSignal(
		"lively.value.activated",
		"Container gained its first active observer",
	)

	// ValueDeactivated is emitted when a container's active observer count drops to zero.
	ValueDeactivated = capitan.NewSignal(
		"lively.value.deactivated",
		"Container lost its last active observer",
	)
)

// Mediator signals.
var (
	// MediatorSourceAdded is emitted when a mediator gains an upstream source.
	MediatorSourceAdded = capitan.NewSignal(
		"lively.mediator.source.added",
		"Mediator source added",
	)

	// MediatorSourceRemoved is emitted when a mediator discards an upstream source.
	MediatorSourceRemoved = capitan.NewSignal(
		"lively.mediator.source.removed",
		"Mediator source removed",
	)
)

// File source signals.
var (
	// SourceStarted is emitted when a FileSource begins watching.
	SourceStarted = capitan.NewSignal(
		"lively.source.started",
		"File source watching started",
	)

	// SourceStopped is emitted when a FileSource stops watching.
	SourceStopped = capitan.NewSignal(
		"lively.source.stopped",
		"File source watching stopped",
	)

	// SourceChangeReceived is emitted when raw data arrives from the file watcher.
	SourceChangeReceived = capitan.NewSignal(
		"lively.source.change.received",
		"Raw change received from file watcher",
	)

	// SourceDecodeFailed is emitted when decoding raw data fails.
	SourceDecodeFailed = capitan.NewSignal(
		"lively.source.decode.failed",
		"Decoding failed",
	)

	// SourceValidationFailed is emitted when validation fails.
	SourceValidationFailed = capitan.NewSignal(
		"lively.source.validation.failed",
		"Validation failed",
	)

	// SourceApplied is emitted when a change is published into the container.
	SourceApplied = capitan.NewSignal(
		"lively.source.applied",
		"Change published to container",
	)

	// SourceApplyFailed is emitted when a change fails anywhere in the pipeline.
	SourceApplyFailed = capitan.NewSignal(
		"lively.source.apply.failed",
		"Change processing failed",
	)
)

// emit publishes a signal from the synchronous core paths, which carry no
// context of their own.
func emit(signal capitan.Signal, fields ...capitan.Field) {
	capitan.Emit(context.Background(), signal, fields...)
}
