package lively

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the default debounce duration for file change
// processing.
const DefaultDebounce = 100 * time.Millisecond

// validate is the shared validator instance.
var validate = validator.New()

// Pipeline identities for the file source processing stages.
var (
	retryID   = pipz.NewIdentity("source:retry", "File source retry middleware")
	backoffID = pipz.NewIdentity("source:backoff", "File source backoff middleware")
	timeoutID = pipz.NewIdentity("source:timeout", "File source timeout middleware")
	applyID   = pipz.NewIdentity("source:apply", "Decode, validate, and publish a file change")
)

// Update carries one file change through a FileSource's processing
// pipeline.
type Update[T any] struct {
	// Raw contains the bytes read from the file.
	Raw []byte

	// Value is the decoded and validated result, populated by the terminal
	// pipeline stage.
	Value T
}

// FileSource bridges a file on disk into a Value container. It watches the
// file, debounces bursts of change events, decodes the contents, validates
// them with go-playground/validator struct tags, and publishes the result
// with Set. Observers of the container then receive updates under the usual
// lifecycle rules.
//
// The container itself is not safe for concurrent use, and the watch loop
// runs on its own goroutine. Hosts that observe the container from a
// control goroutine should supply WithPost to marshal publication onto it.
type FileSource[T any] struct {
	path     string
	value    *Value[T]
	codec    Codec
	debounce time.Duration
	clock    clockz.Clock
	post     func(func())
	syncMode bool

	middleware []func(pipz.Chainable[*Update[T]]) pipz.Chainable[*Update[T]]
	pipeline   pipz.Chainable[*Update[T]]

	lastError atomic.Pointer[error]

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes.
	changes <-chan []byte
}

// sourceConfig holds configuration options for a FileSource.
type sourceConfig struct {
	debounce time.Duration
	clock    clockz.Clock
	codec    Codec
	syncMode bool
	post     func(func())
}

// SourceOption configures a FileSource.
type SourceOption func(*sourceConfig)

// WithDebounce sets the debounce duration for change processing. Changes
// arriving within this duration are coalesced into a single update.
func WithDebounce(d time.Duration) SourceOption {
	return func(c *sourceConfig) {
		c.debounce = d
	}
}

// WithClock sets a custom clock for time operations. Use this with
// clockz.FakeClock for deterministic debounce testing.
func WithClock(clock clockz.Clock) SourceOption {
	return func(c *sourceConfig) {
		c.clock = clock
	}
}

// WithCodec sets the codec used to decode file contents. Without this
// option the format is auto-detected (JSON by leading brace, else YAML).
func WithCodec(codec Codec) SourceOption {
	return func(c *sourceConfig) {
		c.codec = codec
	}
}

// WithSyncMode enables synchronous processing for testing. In sync mode,
// changes after the initial load are pulled manually with Process instead
// of flowing through the debounced watch goroutine.
func WithSyncMode() SourceOption {
	return func(c *sourceConfig) {
		c.syncMode = true
	}
}

// WithPost sets the function used to hand publication over to the host's
// control goroutine. The source calls post with a closure that performs the
// Set; post must run it on the goroutine that owns the container.
func WithPost(post func(func())) SourceOption {
	return func(c *sourceConfig) {
		c.post = post
	}
}

// NewFileSource creates a FileSource feeding a fresh container from the
// file at path.
//
// Example:
//
//	type Config struct {
//	    Port int `yaml:"port" validate:"min=1,max=65535"`
//	}
//
//	source := lively.NewFileSource[Config]("config.yaml")
//	source.Value().Observe(owner, lively.ObserverOf(func(cfg Config) {
//	    app.Reconfigure(cfg)
//	}))
//	err := source.Start(ctx)
func NewFileSource[T any](path string, opts ...SourceOption) *FileSource[T] {
	cfg := &sourceConfig{
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
		codec:    autoCodec{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &FileSource[T]{
		path:     path,
		value:    NewValue[T](),
		codec:    cfg.codec,
		debounce: cfg.debounce,
		clock:    cfg.clock,
		post:     cfg.post,
		syncMode: cfg.syncMode,
	}
}

// Value returns the container the source publishes into.
func (f *FileSource[T]) Value() *Value[T] {
	return f.value
}

// LastError returns the last processing error, or nil if the most recent
// change was applied cleanly.
func (f *FileSource[T]) LastError() error {
	ptr := f.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// WithRetry wraps the processing pipeline with retry logic. Failed
// processing is retried immediately up to maxAttempts times. For delays
// between retries, use WithBackoff instead.
func (f *FileSource[T]) WithRetry(maxAttempts int) *FileSource[T] {
	f.middleware = append(f.middleware, func(p pipz.Chainable[*Update[T]]) pipz.Chainable[*Update[T]] {
		return pipz.NewRetry(retryID, p, maxAttempts)
	})
	return f
}

// WithBackoff wraps the processing pipeline with exponential backoff retry
// logic: baseDelay, then 2*baseDelay, 4*baseDelay, and so on.
func (f *FileSource[T]) WithBackoff(maxAttempts int, baseDelay time.Duration) *FileSource[T] {
	f.middleware = append(f.middleware, func(p pipz.Chainable[*Update[T]]) pipz.Chainable[*Update[T]] {
		return pipz.NewBackoff(backoffID, p, maxAttempts, baseDelay)
	})
	return f
}

// WithTimeout wraps the processing pipeline with a timeout.
func (f *FileSource[T]) WithTimeout(d time.Duration) *FileSource[T] {
	f.middleware = append(f.middleware, func(p pipz.Chainable[*Update[T]]) pipz.Chainable[*Update[T]] {
		return pipz.NewTimeout(timeoutID, p, d)
	})
	return f
}

// buildPipeline wraps the terminal decode/validate/publish stage with any
// configured middleware.
func (f *FileSource[T]) buildPipeline() pipz.Chainable[*Update[T]] {
	terminal := pipz.Apply(applyID, func(ctx context.Context, u *Update[T]) (*Update[T], error) {
		var parsed T
		if err := f.codec.Unmarshal(u.Raw, &parsed); err != nil {
			capitan.Emit(ctx, SourceDecodeFailed,
				KeyPath.Field(f.path),
				KeyError.Field(err.Error()),
			)
			return u, fmt.Errorf("decode failed: %w", err)
		}
		if err := validateValue(parsed); err != nil {
			capitan.Emit(ctx, SourceValidationFailed,
				KeyPath.Field(f.path),
				KeyError.Field(err.Error()),
			)
			return u, fmt.Errorf("validation failed: %w", err)
		}
		u.Value = parsed
		f.publish(parsed)
		return u, nil
	})

	var pipeline pipz.Chainable[*Update[T]] = terminal
	for _, wrap := range f.middleware {
		pipeline = wrap(pipeline)
	}
	return pipeline
}

// Start begins watching the file. It blocks until the initial contents are
// processed (success or failure), then continues watching asynchronously.
//
// If the initial contents fail to process, Start returns the error but
// keeps watching for valid updates.
//
// In sync mode, Start only processes the initial contents; use Process to
// pull subsequent changes. Start can only be called once.
func (f *FileSource[T]) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return fmt.Errorf("file source already started")
	}
	f.started = true
	f.mu.Unlock()

	f.pipeline = f.buildPipeline()

	capitan.Emit(ctx, SourceStarted,
		KeyPath.Field(f.path),
		KeyDebounce.Field(f.debounce),
	)

	changes, err := f.watchFile(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	var initialErr error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case raw, ok := <-changes:
		if !ok {
			return fmt.Errorf("watcher closed before emitting initial contents")
		}
		capitan.Emit(ctx, SourceChangeReceived, KeyPath.Field(f.path))
		initialErr = f.process(ctx, raw)
	}

	if f.syncMode {
		f.changes = changes
		return initialErr
	}

	go f.run(ctx, changes)

	return initialErr
}

// Process pulls and processes the next pending change. Only available in
// sync mode; used for deterministic testing. Returns false if no change is
// available or the watcher has closed.
func (f *FileSource[T]) Process(ctx context.Context) bool {
	if !f.syncMode {
		return false
	}

	select {
	case raw, ok := <-f.changes:
		if !ok {
			return false
		}
		capitan.Emit(ctx, SourceChangeReceived, KeyPath.Field(f.path))
		_ = f.process(ctx, raw) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

// process runs one raw change through the pipeline.
func (f *FileSource[T]) process(ctx context.Context, raw []byte) error {
	if _, err := f.pipeline.Process(ctx, &Update[T]{Raw: raw}); err != nil {
		f.setError(err)
		capitan.Emit(ctx, SourceApplyFailed,
			KeyPath.Field(f.path),
			KeyError.Field(err.Error()),
		)
		return err
	}
	f.lastError.Store(nil)
	capitan.Emit(ctx, SourceApplied, KeyPath.Field(f.path))
	return nil
}

// publish hands the decoded value to the container, through the post hook
// when one is configured.
func (f *FileSource[T]) publish(parsed T) {
	if f.post != nil {
		f.post(func() { f.value.Set(parsed) })
		return
	}
	f.value.Set(parsed)
}

// setError stores an error atomically.
func (f *FileSource[T]) setError(err error) {
	e := err
	f.lastError.Store(&e)
}

// watchFile starts an fsnotify watch on the path and returns a channel that
// emits the file contents on every write. The current contents are emitted
// immediately so the initial load needs no separate read path.
func (f *FileSource[T]) watchFile(ctx context.Context) (<-chan []byte, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(f.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", f.path, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Close()

		if data, err := os.ReadFile(f.path); err == nil {
			select {
			case out <- data:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only emit on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				data, err := os.ReadFile(f.path)
				if err != nil {
					continue
				}

				select {
				case out <- data:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}

// run processes changes from the watch channel with debouncing.
func (f *FileSource[T]) run(ctx context.Context, changes <-chan []byte) {
	defer capitan.Emit(ctx, SourceStopped, KeyPath.Field(f.path))

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		// Get timer channel or nil if no timer
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				// Channel closed, process any pending change
				if hasPending {
					_ = f.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}

			capitan.Emit(ctx, SourceChangeReceived, KeyPath.Field(f.path))
			pending = raw
			hasPending = true

			// Reset or start debounce timer
			if timer == nil {
				timer = f.clock.NewTimer(f.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(f.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = f.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}

// validateValue runs struct-tag validation when the decoded value is a
// struct; other kinds carry no tags to enforce.
func validateValue(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(rv.Interface())
}
