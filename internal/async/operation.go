// Package async gives any keyed fetch a uniform idle/loading/success/error
// lifecycle.
//
// Each Execute captures a token. Only the latest invocation may write a
// terminal state, so a slow earlier call cannot overwrite a newer result.
// There is no cancellation and no automatic retry; callers re-run Execute or
// Refetch.
package async

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNothingToRefetch = errors.New("async: no previous execution to refetch")

// Status is the lifecycle phase of an Operation.
type Status uint8

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// State is a snapshot of an Operation. Data is only meaningful in
// StatusSuccess; Err and Message only in StatusError.
type State[K comparable, T any] struct {
	Status  Status
	Key     K
	Token   uuid.UUID
	Data    T
	Err     error
	Message string
}

// Loading reports whether an invocation is in flight.
func (s State[K, T]) Loading() bool { return s.Status == StatusLoading }

// HasData reports whether Data holds a result.
func (s State[K, T]) HasData() bool { return s.Status == StatusSuccess }

// Func is the injected operation.
type Func[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Observer is called with each state that is still current when it is
// published. Superseded states are never delivered, so observers see a
// single ordered history. Observers must not call back into the Operation.
type Observer[K comparable, T any] func(State[K, T])

// Operation wraps a Func with the lifecycle state machine. It is safe for
// concurrent use.
type Operation[K comparable, T any] struct {
	fn        Func[K, T]
	observers []Observer[K, T]

	publishMu sync.Mutex

	mu      sync.Mutex
	state   State[K, T]
	lastKey K
	hasKey  bool
}

// Option configures an Operation.
type Option[K comparable, T any] func(*Operation[K, T])

// WithObserver registers fn for state changes.
func WithObserver[K comparable, T any](fn Observer[K, T]) Option[K, T] {
	return func(o *Operation[K, T]) {
		o.observers = append(o.observers, fn)
	}
}

// New wraps fn. The operation starts idle.
func New[K comparable, T any](fn Func[K, T], opts ...Option[K, T]) *Operation[K, T] {
	o := &Operation[K, T]{fn: fn}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current snapshot.
func (o *Operation[K, T]) State() State[K, T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Execute moves to loading, runs the operation for key and records the
// outcome unless a newer Execute or a Reset happened meanwhile. The result
// of this invocation is always returned to the caller.
func (o *Operation[K, T]) Execute(ctx context.Context, key K) (T, error) {
	token := uuid.New()

	o.mu.Lock()
	o.lastKey, o.hasKey = key, true
	o.state = State[K, T]{Status: StatusLoading, Key: key, Token: token}
	loading := o.state
	o.mu.Unlock()
	o.publish(loading)

	data, err := o.fn(ctx, key)

	next := State[K, T]{Status: StatusSuccess, Key: key, Token: token, Data: data}
	if err != nil {
		next = State[K, T]{Status: StatusError, Key: key, Token: token, Err: err, Message: Message(err)}
	}

	o.mu.Lock()
	current := o.state.Token == token
	if current {
		o.state = next
	}
	o.mu.Unlock()

	if current {
		o.publish(next)
	}
	return data, err
}

// Refetch re-runs the last executed key. It fails with ErrNothingToRefetch
// when nothing has been executed since the last Reset.
func (o *Operation[K, T]) Refetch(ctx context.Context) (T, error) {
	o.mu.Lock()
	key, ok := o.lastKey, o.hasKey
	o.mu.Unlock()

	if !ok {
		var zero T
		return zero, ErrNothingToRefetch
	}
	return o.Execute(ctx, key)
}

// Reset returns to idle. In-flight invocations can no longer write state.
func (o *Operation[K, T]) Reset() {
	o.mu.Lock()
	var zero K
	o.state = State[K, T]{}
	o.lastKey, o.hasKey = zero, false
	idle := o.state
	o.mu.Unlock()
	o.publish(idle)
}

// publish delivers s unless a newer state has replaced it. Deliveries are
// serialised so no observer sees an older state after a newer one.
func (o *Operation[K, T]) publish(s State[K, T]) {
	if len(o.observers) == 0 {
		return
	}
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	o.mu.Lock()
	current := o.state.Token == s.Token && o.state.Status == s.Status
	o.mu.Unlock()
	if !current {
		return
	}
	for _, fn := range o.observers {
		fn(s)
	}
}
