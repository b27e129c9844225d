// Package operation tracks an asynchronous request/response call as an
// observable, resettable state machine.
//
// An Operation moves Idle -> Pending on Execute and Pending -> Fulfilled or
// Rejected when the call returns. Reset moves any state back to Idle. Every
// Execute and Reset bumps a generation counter; a call only commits its
// outcome to the shared state if no Execute or Reset happened after it
// started, so late results never overwrite newer state.
package operation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Func is a capability call bound to a client.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// None is the input type of operations that take no argument.
type None struct{}

// Nullary adapts a zero-argument call to a Func taking None.
func Nullary[Out any](fn func(context.Context) (Out, error)) Func[None, Out] {
	return func(ctx context.Context, _ None) (Out, error) {
		return fn(ctx)
	}
}

// Option configures an Operation.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger attaches a logger for transitions and dropped stale results.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Operation is the state machine for one capability. It is safe for
// concurrent use.
type Operation[In, Out any] struct {
	name   string
	call   Func[In, Out]
	logger *zap.Logger

	mu      sync.Mutex
	gen     uint64
	state   State[Out]
	subs    map[uint64]chan State[Out]
	nextSub uint64
}

// New creates an Idle Operation around call.
func New[In, Out any](name string, call Func[In, Out], opts ...Option) *Operation[In, Out] {
	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Operation[In, Out]{
		name:   name,
		call:   call,
		logger: cfg.logger.With(zap.String("operation", name)),
		state:  State[Out]{Status: StatusIdle},
		subs:   make(map[uint64]chan State[Out]),
	}
}

// Name returns the operation's name.
func (o *Operation[In, Out]) Name() string { return o.name }

// State returns the current snapshot.
func (o *Operation[In, Out]) State() State[Out] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Execute moves the operation to Pending, runs the call, and commits the
// outcome unless a newer Execute or a Reset superseded this one. The caller
// always receives this call's own outcome; failures come back as *Failure.
func (o *Operation[In, Out]) Execute(ctx context.Context, in In) (Out, error) {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.setLocked(State[Out]{Status: StatusPending, Loading: true})
	o.mu.Unlock()

	out, failure := o.invoke(ctx, in)

	o.mu.Lock()
	if gen == o.gen {
		if failure != nil {
			o.setLocked(State[Out]{Status: StatusRejected, Err: failure})
		} else {
			o.setLocked(State[Out]{Status: StatusFulfilled, Data: out})
		}
		o.mu.Unlock()
	} else {
		current := o.gen
		o.mu.Unlock()
		o.logger.Debug("dropped stale result",
			zap.Uint64("generation", gen),
			zap.Uint64("current", current),
			zap.Bool("failed", failure != nil))
	}

	if failure != nil {
		var zero Out
		return zero, failure
	}
	return out, nil
}

// Reset returns the operation to Idle. Calls still in flight keep running
// but their outcomes are discarded.
func (o *Operation[In, Out]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.setLocked(State[Out]{Status: StatusIdle})
}

// Subscribe returns a channel that receives the current state immediately
// and every later state. The channel holds one snapshot; a slow reader skips
// intermediate snapshots but always sees the latest. The returned func stops
// delivery and closes the channel.
func (o *Operation[In, Out]) Subscribe() (<-chan State[Out], func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan State[Out], 1)
	ch <- o.state
	o.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// invoke runs the call, converting errors and panics into a *Failure.
func (o *Operation[In, Out]) invoke(ctx context.Context, in In) (out Out, failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			out, failure = zero, recovered(o.name, r)
			o.logger.Warn("call panicked", zap.Any("panic", r))
		}
	}()

	res, err := o.call(ctx, in)
	if err != nil {
		var zero Out
		return zero, o.normalize(err)
	}
	return res, nil
}

func (o *Operation[In, Out]) normalize(err error) *Failure {
	f := Normalize(err)
	if f.Op == "" {
		f = &Failure{Op: o.name, Err: f.Err, Panicked: f.Panicked}
	}
	return f
}

// setLocked replaces the state and publishes it. o.mu must be held.
func (o *Operation[In, Out]) setLocked(s State[Out]) {
	o.state = s
	for _, ch := range o.subs {
		select {
		case ch <- s:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
