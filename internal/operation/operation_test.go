package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// result is what a gated call eventually returns.
type result struct {
	out string
	err error
}

// gate is a controllable call: each invocation blocks until the test
// resolves or rejects it by key.
type gate struct {
	mu      sync.Mutex
	pending map[string]chan result
	started chan string
}

func newGate() *gate {
	return &gate{
		pending: make(map[string]chan result),
		started: make(chan string, 16),
	}
}

func (g *gate) call(ctx context.Context, key string) (string, error) {
	ch := make(chan result, 1)
	g.mu.Lock()
	g.pending[key] = ch
	g.mu.Unlock()
	g.started <- key

	select {
	case r := <-ch:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gate) settle(t *testing.T, key string, r result) {
	t.Helper()
	g.mu.Lock()
	ch, ok := g.pending[key]
	g.mu.Unlock()
	require.True(t, ok, "call %q never started", key)
	ch <- r
}

// outcome is what an Execute caller observed.
type outcome struct {
	out string
	err error
}

// start runs Execute in the background and waits until the call is in flight.
func start(t *testing.T, op *Operation[string, string], g *gate, key string) <-chan outcome {
	t.Helper()
	done := make(chan outcome, 1)
	go func() {
		out, err := op.Execute(context.Background(), key)
		done <- outcome{out: out, err: err}
	}()
	require.Equal(t, key, <-g.started)
	return done
}

func TestOperation_InitialStateIsIdle(t *testing.T) {
	op := New("idle", func(context.Context, string) (string, error) { return "", nil })

	want := State[string]{Status: StatusIdle}
	if diff := cmp.Diff(want, op.State()); diff != "" {
		t.Fatalf("initial state mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, op.State().Idle())
	assert.Equal(t, "idle", op.Name())
}

func TestOperation_ExecuteFulfills(t *testing.T) {
	op := New("ok", func(_ context.Context, in string) (string, error) {
		return "echo:" + in, nil
	})

	out, err := op.Execute(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)

	st := op.State()
	assert.Equal(t, StatusFulfilled, st.Status)
	assert.Equal(t, "echo:hi", st.Data)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.True(t, st.Status.IsSettled())
}

func TestOperation_ExecuteRejects(t *testing.T) {
	cause := errors.New("upstream exploded")
	op := New("bad", func(context.Context, string) (string, error) {
		return "partial", cause
	})

	out, err := op.Execute(context.Background(), "x")
	require.Error(t, err)
	assert.Empty(t, out, "a failed call returns the zero value")
	assert.ErrorIs(t, err, cause)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "bad", f.Op)
	assert.False(t, f.Panicked)

	st := op.State()
	assert.Equal(t, StatusRejected, st.Status)
	assert.Empty(t, st.Data)
	assert.False(t, st.Loading)
	require.NotNil(t, st.Err)
	assert.Same(t, f, st.Err, "state and caller see the same failure")
}

func TestOperation_PendingIsEnteredBeforeTheCall(t *testing.T) {
	var op *Operation[string, string]
	var seen State[string]
	op = New("sync", func(context.Context, string) (string, error) {
		seen = op.State()
		return "done", nil
	})

	_, err := op.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, seen.Status)
	assert.True(t, seen.Loading)
	assert.Empty(t, seen.Data)
	assert.Nil(t, seen.Err)
}

func TestOperation_PendingClearsPreviousOutcome(t *testing.T) {
	g := newGate()
	op := New("clear", g.call)

	done := start(t, op, g, "first")
	g.settle(t, "first", result{out: "one"})
	<-done
	require.Equal(t, "one", op.State().Data)

	done = start(t, op, g, "second")
	st := op.State()
	assert.Equal(t, StatusPending, st.Status)
	assert.Empty(t, st.Data, "loading implies no data")
	assert.Nil(t, st.Err)

	g.settle(t, "second", result{out: "two"})
	<-done
}

func TestOperation_ResetFromEveryState(t *testing.T) {
	idle := State[string]{Status: StatusIdle}

	t.Run("fulfilled", func(t *testing.T) {
		op := New("r", func(context.Context, string) (string, error) { return "v", nil })
		_, _ = op.Execute(context.Background(), "x")
		op.Reset()
		assert.Empty(t, cmp.Diff(idle, op.State()))
	})

	t.Run("rejected", func(t *testing.T) {
		op := New("r", func(context.Context, string) (string, error) { return "", errors.New("no") })
		_, _ = op.Execute(context.Background(), "x")
		op.Reset()
		assert.Empty(t, cmp.Diff(idle, op.State()))
	})

	t.Run("idle", func(t *testing.T) {
		op := New("r", func(context.Context, string) (string, error) { return "", nil })
		op.Reset()
		assert.Empty(t, cmp.Diff(idle, op.State()))
	})

	t.Run("pending", func(t *testing.T) {
		g := newGate()
		op := New("r", g.call)
		done := start(t, op, g, "A")
		op.Reset()
		assert.Empty(t, cmp.Diff(idle, op.State()))
		g.settle(t, "A", result{out: "late"})
		<-done
	})
}

func TestOperation_RaceNewerCallWins(t *testing.T) {
	g := newGate()
	op := New("race", g.call)

	doneA := start(t, op, g, "A")
	doneB := start(t, op, g, "B")

	g.settle(t, "B", result{out: "b-result"})
	b := <-doneB
	require.NoError(t, b.err)
	assert.Equal(t, "b-result", b.out)

	g.settle(t, "A", result{out: "a-result"})
	a := <-doneA
	require.NoError(t, a.err)
	assert.Equal(t, "a-result", a.out, "the superseded caller still gets its own outcome")

	st := op.State()
	assert.Equal(t, StatusFulfilled, st.Status)
	assert.Equal(t, "b-result", st.Data, "A's late result must be dropped")
}

func TestOperation_RaceOlderSettlesFirst(t *testing.T) {
	g := newGate()
	op := New("race", g.call)

	doneA := start(t, op, g, "A")
	doneB := start(t, op, g, "B")

	g.settle(t, "A", result{out: "a-result"})
	<-doneA
	st := op.State()
	assert.Equal(t, StatusPending, st.Status, "A settling must not end B's pending state")
	assert.Empty(t, st.Data)

	errB := errors.New("b failed")
	g.settle(t, "B", result{err: errB})
	b := <-doneB
	require.ErrorIs(t, b.err, errB)

	st = op.State()
	assert.Equal(t, StatusRejected, st.Status)
	require.NotNil(t, st.Err)
	assert.ErrorIs(t, st.Err, errB)
}

func TestOperation_StaleFailureIsDropped(t *testing.T) {
	g := newGate()
	op := New("race", g.call)

	doneA := start(t, op, g, "A")
	doneB := start(t, op, g, "B")

	g.settle(t, "B", result{out: "b-result"})
	<-doneB
	g.settle(t, "A", result{err: errors.New("a failed")})
	a := <-doneA
	require.Error(t, a.err)

	st := op.State()
	assert.Equal(t, StatusFulfilled, st.Status)
	assert.Nil(t, st.Err)
}

func TestOperation_ResetDuringFlight(t *testing.T) {
	g := newGate()
	op := New("reset", g.call)

	done := start(t, op, g, "A")
	op.Reset()

	g.settle(t, "A", result{out: "a-result"})
	a := <-done
	require.NoError(t, a.err)
	assert.Equal(t, "a-result", a.out)

	st := op.State()
	assert.True(t, st.Idle(), "a late result must not resurrect settled state")
	assert.Empty(t, st.Data)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
}

func TestOperation_ExecuteAfterResetCommits(t *testing.T) {
	g := newGate()
	op := New("reset", g.call)

	doneA := start(t, op, g, "A")
	op.Reset()
	doneB := start(t, op, g, "B")

	g.settle(t, "A", result{out: "a"})
	<-doneA
	assert.Equal(t, StatusPending, op.State().Status)

	g.settle(t, "B", result{out: "b"})
	<-doneB
	assert.Equal(t, "b", op.State().Data)
}

func TestOperation_NormalizesPanics(t *testing.T) {
	t.Run("non-error value", func(t *testing.T) {
		op := New("panicky", func(context.Context, string) (string, error) {
			panic("boom")
		})

		_, err := op.Execute(context.Background(), "x")
		require.Error(t, err)

		var f *Failure
		require.True(t, errors.As(err, &f))
		assert.True(t, f.Panicked)
		assert.Equal(t, "panicky: boom", f.Error())

		st := op.State()
		assert.Equal(t, StatusRejected, st.Status)
		assert.Same(t, f, st.Err)
	})

	t.Run("error value", func(t *testing.T) {
		cause := errors.New("typed")
		op := New("panicky", func(context.Context, string) (string, error) {
			panic(cause)
		})

		_, err := op.Execute(context.Background(), "x")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("integer value", func(t *testing.T) {
		op := New("panicky", func(context.Context, string) (string, error) {
			panic(42)
		})

		_, err := op.Execute(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "42")
	})
}

func TestOperation_FailurePassesThrough(t *testing.T) {
	inner := &Failure{Op: "inner", Err: errors.New("nested")}
	op := New("outer", func(context.Context, string) (string, error) {
		return "", inner
	})

	_, err := op.Execute(context.Background(), "x")
	assert.Same(t, inner, err)
}

func TestOperation_ContextCancellationRejects(t *testing.T) {
	g := newGate()
	op := New("cancel", g.call)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := op.Execute(ctx, "A")
		done <- err
	}()
	<-g.started
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusRejected, op.State().Status)
}

func TestOperation_SubscribeSeesLatestState(t *testing.T) {
	op := New("sub", func(_ context.Context, in string) (string, error) {
		return in, nil
	})

	ch, cancel := op.Subscribe()
	defer cancel()

	first := <-ch
	assert.Equal(t, StatusIdle, first.Status)

	_, err := op.Execute(context.Background(), "v")
	require.NoError(t, err)

	latest := <-ch
	assert.Equal(t, StatusFulfilled, latest.Status, "pending is replaced by the newer snapshot")
	assert.Equal(t, "v", latest.Data)
}

func TestOperation_SubscribeObservesPending(t *testing.T) {
	g := newGate()
	op := New("sub", g.call)

	ch, cancel := op.Subscribe()
	defer cancel()
	<-ch

	done := start(t, op, g, "A")
	pending := <-ch
	assert.Equal(t, StatusPending, pending.Status)
	assert.True(t, pending.Loading)

	g.settle(t, "A", result{out: "a"})
	<-done
	settled := <-ch
	assert.Equal(t, StatusFulfilled, settled.Status)
}

func TestOperation_UnsubscribeClosesChannel(t *testing.T) {
	op := New("sub", func(context.Context, string) (string, error) { return "", nil })

	ch, cancel := op.Subscribe()
	cancel()
	cancel() // idempotent

	for range ch {
	}
	_, ok := <-ch
	assert.False(t, ok)

	_, err := op.Execute(context.Background(), "x")
	require.NoError(t, err, "publishing after unsubscribe must not panic")
}

func TestOperation_InstancesAreIsolated(t *testing.T) {
	g := newGate()
	a := New("a", g.call)
	b := New("b", func(context.Context, string) (string, error) { return "b", nil })

	done := start(t, a, g, "A")
	_, err := b.Execute(context.Background(), "x")
	require.NoError(t, err)
	b.Reset()

	assert.Equal(t, StatusPending, a.State().Status)
	g.settle(t, "A", result{out: "a"})
	<-done
	assert.Equal(t, "a", a.State().Data)
	assert.True(t, b.State().Idle())
}

func TestOperation_ConcurrentUseKeepsInvariants(t *testing.T) {
	op := New("stress", func(_ context.Context, in string) (string, error) {
		if len(in)%2 == 0 {
			return "", errors.New("even")
		}
		return in, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%7 == 0 {
				op.Reset()
				return
			}
			_, _ = op.Execute(context.Background(), fmt.Sprintf("%0*d", i%3+1, i))
		}()
	}
	wg.Wait()

	st := op.State()
	switch st.Status {
	case StatusIdle:
		assert.Empty(t, st.Data)
		assert.Nil(t, st.Err)
	case StatusFulfilled:
		assert.NotEmpty(t, st.Data)
		assert.Nil(t, st.Err)
	case StatusRejected:
		assert.Empty(t, st.Data)
		assert.NotNil(t, st.Err)
	default:
		t.Fatalf("no call is in flight, got status %q", st.Status)
	}
	assert.False(t, st.Loading)
}

func TestNullary(t *testing.T) {
	calls := 0
	op := New("none", Nullary(func(context.Context) (int, error) {
		calls++
		return 7, nil
	}))

	out, err := op.Execute(context.Background(), None{})
	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, 1, calls)
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	f := &Failure{Err: errors.New("x")}
	assert.Same(t, f, Normalize(f))

	cause := errors.New("wrapped")
	got := Normalize(fmt.Errorf("ctx: %w", cause))
	assert.ErrorIs(t, got, cause)
	assert.Equal(t, "ctx: wrapped", got.Error())

	got = Normalize("plain string")
	assert.Equal(t, "plain string", got.Error())
}

func TestStatus_IsSettled(t *testing.T) {
	assert.False(t, StatusIdle.IsSettled())
	assert.False(t, StatusPending.IsSettled())
	assert.True(t, StatusFulfilled.IsSettled())
	assert.True(t, StatusRejected.IsSettled())
}
