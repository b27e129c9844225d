package operation

import "fmt"

// Status is the lifecycle state of an Operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// IsSettled returns true if the status is a terminal outcome of a call.
func (s Status) IsSettled() bool {
	switch s {
	case StatusFulfilled, StatusRejected:
		return true
	}
	return false
}

// State is a snapshot of an Operation. Data is the zero value of Out unless
// Status is StatusFulfilled; Err is nil unless Status is StatusRejected.
type State[Out any] struct {
	Status  Status
	Data    Out
	Loading bool
	Err     *Failure
}

// Idle reports whether the state is the initial or post-reset state.
func (s State[Out]) Idle() bool { return s.Status == StatusIdle }

// Failure is the normalized error stored in State and returned by Execute.
type Failure struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the collaborator's error, or an error synthesized from a
	// recovered panic value.
	Err error

	// Panicked is true when Err was synthesized from a panic.
	Panicked bool
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Op == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

// Unwrap returns the underlying error so errors.Is and errors.As reach the
// collaborator's error types.
func (f *Failure) Unwrap() error { return f.Err }

// Normalize turns any failure value into a *Failure. A *Failure passes
// through unchanged, other errors are wrapped, and any other value is wrapped
// by its string form.
func Normalize(v any) *Failure {
	switch x := v.(type) {
	case nil:
		return nil
	case *Failure:
		return x
	case error:
		return &Failure{Err: x}
	default:
		return &Failure{Err: fmt.Errorf("%v", x)}
	}
}

// recovered normalizes a value recovered from a panic.
func recovered(op string, v any) *Failure {
	f := Normalize(v)
	return &Failure{Op: op, Err: f.Err, Panicked: true}
}
