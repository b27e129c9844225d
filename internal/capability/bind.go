// Package capability binds each safety API capability to an operation.
//
// Every capability goes through the same generic factory: a method
// expression on safety.Client plus its calling convention. A Set holds one
// operation per capability, all sharing the client of one scope.
package capability

import (
	"context"

	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
	"github.com/dusk-indust/safeguard/internal/scope"
)

// Arity is a capability's calling convention.
type Arity string

const (
	// ArityRequired methods take one input record.
	ArityRequired Arity = "required"

	// ArityOptional methods take a filter pointer that may be nil.
	ArityOptional Arity = "optional"

	// ArityNone methods take no argument; their operations take operation.None.
	ArityNone Arity = "none"
)

// Bind creates an operation calling method on the client of s. method is a
// method expression such as safety.Client.DetectBullying. Bind fails if the
// scope's client cannot be constructed.
func Bind[In, Out any](s *scope.Scope, name string, method func(safety.Client, context.Context, In) (Out, error), opts ...operation.Option) (*operation.Operation[In, Out], error) {
	h, err := s.Handle()
	if err != nil {
		return nil, err
	}
	return bind(h.Client(), name, method, opts), nil
}

// BindOptional is Bind for methods whose argument is an optional filter.
// Executing with a nil filter passes nil through to the client.
func BindOptional[F, Out any](s *scope.Scope, name string, method func(safety.Client, context.Context, *F) (Out, error), opts ...operation.Option) (*operation.Operation[*F, Out], error) {
	return Bind(s, name, method, opts...)
}

// BindNone is Bind for methods that take no argument, such as
// safety.Client.ExportAccountData.
func BindNone[Out any](s *scope.Scope, name string, method func(safety.Client, context.Context) (Out, error), opts ...operation.Option) (*operation.Operation[operation.None, Out], error) {
	h, err := s.Handle()
	if err != nil {
		return nil, err
	}
	return bindNone(h.Client(), name, method, opts), nil
}

func bind[In, Out any](c safety.Client, name string, method func(safety.Client, context.Context, In) (Out, error), opts []operation.Option) *operation.Operation[In, Out] {
	return operation.New[In, Out](name, func(ctx context.Context, in In) (Out, error) {
		return method(c, ctx, in)
	}, opts...)
}

func bindNone[Out any](c safety.Client, name string, method func(safety.Client, context.Context) (Out, error), opts []operation.Option) *operation.Operation[operation.None, Out] {
	return operation.New[operation.None, Out](name, operation.Nullary[Out](func(ctx context.Context) (Out, error) {
		return method(c, ctx)
	}), opts...)
}
