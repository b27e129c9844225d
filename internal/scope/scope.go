// Package scope owns the one safety client shared by everything inside a
// scope.
//
// A Scope is created from a credential and optional configuration. Its client
// is constructed lazily on the first Handle call and then reused for the
// scope's whole lifetime. Scopes travel to descendants either explicitly or
// through a context.Context; looking one up from a context that carries none
// fails with a *MissingError.
package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dusk-indust/safeguard/internal/safety"
)

var (
	// ErrMissing matches any *MissingError.
	ErrMissing = errors.New("scope: no client scope in context")

	// ErrClosed is returned by Handle after Close.
	ErrClosed = errors.New("scope: closed")
)

// MissingError is returned when a lookup runs outside an active scope.
type MissingError struct {
	// Op names the lookup that failed.
	Op string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("scope: %s called outside an active client scope", e.Op)
}

// Is reports whether target is ErrMissing.
func (e *MissingError) Is(target error) bool { return target == ErrMissing }

// Factory constructs the client for a scope. It must not perform I/O.
type Factory func(credential string, cfg *safety.Config) (safety.Client, error)

// HTTPFactory builds a *safety.HTTPClient that logs through logger.
func HTTPFactory(logger *zap.Logger) Factory {
	return func(credential string, cfg *safety.Config) (safety.Client, error) {
		return safety.New(credential, cfg, safety.WithLogger(logger))
	}
}

// Handle is the client shared within one scope.
type Handle struct {
	client safety.Client
	cfg    *safety.Config
}

// Client returns the shared client.
func (h *Handle) Client() safety.Client { return h.client }

// Config returns the configuration the client was built with, or nil.
func (h *Handle) Config() *safety.Config { return h.cfg }

// Lookup is the result of resolving a scope's handle.
type Lookup struct {
	Handle *Handle
	Ready  bool
	Err    error // construction error when Ready is false
}

// Option configures a Scope.
type Option func(*Scope)

// WithFactory replaces the client constructor.
func WithFactory(f Factory) Option {
	return func(s *Scope) {
		if f != nil {
			s.factory = f
		}
	}
}

// WithLogger attaches a logger for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scope) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scope holds at most one Handle for its lifetime.
type Scope struct {
	credential string
	cfg        *safety.Config
	factory    Factory
	logger     *zap.Logger

	once   sync.Once
	handle *Handle
	err    error

	mu     sync.RWMutex
	closed bool
}

// New creates a scope. No client is constructed until Handle is called.
// The configuration is copied; later changes to cfg have no effect.
func New(credential string, cfg *safety.Config, opts ...Option) *Scope {
	var own *safety.Config
	if cfg != nil {
		c := *cfg
		own = &c
	}
	s := &Scope{
		credential: credential,
		cfg:        own,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = HTTPFactory(s.logger)
	}
	return s
}

// Handle returns the scope's handle, constructing the client on first use.
// Every later call returns the same handle, or the same construction error.
func (s *Scope) Handle() (*Handle, error) {
	if s.Closed() {
		return nil, ErrClosed
	}

	s.once.Do(func() {
		client, err := s.factory(s.credential, s.cfg)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.err = fmt.Errorf("scope: construct client: %w", err)
			s.logger.Error("client construction failed", zap.Error(err))
			return
		}
		s.handle = &Handle{client: client, cfg: s.cfg}
		s.logger.Debug("client constructed")
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.handle, s.err
}

// Lookup resolves the handle and reports whether it is ready.
func (s *Scope) Lookup() Lookup {
	h, err := s.Handle()
	return Lookup{Handle: h, Ready: err == nil && h != nil, Err: err}
}

// Close tears the scope down. The handle is released and Handle returns
// ErrClosed from then on. Close is idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.handle = nil
	s.logger.Debug("scope closed")
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s. A nested NewContext shadows
// the outer scope for its descendants.
func NewContext(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Provide runs fn inside a new scope built from credential and cfg, and
// closes the scope when fn returns. Everything fn spawns must finish before
// it returns.
func Provide(ctx context.Context, credential string, cfg *safety.Config, fn func(context.Context) error, opts ...Option) error {
	s := New(credential, cfg, opts...)
	defer s.Close()
	return fn(NewContext(ctx, s))
}

// FromContext returns the innermost scope carried by ctx.
func FromContext(ctx context.Context) (*Scope, error) {
	s, ok := ctx.Value(ctxKey{}).(*Scope)
	if !ok || s == nil {
		return nil, &MissingError{Op: "FromContext"}
	}
	return s, nil
}

// Resolve returns the handle of the scope carried by ctx.
func Resolve(ctx context.Context) (*Handle, error) {
	s, ok := ctx.Value(ctxKey{}).(*Scope)
	if !ok || s == nil {
		return nil, &MissingError{Op: "Resolve"}
	}
	return s.Handle()
}

// Use looks up the scope carried by ctx and reports its handle. It fails
// only when ctx carries no scope; construction errors are reported in
// Lookup.Err.
func Use(ctx context.Context) (Lookup, error) {
	s, ok := ctx.Value(ctxKey{}).(*Scope)
	if !ok || s == nil {
		return Lookup{}, &MissingError{Op: "Use"}
	}
	return s.Lookup(), nil
}
