package pumped

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
)

var ErrScopeDisposed = errors.New("scope is disposed")

// Scope owns a reactive graph: the signals created in it, their dependency
// edges, and the extensions observing operations.
//
// Propagation is synchronous. The tracker used by Track and Read is a
// single process-wide stack, so tracked evaluation and notification delivery
// must happen on one goroutine at a time.
type Scope struct {
	mu         sync.RWMutex
	tags       sync.Map
	extensions []Extension
	logger     *slog.Logger
	graph      *ReactiveGraph
	pool       *PoolManager
	disposed   atomic.Bool

	// panic bookkeeping for nested operations
	depth         int
	panicReported bool
}

// ScopeOption is a modifier for scopes
type ScopeOption func(*Scope)

// WithScopeTag returns an option that sets a tag on a scope
func WithScopeTag[T any](tag Tag[T], val T) ScopeOption {
	return func(s *Scope) {
		tag.SetOnScope(s, val)
	}
}

// WithExtension returns an option that registers an extension to a scope
func WithExtension(ext Extension) ScopeOption {
	return func(s *Scope) {
		if err := s.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ScopeOption {
	return func(s *Scope) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScope creates a new scope with optional configuration
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{
		extensions: []Extension{},
		logger:     slog.Default(),
		graph:      NewReactiveGraph(),
		pool:       NewPoolManager(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Logger returns the scope's diagnostic logger
func (s *Scope) Logger() *slog.Logger {
	return s.logger
}

// Graph returns the dependency graph of the scope's signals
func (s *Scope) Graph() *ReactiveGraph {
	return s.graph
}

// Pool returns the pool manager backing dependency logs
func (s *Scope) Pool() *PoolManager {
	return s.pool
}

// Dependencies returns the IDs of the signals n was derived from.
func (s *Scope) Dependencies(n AnyNode) []uint64 {
	return s.graph.GetDependencies(n.ID())
}

// Dependents returns the IDs of the nodes directly derived from n.
func (s *Scope) Dependents(n AnyNode) []uint64 {
	return s.graph.GetDirectDependents(n.ID())
}

// ExportDependencyGraph returns a copy of the downstream adjacency list.
func (s *Scope) ExportDependencyGraph() map[uint64][]uint64 {
	return s.graph.Export()
}

// UseExtension registers an extension to the scope
func (s *Scope) UseExtension(ext Extension) error {
	if s.disposed.Load() {
		return ErrScopeDisposed
	}

	s.mu.Lock()
	s.extensions = append(s.extensions, ext)
	sort.SliceStable(s.extensions, func(i, j int) bool {
		return s.extensions[i].Order() < s.extensions[j].Order()
	})
	s.mu.Unlock()

	return ext.Init(s)
}

// Dispose releases the scope's extensions. Signals keep their last values.
func (s *Scope) Dispose() error {
	if !s.disposed.CompareAndSwap(false, true) {
		return ErrScopeDisposed
	}

	exts := s.snapshotExtensions()
	for _, ext := range exts {
		if err := ext.Dispose(s); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}

	return nil
}

// IsDisposed reports whether Dispose has been called
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// GetTag retrieves a tag value from the scope
func (s *Scope) GetTag(tag any) (any, bool) {
	return s.tags.Load(tag)
}

// SetTag stores a tag value on the scope
func (s *Scope) SetTag(tag any, val any) {
	s.tags.Store(tag, val)
}

// node ids are unique across scopes so cross-scope dependencies stay
// unambiguous in graphs and extensions
var nodeIDs atomic.Uint64

func (s *Scope) nextID() uint64 {
	return nodeIDs.Add(1)
}

func (s *Scope) snapshotExtensions() []Extension {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	return exts
}

// run executes fn as op, chained through the registered extensions.
// A panic raised by fn is reported to extensions once, at the innermost
// operation, and then re-raised with its original value.
func (s *Scope) run(op *Operation, fn func()) {
	exts := s.snapshotExtensions()
	if len(exts) == 0 {
		fn()
		return
	}

	next := fn
	// Apply extensions in reverse order (last registered wraps first)
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() {
			ext.Wrap(currentNext, op)
		}
	}

	s.depth++
	defer func() {
		s.depth--
		r := recover()
		if r != nil && !s.panicReported {
			s.panicReported = true
			evalErr := &EvalError{
				Node:       op.Node,
				Op:         op.Kind,
				Recovered:  r,
				StackTrace: debug.Stack(),
			}
			for _, ext := range exts {
				ext.OnPanic(evalErr, op)
			}
		}
		if s.depth == 0 {
			s.panicReported = false
		}
		if r != nil {
			panic(r)
		}
	}()

	next()
}
