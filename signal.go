package pumped

import (
	"fmt"
	"runtime"
	"sync"
)

// Cleanup removes a subscription
type Cleanup func()

// SignalKind records how a node was produced
type SignalKind string

const (
	KindVar      SignalKind = "var"
	KindConstant SignalKind = "constant"
	KindDerived  SignalKind = "derived"
	KindTracked  SignalKind = "tracked"
	KindBridged  SignalKind = "bridged"
	KindStream   SignalKind = "stream"
)

// AnyNode is the type-erased view of a signal or stream, used for
// identity, tags and graph bookkeeping.
type AnyNode interface {
	ID() uint64
	Kind() SignalKind
	Scope() *Scope
	GetTag(tag any) (any, bool)
	SetTag(tag any, val any)
}

// AnySignal is a node with a current value that announces changes.
type AnySignal interface {
	AnyNode
	subscribe(fn func()) Cleanup
}

// Signal is a continuous, push-based holder of a current value.
type Signal[T any] interface {
	AnySignal
	// Now returns the current value without recording a dependency
	Now() T
	// Observe calls fn with the new value after every change
	Observe(fn func(T)) Cleanup
}

// SignalOption is a modifier for signals and streams
type SignalOption func(AnyNode)

// WithTag returns an option that sets a tag on a signal or stream
func WithTag[T any](tag Tag[T], val T) SignalOption {
	return func(n AnyNode) {
		tag.Set(n, val)
	}
}

// WithName names a node for logs and graph dumps
func WithName(name string) SignalOption {
	return WithTag(nameTag, name)
}

// Label returns a node's name, or a generated one when unnamed
func Label(n AnyNode) string {
	if n == nil {
		return "<none>"
	}
	if name, ok := nameTag.Get(n); ok {
		return name
	}
	return fmt.Sprintf("%s#%d", n.Kind(), n.ID())
}

type callback[A any] struct {
	id uint64
	fn func(A)
}

// callbacks is an ordered subscriber list. Callbacks run outside the lock,
// in registration order.
type callbacks[A any] struct {
	mu   sync.Mutex
	next uint64
	list []callback[A]
}

func (l *callbacks[A]) add(fn func(A)) Cleanup {
	l.mu.Lock()
	l.next++
	id := l.next
	l.list = append(l.list, callback[A]{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, cb := range l.list {
			if cb.id == id {
				l.list = append(l.list[:i:i], l.list[i+1:]...)
				return
			}
		}
	}
}

func (l *callbacks[A]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.list)
}

func (l *callbacks[A]) notify(v A) {
	l.mu.Lock()
	list := make([]callback[A], len(l.list))
	copy(list, l.list)
	l.mu.Unlock()

	for _, cb := range list {
		cb.fn(v)
	}
}

// node is the single Signal implementation behind vars, constants and
// derived values.
type node[T any] struct {
	id    uint64
	kind  SignalKind
	scope *Scope

	mu    sync.RWMutex
	value T
	tags  map[any]any

	subs callbacks[T]
}

func newNode[T any](s *Scope, kind SignalKind, opts []SignalOption) *node[T] {
	n := &node[T]{
		id:    s.nextID(),
		kind:  kind,
		scope: s,
		tags:  make(map[any]any),
	}

	for _, opt := range opts {
		opt(n)
	}

	s.graph.AddNode(n.id, Label(n))
	runtime.AddCleanup(n, s.graph.RemoveNode, n.id)

	return n
}

func (n *node[T]) ID() uint64 {
	return n.id
}

func (n *node[T]) Kind() SignalKind {
	return n.kind
}

func (n *node[T]) Scope() *Scope {
	return n.scope
}

func (n *node[T]) GetTag(tag any) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	val, ok := n.tags[tag]
	return val, ok
}

func (n *node[T]) SetTag(tag any, val any) {
	n.mu.Lock()
	n.tags[tag] = val
	n.mu.Unlock()

	if tag == any(nameTag) && n.scope != nil {
		n.scope.graph.SetLabel(n.id, val.(string))
	}
}

func (n *node[T]) Now() T {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value
}

func (n *node[T]) Observe(fn func(T)) Cleanup {
	return n.subs.add(fn)
}

func (n *node[T]) subscribe(fn func()) Cleanup {
	return n.subs.add(func(T) {
		fn()
	})
}

// Subscribers returns the number of callbacks currently registered
func (n *node[T]) Subscribers() int {
	return n.subs.len()
}

// set stores v and notifies subscribers depth-first in registration order
func (n *node[T]) set(v T) {
	n.mu.Lock()
	n.value = v
	n.mu.Unlock()

	n.subs.notify(v)
}

// Constant returns a signal fixed at v
func Constant[T any](s *Scope, v T, opts ...SignalOption) Signal[T] {
	n := newNode[T](s, KindConstant, opts)
	n.value = v
	return n
}

// Map derives a signal by applying fn to src's current and future values
func Map[T any, U any](src Signal[T], fn func(T) U, opts ...SignalOption) Signal[U] {
	return Derive1(src, fn, opts...)
}

// SubscriberCount reports how many callbacks are registered on sig.
func SubscriberCount(sig AnySignal) int {
	if c, ok := sig.(interface{ Subscribers() int }); ok {
		return c.Subscribers()
	}
	return 0
}

// derive builds a signal over explicitly listed dependencies
func derive[T any](s *Scope, eval func() T, deps []AnySignal, opts []SignalOption) Signal[T] {
	out := newNode[T](s, KindDerived, opts)
	op := &Operation{Kind: OpEvaluate, Node: out, Scope: s}
	s.run(op, func() {
		out.value = untracked(eval)
	})
	wireDerived(out, eval, deps)
	return out
}

// wireDerived connects out to deps: every change of any dependency runs
// eval from scratch and stores the result. Each dependency is subscribed
// once, in the order given.
func wireDerived[T any](out *node[T], eval func() T, deps []AnySignal) {
	s := out.scope
	op := &Operation{Kind: OpEvaluate, Node: out, Scope: s}

	recompute := func() {
		var v T
		s.run(op, func() {
			v = untracked(eval)
		})
		out.set(v)
	}

	for _, dep := range deps {
		s.graph.AddDependency(out.id, dep.ID())
		dep.subscribe(recompute)
	}
}
