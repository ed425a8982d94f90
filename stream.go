package pumped

import (
	"runtime"
	"sync"
)

// Stream is a discrete, push-based sequence of fired values. It has no
// current value.
type Stream[T any] struct {
	id    uint64
	scope *Scope

	mu   sync.RWMutex
	tags map[any]any

	subs callbacks[T]
}

// NewStream creates an empty stream
func NewStream[T any](s *Scope, opts ...SignalOption) *Stream[T] {
	st := &Stream[T]{
		id:    s.nextID(),
		scope: s,
		tags:  make(map[any]any),
	}

	for _, opt := range opts {
		opt(st)
	}

	s.graph.AddNode(st.id, Label(st))
	runtime.AddCleanup(st, s.graph.RemoveNode, st.id)

	return st
}

func (st *Stream[T]) ID() uint64 {
	return st.id
}

func (st *Stream[T]) Kind() SignalKind {
	return KindStream
}

func (st *Stream[T]) Scope() *Scope {
	return st.scope
}

func (st *Stream[T]) GetTag(tag any) (any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	val, ok := st.tags[tag]
	return val, ok
}

func (st *Stream[T]) SetTag(tag any, val any) {
	st.mu.Lock()
	st.tags[tag] = val
	st.mu.Unlock()

	if tag == any(nameTag) && st.scope != nil {
		st.scope.graph.SetLabel(st.id, val.(string))
	}
}

// Fire delivers v to every observer, synchronously and in registration order
func (st *Stream[T]) Fire(v T) {
	op := &Operation{Kind: OpFire, Node: st, Scope: st.scope}
	st.scope.run(op, func() {
		st.subs.notify(v)
	})
}

// Observe calls fn with every fired value
func (st *Stream[T]) Observe(fn func(T)) Cleanup {
	return st.subs.add(fn)
}

// Subscribers returns the number of observers
func (st *Stream[T]) Subscribers() int {
	return st.subs.len()
}

// Hold turns a stream into a signal holding the most recently fired value,
// starting at initial.
func Hold[T any](st *Stream[T], initial T, opts ...SignalOption) Signal[T] {
	s := st.scope
	out := newNode[T](s, KindDerived, opts)
	out.value = initial
	s.graph.AddDependency(out.id, st.id)
	st.Observe(func(v T) {
		out.set(v)
	})
	return out
}

// Changes returns a stream firing the new value of sig after every change
func Changes[T any](sig Signal[T], opts ...SignalOption) *Stream[T] {
	s := sig.Scope()
	out := NewStream[T](s, opts...)
	s.graph.AddDependency(out.id, sig.ID())
	sig.Observe(func(v T) {
		out.Fire(v)
	})
	return out
}

// Filter returns a stream firing only the values of st accepted by pred
func Filter[T any](st *Stream[T], pred func(T) bool, opts ...SignalOption) *Stream[T] {
	s := st.scope
	out := NewStream[T](s, opts...)
	s.graph.AddDependency(out.id, st.id)
	st.Observe(func(v T) {
		if pred(v) {
			out.Fire(v)
		}
	})
	return out
}
