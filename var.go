package pumped

// Var is a signal whose value is set explicitly by its owner
type Var[T any] struct {
	*node[T]
}

// NewVar creates a mutable source initialised to initial
func NewVar[T any](s *Scope, initial T, opts ...SignalOption) *Var[T] {
	n := newNode[T](s, KindVar, opts)
	n.value = initial
	return &Var[T]{node: n}
}

// Set stores a new value and propagates it to every dependent before
// returning. Every call propagates, even when the value is unchanged.
func (v *Var[T]) Set(newVal T) {
	op := &Operation{Kind: OpSet, Node: v.node, Scope: v.scope}
	v.scope.run(op, func() {
		v.node.set(newVal)
	})
}

// Update sets the result of fn applied to the current value
func (v *Var[T]) Update(fn func(T) T) {
	v.Set(fn(v.Now()))
}
