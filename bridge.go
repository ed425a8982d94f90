package pumped

// SubscribeFunc registers notify to be called every time an observed entity
// changes. Notifications carry no payload.
type SubscribeFunc func(notify func())

// Observable is implemented by entities that announce changes to
// registered callbacks. Its AddObserver method value is a SubscribeFunc.
type Observable interface {
	AddObserver(fn func())
}

// Observe adapts an Observable to a SubscribeFunc
func Observe(o Observable) SubscribeFunc {
	return o.AddObserver
}

// ToStream returns a stream that fires eval() on every notification
// delivered through subscribe. Nothing is evaluated until the first
// notification.
func ToStream[T any](s *Scope, eval func() T, subscribe SubscribeFunc, opts ...SignalOption) *Stream[T] {
	out := NewStream[T](s, opts...)
	op := &Operation{Kind: OpNotify, Node: out, Scope: s}

	subscribe(func() {
		var v T
		s.run(op, func() {
			v = untracked(eval)
		})
		out.Fire(v)
	})

	return out
}

// ToSignal returns a signal initialised to eval() and set to a fresh eval()
// on every notification delivered through subscribe.
//
// A panic in eval is not recovered: during construction it aborts
// ToSignal, during a notification it propagates to whoever notified.
func ToSignal[T any](s *Scope, eval func() T, subscribe SubscribeFunc, opts ...SignalOption) Signal[T] {
	out := newNode[T](s, KindBridged, opts)

	s.run(&Operation{Kind: OpEvaluate, Node: out, Scope: s}, func() {
		out.value = untracked(eval)
	})

	op := &Operation{Kind: OpNotify, Node: out, Scope: s}
	subscribe(func() {
		var v T
		s.run(op, func() {
			v = untracked(eval)
		})
		out.set(v)
	})

	return out
}
