package pumped

// Read returns sig's current value and records sig as a dependency of the
// innermost tracked evaluation currently running, if any. The reading
// evaluation and sig may belong to different scopes.
func Read[T any](sig Signal[T]) T {
	if l := tracking.active(); l != nil {
		l.record(sig)
	}
	return sig.Now()
}

// Track evaluates fn once, discovering the signals it reads through Read,
// and returns a signal that re-evaluates fn from scratch whenever any of
// those signals changes.
//
// Dependencies are the ones read on the first evaluation only. A signal
// that fn reads only under some later condition is never subscribed to.
//
// If fn reads no signals a warning is logged and the result is a constant.
func Track[T any](s *Scope, fn func() T, opts ...SignalOption) Signal[T] {
	out := newNode[T](s, KindTracked, opts)
	op := &Operation{Kind: OpEvaluate, Node: out, Scope: s}

	log := s.pool.acquireDepLog()
	defer s.pool.releaseDepLog(log)

	s.run(op, func() {
		out.value = withLog(log, fn)
	})

	deps := log.distinct()
	if len(deps) == 0 {
		out.kind = KindConstant
		if _, named := nameTag.Get(out); !named {
			s.graph.SetLabel(out.id, Label(out))
		}
		s.logger.Warn("tracked expression read no reactive values, result will never change",
			"signal", Label(out),
		)
		return out
	}

	wireDerived(out, fn, deps)
	return out
}

// Untracked evaluates fn without attributing its reads to any enclosing
// tracked evaluation.
func Untracked[T any](fn func() T) T {
	return untracked(fn)
}

// Equal returns a signal that is true while x and y hold equal values.
func Equal[T comparable](s *Scope, x, y Signal[T], opts ...SignalOption) Signal[bool] {
	return Track(s, func() bool {
		return Read(x) == Read(y)
	}, opts...)
}
