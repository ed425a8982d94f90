package pumped

//go:generate go run ./codegen -w

// Derive1 returns a signal recomputing fn whenever any of its 1 dependencies changes
func Derive1[T any, D1 any](
	d1 Signal[D1],
	fn func(D1) T,
	opts ...SignalOption,
) Signal[T] {
	return derive(d1.Scope(), func() T {
		return fn(d1.Now())
	}, []AnySignal{d1}, opts)
}

// Derive2 returns a signal recomputing fn whenever any of its 2 dependencies changes
func Derive2[T any, D1 any, D2 any](
	d1 Signal[D1],
	d2 Signal[D2],
	fn func(D1, D2) T,
	opts ...SignalOption,
) Signal[T] {
	return derive(d1.Scope(), func() T {
		return fn(d1.Now(), d2.Now())
	}, []AnySignal{d1, d2}, opts)
}

// Derive3 returns a signal recomputing fn whenever any of its 3 dependencies changes
func Derive3[T any, D1 any, D2 any, D3 any](
	d1 Signal[D1],
	d2 Signal[D2],
	d3 Signal[D3],
	fn func(D1, D2, D3) T,
	opts ...SignalOption,
) Signal[T] {
	return derive(d1.Scope(), func() T {
		return fn(d1.Now(), d2.Now(), d3.Now())
	}, []AnySignal{d1, d2, d3}, opts)
}

// Derive4 returns a signal recomputing fn whenever any of its 4 dependencies changes
func Derive4[T any, D1 any, D2 any, D3 any, D4 any](
	d1 Signal[D1],
	d2 Signal[D2],
	d3 Signal[D3],
	d4 Signal[D4],
	fn func(D1, D2, D3, D4) T,
	opts ...SignalOption,
) Signal[T] {
	return derive(d1.Scope(), func() T {
		return fn(d1.Now(), d2.Now(), d3.Now(), d4.Now())
	}, []AnySignal{d1, d2, d3, d4}, opts)
}

// Derive5 returns a signal recomputing fn whenever any of its 5 dependencies changes
func Derive5[T any, D1 any, D2 any, D3 any, D4 any, D5 any](
	d1 Signal[D1],
	d2 Signal[D2],
	d3 Signal[D3],
	d4 Signal[D4],
	d5 Signal[D5],
	fn func(D1, D2, D3, D4, D5) T,
	opts ...SignalOption,
) Signal[T] {
	return derive(d1.Scope(), func() T {
		return fn(d1.Now(), d2.Now(), d3.Now(), d4.Now(), d5.Now())
	}, []AnySignal{d1, d2, d3, d4, d5}, opts)
}
