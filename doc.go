// Package pumped bridges observer-style change notifications into a graph
// of push-based reactive values, and derives new values from arbitrary
// expressions by discovering at run time which values they read.
//
// # Overview
//
// Pumped is organised around four pieces:
//
//  1. Signals: values with a current reading that announce changes (Var,
//     Constant and every derived signal)
//  2. Streams: discrete events without a current value
//  3. The bridge: ToSignal and ToStream turn "something changed" callbacks
//     into signals and streams
//  4. Tracking: Track evaluates an expression, records every signal it
//     reads through Read, and keeps the result up to date
//
// A Scope owns the graph and the extensions. Tracking is process-wide: a
// Track in one scope may read signals of another.
//
// # Basic Usage
//
//	scope := pumped.NewScope()
//
//	a := pumped.NewVar(scope, 1)
//	b := pumped.NewVar(scope, 2)
//
//	sum := pumped.Track(scope, func() int {
//	    return pumped.Read(a) + pumped.Read(b)
//	})
//
//	sum.Now()  // 3
//	a.Set(5)
//	sum.Now()  // 7
//
// Explicit derivations do not need Read:
//
//	doubled := pumped.Map(a, func(v int) int { return v * 2 })
//	total := pumped.Derive2(a, b, func(x, y int) int { return x + y })
//
// # Bridging Observers
//
// Any entity that can register a change callback can feed the graph:
//
//	position := pumped.ToSignal(scope,
//	    func() Position { return mote.Position() },
//	    mote.AddObserver,
//	)
//
//	moves := pumped.ToStream(scope,
//	    func() Position { return mote.Position() },
//	    mote.AddObserver,
//	)
//
// ToSignal evaluates once at construction; ToStream only on notification.
// Neither offers an unsubscribe: the subscription lives as long as the
// entity does.
//
// # Tracking
//
// Track installs a fresh dependency log for the duration of one evaluation.
// Nested Track calls install their own log, so reads made inside an inner
// expression belong to the inner signal only. The previous log is restored
// even when the expression panics.
//
// Dependencies are discovered on the first evaluation and never revised.
// An expression that reads some signal only under a condition that was
// false the first time will not react to it:
//
//	// flag is false initially: b is never tracked
//	pumped.Track(scope, func() int {
//	    if pumped.Read(flag) {
//	        return pumped.Read(b)
//	    }
//	    return 0
//	})
//
// An expression that reads nothing produces a constant and a warning on the
// scope's logger.
//
// # Wrapper Identity
//
// WrapperCache maps an entity to exactly one wrapper for as long as the
// wrapper is referenced, holding wrappers weakly so that long sessions do
// not accumulate stale ones:
//
//	cache := pumped.NewWrapperCache(newGenericWrapper)
//	cache.Prepend(pumped.ConversionRule[sim.Mote, Wrapper]{
//	    Name:  "memory",
//	    Match: pumped.MatchType[sim.Mote, sim.MemoryCapable](),
//	    New:   newMemoryWrapper,
//	})
//	w := cache.Wrap(mote)
//
// # Propagation
//
// Every change propagates synchronously and depth-first, in subscription
// order, before Set, Fire or the notifying call returns. Changes are not
// batched: a signal depending on two values is recomputed once per
// individual change, and may briefly observe one updated and one stale
// input.
//
// # Extensions
//
// Extensions wrap every evaluate, set, fire and notify operation and are
// told about panics before they propagate:
//
//	scope := pumped.NewScope(
//	    pumped.WithExtension(extensions.NewLoggingExtension(logger)),
//	)
//
// # Thread Safety
//
// Subscriber lists, tags, the graph and WrapperCache are safe for
// concurrent use. Tracking and propagation are not: deliver notifications
// and run Track for a given scope from one goroutine at a time.
package pumped
