package extensions

import (
	"sync"

	pumped "github.com/pumped-fn/pumped-react"
)

// NodeStats counts the operations run for one node
type NodeStats struct {
	Label       string
	Evaluations int
	Sets        int
	Fires       int
	Notifies    int
	Panics      int
}

// StatsExtension counts operations per node. It is the easiest way to
// check how often a tracked expression recomputes.
type StatsExtension struct {
	pumped.BaseExtension

	mu    sync.Mutex
	nodes map[uint64]*NodeStats
}

// NewStatsExtension creates an empty stats extension
func NewStatsExtension() *StatsExtension {
	return &StatsExtension{
		BaseExtension: pumped.NewBaseExtension("stats"),
		nodes:         make(map[uint64]*NodeStats),
	}
}

// Order runs stats ahead of other extensions so it counts every attempt
func (e *StatsExtension) Order() int {
	return 10
}

func (e *StatsExtension) Wrap(next func(), op *pumped.Operation) {
	if op.Node != nil {
		e.mu.Lock()
		st := e.entry(op.Node)
		switch op.Kind {
		case pumped.OpEvaluate:
			st.Evaluations++
		case pumped.OpSet:
			st.Sets++
		case pumped.OpFire:
			st.Fires++
		case pumped.OpNotify:
			st.Notifies++
		}
		e.mu.Unlock()
	}

	next()
}

func (e *StatsExtension) OnPanic(err *pumped.EvalError, op *pumped.Operation) {
	if op.Node == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entry(op.Node).Panics++
}

// Evaluations returns how many times node has been evaluated
func (e *StatsExtension) Evaluations(node pumped.AnyNode) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.nodes[node.ID()]; ok {
		return st.Evaluations
	}
	return 0
}

// Snapshot returns a copy of the per-node counters keyed by node ID
func (e *StatsExtension) Snapshot() map[uint64]NodeStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[uint64]NodeStats, len(e.nodes))
	for id, st := range e.nodes {
		out[id] = *st
	}
	return out
}

// Reset clears every counter
func (e *StatsExtension) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.nodes)
}

// Dispose drops the counters
func (e *StatsExtension) Dispose(scope *pumped.Scope) error {
	e.Reset()
	return nil
}

func (e *StatsExtension) entry(n pumped.AnyNode) *NodeStats {
	st, ok := e.nodes[n.ID()]
	if !ok {
		st = &NodeStats{Label: pumped.Label(n)}
		e.nodes[n.ID()] = st
	}
	return st
}
