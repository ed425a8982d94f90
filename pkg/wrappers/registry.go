package wrappers

import (
	"fmt"
	"slices"
	"sync"

	pumped "github.com/pumped-fn/pumped-react"
	"github.com/pumped-fn/pumped-react/pkg/sim"
)

// MoteRule picks a wrapper constructor for the motes it matches
type MoteRule = pumped.ConversionRule[sim.Mote, MoteWrapper]

// Registry hands out the canonical wrappers of one simulation
type Registry struct {
	scope *pumped.Scope
	sim   *sim.Simulation

	motes *pumped.WrapperCache[sim.Mote, MoteWrapper]
	sims  *pumped.WrapperCache[*sim.Simulation, SimWrapper]
	radio *pumped.WrapperCache[*sim.RadioMedium, RadioWrapper]
}

// NewRegistry creates a registry for s whose signals live in scope.
// Motes implementing sim.MemoryHolder get memory access by default.
func NewRegistry(scope *pumped.Scope, s *sim.Simulation) *Registry {
	r := &Registry{scope: scope, sim: s}

	r.motes = pumped.NewWrapperCache(func(m sim.Mote) *MoteWrapper {
		return newMoteWrapper(scope, m)
	})
	r.motes.Prepend(DefaultRules(scope)...)

	r.sims = pumped.NewWrapperCache(func(s *sim.Simulation) *SimWrapper {
		return newSimWrapper(r, s)
	})
	r.radio = pumped.NewWrapperCache(func(m *sim.RadioMedium) *RadioWrapper {
		return newRadioWrapper(scope, m)
	})

	return r
}

// DefaultRules returns the built-in mote conversion rules
func DefaultRules(scope *pumped.Scope) []MoteRule {
	return []MoteRule{
		{
			Name:  "memory",
			Match: pumped.MatchType[sim.Mote, sim.MemoryHolder](),
			New: func(m sim.Mote) *MoteWrapper {
				return newMemoryMoteWrapper(scope, m)
			},
		},
	}
}

// Scope returns the scope the wrappers' signals live in
func (r *Registry) Scope() *pumped.Scope {
	return r.scope
}

// Wrap returns the canonical wrapper for m
func (r *Registry) Wrap(m sim.Mote) *MoteWrapper {
	return r.motes.Wrap(m)
}

// Prepend registers rules ahead of the existing ones
func (r *Registry) Prepend(rules ...MoteRule) {
	r.motes.Prepend(rules...)
}

// ClearRules drops every mote rule. Existing wrappers are kept.
func (r *Registry) ClearRules() {
	r.motes.ClearRules()
}

// Rules returns the mote rule names in match order
func (r *Registry) Rules() []string {
	return r.motes.Rules()
}

// Simulation returns the simulation wrapper
func (r *Registry) Simulation() *SimWrapper {
	return r.sims.Wrap(r.sim)
}

// Radio returns the radio medium wrapper
func (r *Registry) Radio() *RadioWrapper {
	return r.radio.Wrap(r.sim.Radio())
}

// SimWrapper is the reactive view of a simulation
type SimWrapper struct {
	registry *Registry
	sim      *sim.Simulation

	mu    sync.Mutex
	time  pumped.Signal[int64]
	motes pumped.Signal[[]int]
}

func newSimWrapper(r *Registry, s *sim.Simulation) *SimWrapper {
	return &SimWrapper{registry: r, sim: s}
}

// Time returns a signal following the simulation clock
func (w *SimWrapper) Time() pumped.Signal[int64] {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.time == nil {
		s := w.sim
		w.time = pumped.ToSignal(w.registry.scope, s.Time, pumped.Observe(s),
			pumped.WithName("sim.time"),
		)
	}
	return w.time
}

// Motes returns a signal following the registered mote ids
func (w *SimWrapper) Motes() pumped.Signal[[]int] {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.motes == nil {
		s := w.sim
		w.motes = pumped.ToSignal(w.registry.scope, s.MoteIDs, s.AddMoteObserver,
			pumped.WithName("sim.motes"),
		)
	}
	return w.motes
}

// Mote returns the wrapper of the mote with id
func (w *SimWrapper) Mote(id int) (*MoteWrapper, error) {
	m, ok := w.sim.Mote(id)
	if !ok {
		return nil, fmt.Errorf("mote %d: %w", id, sim.ErrUnknownMote)
	}
	return w.registry.Wrap(m), nil
}

// RadioWrapper is the reactive view of the radio medium
type RadioWrapper struct {
	scope  *pumped.Scope
	medium *sim.RadioMedium

	mu          sync.Mutex
	connections pumped.Signal[[]sim.Connection]
}

func newRadioWrapper(scope *pumped.Scope, m *sim.RadioMedium) *RadioWrapper {
	return &RadioWrapper{scope: scope, medium: m}
}

// Connections returns a signal following the active connections
func (w *RadioWrapper) Connections() pumped.Signal[[]sim.Connection] {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.connections == nil {
		m := w.medium
		w.connections = pumped.ToSignal(w.scope, m.Connections, pumped.Observe(m),
			pumped.WithName("radio.connections"),
		)
	}
	return w.connections
}

// Neighbors returns a tracked signal counting the distinct motes that
// mote id has a connection with, in either direction.
func (w *RadioWrapper) Neighbors(id int) pumped.Signal[int] {
	conns := w.Connections()
	return pumped.Track(w.scope, func() int {
		var peers []int
		for _, c := range pumped.Read(conns) {
			switch {
			case c.Source == id && c.Destination != id:
				peers = append(peers, c.Destination)
			case c.Destination == id && c.Source != id:
				peers = append(peers, c.Source)
			}
		}
		slices.Sort(peers)
		return len(slices.Compact(peers))
	}, pumped.WithName(fmt.Sprintf("mote%d.neighbors", id)))
}

// Connected returns a tracked signal that is true while a connection from
// src to dst exists.
func (w *RadioWrapper) Connected(src, dst int) pumped.Signal[bool] {
	conns := w.Connections()
	return pumped.Track(w.scope, func() bool {
		return slices.ContainsFunc(pumped.Read(conns), func(c sim.Connection) bool {
			return c.Source == src && c.Destination == dst
		})
	}, pumped.WithName(fmt.Sprintf("radio.%d->%d", src, dst)))
}
