// Package wrappers exposes simulation entities as reactive signals.
//
// Each wrapper is built once per entity by a Registry and stays canonical
// while something holds it. Wrapper properties are bridged from the
// entities' observer callbacks, so they can be read inside pumped.Track.
package wrappers

import (
	"errors"
	"fmt"
	"sync"

	pumped "github.com/pumped-fn/pumped-react"
	"github.com/pumped-fn/pumped-react/pkg/sim"
)

// ErrNoMemory is returned when memory access is requested on a mote that
// has none. It wraps errors.ErrUnsupported.
var ErrNoMemory = fmt.Errorf("mote memory: %w", errors.ErrUnsupported)

// MoteWrapper is the reactive view of a mote
type MoteWrapper struct {
	scope  *pumped.Scope
	mote   sim.Mote
	memory *MemoryWrapper

	mu       sync.Mutex
	position pumped.Signal[sim.Position]
	moves    *pumped.Stream[sim.Position]
}

func newMoteWrapper(scope *pumped.Scope, m sim.Mote) *MoteWrapper {
	return &MoteWrapper{scope: scope, mote: m}
}

func newMemoryMoteWrapper(scope *pumped.Scope, m sim.Mote) *MoteWrapper {
	w := newMoteWrapper(scope, m)
	w.memory = newMemoryWrapper(scope, m.ID(), m.(sim.MemoryHolder).Memory())
	return w
}

// ID returns the wrapped mote's id
func (w *MoteWrapper) ID() int {
	return w.mote.ID()
}

// Mote returns the wrapped mote
func (w *MoteWrapper) Mote() sim.Mote {
	return w.mote
}

// Position returns a signal following the mote's position
func (w *MoteWrapper) Position() pumped.Signal[sim.Position] {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.position == nil {
		m := w.mote
		w.position = pumped.ToSignal(w.scope, m.Position, pumped.Observe(m),
			pumped.WithName(fmt.Sprintf("mote%d.position", m.ID())),
		)
	}
	return w.position
}

// Moves returns a stream firing the mote's new position after every move
func (w *MoteWrapper) Moves() *pumped.Stream[sim.Position] {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.moves == nil {
		m := w.mote
		w.moves = pumped.ToStream(w.scope, m.Position, pumped.Observe(m),
			pumped.WithName(fmt.Sprintf("mote%d.moves", m.ID())),
		)
	}
	return w.moves
}

// Memory returns the mote's memory wrapper, or ErrNoMemory when the mote
// was not wrapped with memory access.
func (w *MoteWrapper) Memory() (*MemoryWrapper, error) {
	if w.memory == nil {
		return nil, fmt.Errorf("mote %d (%s): %w", w.mote.ID(), w.mote.Type(), ErrNoMemory)
	}
	return w.memory, nil
}

// MemoryWrapper is the reactive view of a mote's memory
type MemoryWrapper struct {
	scope  *pumped.Scope
	moteID int
	memory *sim.Memory

	mu   sync.Mutex
	vars map[string]pumped.Signal[int]
}

func newMemoryWrapper(scope *pumped.Scope, moteID int, memory *sim.Memory) *MemoryWrapper {
	return &MemoryWrapper{
		scope:  scope,
		moteID: moteID,
		memory: memory,
		vars:   make(map[string]pumped.Signal[int]),
	}
}

// Var returns a signal following the named variable. Missing variables
// read as zero. The signal is built once per name.
func (w *MemoryWrapper) Var(name string) pumped.Signal[int] {
	w.mu.Lock()
	defer w.mu.Unlock()

	if sig, ok := w.vars[name]; ok {
		return sig
	}

	memory := w.memory
	sig := pumped.ToSignal(w.scope, func() int {
		v, _ := memory.Read(name)
		return v
	}, pumped.Observe(memory),
		pumped.WithName(fmt.Sprintf("mote%d.%s", w.moteID, name)),
	)
	w.vars[name] = sig
	return sig
}

// Names returns the variables currently present in memory
func (w *MemoryWrapper) Names() []string {
	return w.memory.Names()
}

// Write stores v in the named variable
func (w *MemoryWrapper) Write(name string, v int) {
	w.memory.Write(name, v)
}
