package sim

import (
	"fmt"
	"slices"
	"sync"
)

// Position is a mote's location in the simulated plane
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// Mote is a simulated node. Its observers fire when its position changes.
type Mote interface {
	ID() int
	Type() string
	Position() Position
	AddObserver(fn func())
}

// MemoryHolder is implemented by motes that expose named integer memory
type MemoryHolder interface {
	Memory() *Memory
}

// BasicMote is a mote with a position and nothing else
type BasicMote struct {
	id  int
	typ string

	mu  sync.RWMutex
	pos Position
	obs Observers
}

// NewBasicMote creates a mote at pos
func NewBasicMote(id int, typ string, pos Position) *BasicMote {
	return &BasicMote{id: id, typ: typ, pos: pos}
}

func (m *BasicMote) ID() int {
	return m.id
}

func (m *BasicMote) Type() string {
	return m.typ
}

func (m *BasicMote) Position() Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pos
}

// SetPosition moves the mote and notifies its observers
func (m *BasicMote) SetPosition(pos Position) {
	m.mu.Lock()
	m.pos = pos
	m.mu.Unlock()

	m.obs.Notify()
}

func (m *BasicMote) AddObserver(fn func()) {
	m.obs.AddObserver(fn)
}

func (m *BasicMote) String() string {
	return fmt.Sprintf("%s#%d", m.typ, m.id)
}

// MemoryMote is a mote with named integer memory
type MemoryMote struct {
	*BasicMote
	memory *Memory
}

// NewMemoryMote creates a mote whose memory starts with vars
func NewMemoryMote(id int, typ string, pos Position, vars map[string]int) *MemoryMote {
	return &MemoryMote{
		BasicMote: NewBasicMote(id, typ, pos),
		memory:    NewMemory(vars),
	}
}

func (m *MemoryMote) Memory() *Memory {
	return m.memory
}

// Memory is a set of named integer variables. Its observers fire after
// every write, whichever variable was written.
type Memory struct {
	mu     sync.RWMutex
	values map[string]int
	obs    Observers
}

// NewMemory creates memory holding a copy of vars
func NewMemory(vars map[string]int) *Memory {
	values := make(map[string]int, len(vars))
	for k, v := range vars {
		values[k] = v
	}
	return &Memory{values: values}
}

// Read returns the value of name
func (m *Memory) Read(name string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// Write stores v under name and notifies observers
func (m *Memory) Write(name string, v int) {
	m.mu.Lock()
	m.values[name] = v
	m.mu.Unlock()

	m.obs.Notify()
}

// Names returns the variable names in sorted order
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values))
	for k := range m.values {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func (m *Memory) AddObserver(fn func()) {
	m.obs.AddObserver(fn)
}
