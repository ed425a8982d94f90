package sim

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrDuplicateMote = errors.New("mote id already registered")
	ErrUnknownMote   = errors.New("unknown mote")
)

// Simulation owns the motes, the radio medium and the tick clock.
//
// Observers added with AddObserver fire after every Step. Observers added
// with AddMoteObserver fire when motes are added or removed.
type Simulation struct {
	mu    sync.RWMutex
	time  int64
	motes []Mote
	byID  map[int]Mote
	radio *RadioMedium

	clock   Observers
	members Observers
}

// NewSimulation creates an empty simulation at time 0
func NewSimulation() *Simulation {
	return &Simulation{
		byID:  make(map[int]Mote),
		radio: NewRadioMedium(),
	}
}

// Time returns the current tick
func (s *Simulation) Time() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// Step advances the clock by one tick and notifies clock observers
func (s *Simulation) Step() int64 {
	s.mu.Lock()
	s.time++
	now := s.time
	s.mu.Unlock()

	s.clock.Notify()
	return now
}

// AddMote registers m
func (s *Simulation) AddMote(m Mote) error {
	s.mu.Lock()
	if _, exists := s.byID[m.ID()]; exists {
		s.mu.Unlock()
		return fmt.Errorf("adding mote %d: %w", m.ID(), ErrDuplicateMote)
	}
	s.byID[m.ID()] = m
	s.motes = append(s.motes, m)
	s.mu.Unlock()

	s.members.Notify()
	return nil
}

// RemoveMote unregisters the mote with id and drops its connections
func (s *Simulation) RemoveMote(id int) error {
	s.mu.Lock()
	m, exists := s.byID[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("removing mote %d: %w", id, ErrUnknownMote)
	}
	delete(s.byID, id)
	s.motes = slices.DeleteFunc(s.motes, func(other Mote) bool { return other == m })
	s.mu.Unlock()

	s.radio.DisconnectMote(id)
	s.members.Notify()
	return nil
}

// Mote returns the mote with id
func (s *Simulation) Mote(id int) (Mote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	return m, ok
}

// Motes returns the registered motes in registration order
func (s *Simulation) Motes() []Mote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.motes)
}

// MoteIDs returns the registered mote ids in registration order
func (s *Simulation) MoteIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, len(s.motes))
	for i, m := range s.motes {
		ids[i] = m.ID()
	}
	return ids
}

// Radio returns the simulation's radio medium
func (s *Simulation) Radio() *RadioMedium {
	return s.radio
}

// AddObserver registers fn to run after every Step
func (s *Simulation) AddObserver(fn func()) {
	s.clock.AddObserver(fn)
}

// AddMoteObserver registers fn to run when motes are added or removed
func (s *Simulation) AddMoteObserver(fn func()) {
	s.members.AddObserver(fn)
}

// Connection is a directed radio link between two motes
type Connection struct {
	ID          uuid.UUID `json:"id"`
	Source      int       `json:"source"`
	Destination int       `json:"destination"`
}

// Touches reports whether the connection starts or ends at mote id
func (c Connection) Touches(id int) bool {
	return c.Source == id || c.Destination == id
}

// RadioMedium is the set of active connections
type RadioMedium struct {
	mu    sync.RWMutex
	conns []Connection
	obs   Observers
}

// NewRadioMedium creates a medium with no connections
func NewRadioMedium() *RadioMedium {
	return &RadioMedium{}
}

// Connect adds a connection from src to dst and notifies observers
func (r *RadioMedium) Connect(src, dst int) Connection {
	c := Connection{ID: uuid.New(), Source: src, Destination: dst}

	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()

	r.obs.Notify()
	return c
}

// Disconnect removes the connection with id. It reports whether one was removed.
func (r *RadioMedium) Disconnect(id uuid.UUID) bool {
	return r.removeWhere(func(c Connection) bool { return c.ID == id }) > 0
}

// DisconnectPair removes every connection from src to dst
func (r *RadioMedium) DisconnectPair(src, dst int) int {
	return r.removeWhere(func(c Connection) bool {
		return c.Source == src && c.Destination == dst
	})
}

// DisconnectMote removes every connection touching id
func (r *RadioMedium) DisconnectMote(id int) int {
	return r.removeWhere(func(c Connection) bool { return c.Touches(id) })
}

// Connections returns a copy of the active connections in creation order
func (r *RadioMedium) Connections() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.conns)
}

func (r *RadioMedium) AddObserver(fn func()) {
	r.obs.AddObserver(fn)
}

func (r *RadioMedium) removeWhere(match func(Connection) bool) int {
	r.mu.Lock()
	before := len(r.conns)
	r.conns = slices.DeleteFunc(r.conns, match)
	removed := before - len(r.conns)
	r.mu.Unlock()

	if removed > 0 {
		r.obs.Notify()
	}
	return removed
}
