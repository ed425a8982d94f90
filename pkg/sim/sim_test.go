package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers_NotifyInOrder(t *testing.T) {
	var obs Observers
	var calls []int

	obs.AddObserver(func() { calls = append(calls, 1) })
	obs.AddObserver(func() { calls = append(calls, 2) })
	obs.Notify()

	assert.Equal(t, []int{1, 2}, calls)
	assert.Equal(t, 2, obs.Len())
}

func TestBasicMote_SetPositionNotifies(t *testing.T) {
	m := NewBasicMote(1, "sky", Position{X: 1, Y: 2})
	notified := 0
	m.AddObserver(func() { notified++ })

	m.SetPosition(Position{X: 3, Y: 4})

	assert.Equal(t, Position{X: 3, Y: 4}, m.Position())
	assert.Equal(t, 1, notified)
	assert.Equal(t, "sky#1", m.String())
}

func TestMemory_WriteNotifies(t *testing.T) {
	m := NewMemoryMote(2, "z1", Position{}, map[string]int{"counter": 0, "alpha": 1})
	notified := 0
	m.Memory().AddObserver(func() { notified++ })

	m.Memory().Write("counter", 5)

	v, ok := m.Memory().Read("counter")
	require.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"alpha", "counter"}, m.Memory().Names())

	_, ok = m.Memory().Read("missing")
	assert.False(t, ok)
}

func TestMemoryHolder(t *testing.T) {
	var basic Mote = NewBasicMote(1, "sky", Position{})
	var withMemory Mote = NewMemoryMote(2, "z1", Position{}, nil)

	_, ok := basic.(MemoryHolder)
	assert.False(t, ok)
	_, ok = withMemory.(MemoryHolder)
	assert.True(t, ok)
}

func TestSimulation_StepNotifiesClockObservers(t *testing.T) {
	s := NewSimulation()
	var seen []int64
	s.AddObserver(func() { seen = append(seen, s.Time()) })

	s.Step()
	s.Step()

	assert.Equal(t, []int64{1, 2}, seen)
}

func TestSimulation_Motes(t *testing.T) {
	s := NewSimulation()
	changes := 0
	s.AddMoteObserver(func() { changes++ })

	require.NoError(t, s.AddMote(NewBasicMote(1, "sky", Position{})))
	require.NoError(t, s.AddMote(NewBasicMote(2, "sky", Position{})))
	err := s.AddMote(NewBasicMote(1, "sky", Position{}))
	require.ErrorIs(t, err, ErrDuplicateMote)

	assert.Equal(t, []int{1, 2}, s.MoteIDs())
	assert.Equal(t, 2, changes)

	s.Radio().Connect(1, 2)
	require.NoError(t, s.RemoveMote(1))
	assert.Equal(t, []int{2}, s.MoteIDs())
	assert.Empty(t, s.Radio().Connections())
	assert.ErrorIs(t, s.RemoveMote(1), ErrUnknownMote)

	_, ok := s.Mote(2)
	assert.True(t, ok)
}

func TestRadioMedium(t *testing.T) {
	r := NewRadioMedium()
	notified := 0
	r.AddObserver(func() { notified++ })

	c1 := r.Connect(1, 2)
	c2 := r.Connect(2, 3)
	r.Connect(1, 2)

	assert.NotEqual(t, c1.ID, c2.ID)
	assert.Len(t, r.Connections(), 3)
	assert.Equal(t, 3, notified)

	assert.True(t, r.Disconnect(c2.ID))
	assert.False(t, r.Disconnect(c2.ID))
	assert.Equal(t, 2, r.DisconnectPair(1, 2))
	assert.Equal(t, 0, r.DisconnectPair(1, 2))
	assert.Empty(t, r.Connections())
	assert.Equal(t, 5, notified)
}
