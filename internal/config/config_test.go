package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlScenario = `
name: two-counters
motes:
  - id: 1
    memory: {x: 1}
  - id: 2
    memory: {x: 2}
  - id: 3
    x: 10
    y: 5
connections:
  - {from: 1, to: 2}
watches:
  - kind: sum
    terms:
      - {mote: 1, variable: x}
      - {mote: 2, variable: x}
  - name: n1
    kind: Neighbors
    mote: 1
events:
  - {tick: 1, action: write, mote: 1, variable: x, value: 5}
  - {tick: 3, action: connect, mote: 3, peer: 1}
`

const tomlScenario = `
ticks = 4

[[motes]]
id = 1
type = "sky"

[[motes]]
id = 2
[motes.memory]
counter = 0

[[watches]]
kind = "variable"
mote = 2
variable = "counter"

[[watches]]
kind = "position"
mote = 1

[[events]]
tick = 2
action = "move"
mote = 1
x = 3.5
y = 1.0
`

func TestParse_YAML(t *testing.T) {
	sc, err := Parse([]byte(yamlScenario), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, "two-counters", sc.Name)
	assert.Equal(t, 3, sc.Ticks)
	require.Len(t, sc.Motes, 3)
	assert.Equal(t, "memory", sc.Motes[0].Type)
	assert.Equal(t, "basic", sc.Motes[2].Type)
	assert.Equal(t, 10.0, sc.Motes[2].X)

	require.Len(t, sc.Watches, 2)
	assert.Equal(t, "sum-1", sc.Watches[0].Name)
	assert.Equal(t, WatchNeighbors, sc.Watches[1].Kind)
	assert.Equal(t, "n1", sc.Watches[1].Name)

	assert.Len(t, sc.EventsAt(1), 1)
	assert.Empty(t, sc.EventsAt(2))
}

func TestParse_TOML(t *testing.T) {
	sc, err := Parse([]byte(tomlScenario), "toml")
	require.NoError(t, err)

	assert.Equal(t, 4, sc.Ticks)
	assert.Equal(t, "sky", sc.Motes[0].Type)
	assert.Equal(t, map[string]int{"counter": 0}, sc.Motes[1].Memory)
	assert.Equal(t, "memory", sc.Motes[1].Type)
	assert.Equal(t, "variable-1", sc.Watches[0].Name)

	events := sc.EventsAt(2)
	require.Len(t, events, 1)
	assert.Equal(t, ActionMove, events[0].Action)
	assert.Equal(t, 3.5, events[0].X)
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), "json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad_DefaultsNameFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radio-test.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlScenario), 0o600))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "radio-test", sc.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		message string
		path    string
	}{
		{
			name:    "duplicate mote",
			yaml:    "motes: [{id: 1}, {id: 1}]",
			message: "duplicate mote id 1",
			path:    "motes.1.id",
		},
		{
			name:    "connection to unknown mote",
			yaml:    "motes: [{id: 1}]\nconnections: [{from: 1, to: 9}]",
			message: "unknown mote 9",
			path:    "connections.0.to",
		},
		{
			name:    "variable on mote without memory",
			yaml:    "motes: [{id: 1}]\nwatches: [{kind: variable, mote: 1, variable: x}]",
			message: "mote 1 has no memory",
			path:    "watches.0.mote",
		},
		{
			name:    "equal needs two terms",
			yaml:    "motes: [{id: 1, memory: {x: 1}}]\nwatches: [{kind: equal, terms: [{mote: 1, variable: x}]}]",
			message: "equal watch needs exactly 2 terms",
			path:    "watches.0.terms",
		},
		{
			name:    "unknown watch kind",
			yaml:    "motes: [{id: 1}]\nwatches: [{kind: product, mote: 1}]",
			message: `unknown watch kind "product"`,
			path:    "watches.0.kind",
		},
		{
			name:    "event beyond ticks",
			yaml:    "ticks: 2\nmotes: [{id: 1}]\nevents: [{tick: 5, action: move, mote: 1}]",
			message: "tick 5 outside 1..2",
			path:    "events.0.tick",
		},
		{
			name:    "unknown action",
			yaml:    "motes: [{id: 1}]\nevents: [{tick: 1, action: explode, mote: 1}]",
			message: `unknown action "explode"`,
			path:    "events.0.action",
		},
		{
			name:    "connect to unknown peer",
			yaml:    "motes: [{id: 1}]\nevents: [{tick: 1, action: connect, mote: 1, peer: 4}]",
			message: "unknown mote 4",
			path:    "events.0.peer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "yaml")
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.message, verr.Message)
			assert.Equal(t, tt.message+" at "+tt.path, verr.Error())
		})
	}
}
