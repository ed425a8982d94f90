// Package config loads simulation scenarios from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Watch kinds
const (
	WatchVariable  = "variable"
	WatchSum       = "sum"
	WatchEqual     = "equal"
	WatchNeighbors = "neighbors"
	WatchPosition  = "position"
)

// Event actions
const (
	ActionMove       = "move"
	ActionWrite      = "write"
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
)

const (
	defaultMoteType       = "basic"
	defaultMemoryMoteType = "memory"
)

var ErrUnknownFormat = errors.New("unknown scenario format")

// Scenario describes a simulation run: the motes, their initial radio
// links, the watches to build over them and the events applied per tick.
type Scenario struct {
	Name        string           `yaml:"name" toml:"name"`
	Ticks       int              `yaml:"ticks" toml:"ticks"`
	Motes       []MoteSpec       `yaml:"motes" toml:"motes"`
	Connections []ConnectionSpec `yaml:"connections" toml:"connections"`
	Watches     []WatchSpec      `yaml:"watches" toml:"watches"`
	Events      []EventSpec      `yaml:"events" toml:"events"`
}

type MoteSpec struct {
	ID     int            `yaml:"id" toml:"id"`
	Type   string         `yaml:"type" toml:"type"`
	X      float64        `yaml:"x" toml:"x"`
	Y      float64        `yaml:"y" toml:"y"`
	Memory map[string]int `yaml:"memory" toml:"memory"`
}

// HasMemory reports whether the mote is built with memory
func (m MoteSpec) HasMemory() bool {
	return m.Memory != nil
}

type ConnectionSpec struct {
	From int `yaml:"from" toml:"from"`
	To   int `yaml:"to" toml:"to"`
}

// VarRef names one variable of one mote
type VarRef struct {
	Mote     int    `yaml:"mote" toml:"mote"`
	Variable string `yaml:"variable" toml:"variable"`
}

func (r VarRef) String() string {
	return fmt.Sprintf("mote%d.%s", r.Mote, r.Variable)
}

type WatchSpec struct {
	Name     string   `yaml:"name" toml:"name"`
	Kind     string   `yaml:"kind" toml:"kind"`
	Mote     int      `yaml:"mote" toml:"mote"`
	Variable string   `yaml:"variable" toml:"variable"`
	Terms    []VarRef `yaml:"terms" toml:"terms"`
}

type EventSpec struct {
	Tick     int     `yaml:"tick" toml:"tick"`
	Action   string  `yaml:"action" toml:"action"`
	Mote     int     `yaml:"mote" toml:"mote"`
	Variable string  `yaml:"variable" toml:"variable"`
	Value    int     `yaml:"value" toml:"value"`
	X        float64 `yaml:"x" toml:"x"`
	Y        float64 `yaml:"y" toml:"y"`
	Peer     int     `yaml:"peer" toml:"peer"`
}

// Load reads, defaults and validates the scenario at path. The format is
// chosen by file extension: .yaml, .yml or .toml.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario load failed (%s): %w", path, err)
	}

	sc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("scenario parse failed (%s): %w", path, err)
	}

	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return sc, nil
}

// Parse decodes, defaults and validates a scenario. format is a file
// extension or a format name: "yaml", "yml" or "toml".
func Parse(data []byte, format string) (*Scenario, error) {
	var sc Scenario

	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, err
		}
	case "toml":
		if _, err := toml.Decode(string(data), &sc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) applyDefaults() {
	for i := range sc.Motes {
		m := &sc.Motes[i]
		if m.Type == "" {
			if m.HasMemory() {
				m.Type = defaultMemoryMoteType
			} else {
				m.Type = defaultMoteType
			}
		}
	}

	for i := range sc.Watches {
		w := &sc.Watches[i]
		w.Kind = strings.ToLower(strings.TrimSpace(w.Kind))
		if w.Name == "" {
			w.Name = fmt.Sprintf("%s-%d", w.Kind, i+1)
		}
	}

	maxTick := 0
	for i := range sc.Events {
		e := &sc.Events[i]
		e.Action = strings.ToLower(strings.TrimSpace(e.Action))
		maxTick = max(maxTick, e.Tick)
	}
	if sc.Ticks == 0 {
		sc.Ticks = maxTick
	}
}

// Mote returns the configuration of the mote with id
func (sc *Scenario) Mote(id int) (MoteSpec, bool) {
	for _, m := range sc.Motes {
		if m.ID == id {
			return m, true
		}
	}
	return MoteSpec{}, false
}

// EventsAt returns the events scheduled for tick, in file order
func (sc *Scenario) EventsAt(tick int) []EventSpec {
	var out []EventSpec
	for _, e := range sc.Events {
		if e.Tick == tick {
			out = append(out, e)
		}
	}
	return out
}
