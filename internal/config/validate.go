package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError describes an invalid scenario field
type ValidationError struct {
	Message string
	Path    []string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s at %s", e.Message, strings.Join(e.Path, "."))
	}
	return e.Message
}

func invalid(msg string, path ...string) error {
	return &ValidationError{Message: msg, Path: path}
}

func index(i int) string {
	return strconv.Itoa(i)
}

// Validate checks that every reference in the scenario resolves
func (sc *Scenario) Validate() error {
	if sc.Ticks < 0 {
		return invalid("ticks must not be negative", "ticks")
	}

	seen := make(map[int]bool, len(sc.Motes))
	for i, m := range sc.Motes {
		if seen[m.ID] {
			return invalid(fmt.Sprintf("duplicate mote id %d", m.ID), "motes", index(i), "id")
		}
		seen[m.ID] = true
	}

	for i, c := range sc.Connections {
		if !seen[c.From] {
			return invalid(fmt.Sprintf("unknown mote %d", c.From), "connections", index(i), "from")
		}
		if !seen[c.To] {
			return invalid(fmt.Sprintf("unknown mote %d", c.To), "connections", index(i), "to")
		}
	}

	for i, w := range sc.Watches {
		if err := sc.validateWatch(w, "watches", index(i)); err != nil {
			return err
		}
	}

	for i, e := range sc.Events {
		if err := sc.validateEvent(e, "events", index(i)); err != nil {
			return err
		}
	}

	return nil
}

func (sc *Scenario) validateWatch(w WatchSpec, path ...string) error {
	switch w.Kind {
	case WatchVariable:
		return sc.validateVarRef(VarRef{Mote: w.Mote, Variable: w.Variable}, path...)
	case WatchSum, WatchEqual:
		if len(w.Terms) == 0 {
			return invalid(w.Kind+" watch needs terms", append(path, "terms")...)
		}
		if w.Kind == WatchEqual && len(w.Terms) != 2 {
			return invalid("equal watch needs exactly 2 terms", append(path, "terms")...)
		}
		for j, term := range w.Terms {
			if err := sc.validateVarRef(term, append(path, "terms", index(j))...); err != nil {
				return err
			}
		}
		return nil
	case WatchNeighbors, WatchPosition:
		if _, ok := sc.Mote(w.Mote); !ok {
			return invalid(fmt.Sprintf("unknown mote %d", w.Mote), append(path, "mote")...)
		}
		return nil
	default:
		return invalid(fmt.Sprintf("unknown watch kind %q", w.Kind), append(path, "kind")...)
	}
}

func (sc *Scenario) validateVarRef(ref VarRef, path ...string) error {
	m, ok := sc.Mote(ref.Mote)
	if !ok {
		return invalid(fmt.Sprintf("unknown mote %d", ref.Mote), append(path, "mote")...)
	}
	if !m.HasMemory() {
		return invalid(fmt.Sprintf("mote %d has no memory", ref.Mote), append(path, "mote")...)
	}
	if strings.TrimSpace(ref.Variable) == "" {
		return invalid("variable is required", append(path, "variable")...)
	}
	return nil
}

func (sc *Scenario) validateEvent(e EventSpec, path ...string) error {
	if e.Tick < 1 || e.Tick > sc.Ticks {
		return invalid(fmt.Sprintf("tick %d outside 1..%d", e.Tick, sc.Ticks), append(path, "tick")...)
	}

	switch e.Action {
	case ActionMove:
		if _, ok := sc.Mote(e.Mote); !ok {
			return invalid(fmt.Sprintf("unknown mote %d", e.Mote), append(path, "mote")...)
		}
	case ActionWrite:
		return sc.validateVarRef(VarRef{Mote: e.Mote, Variable: e.Variable}, path...)
	case ActionConnect, ActionDisconnect:
		if _, ok := sc.Mote(e.Mote); !ok {
			return invalid(fmt.Sprintf("unknown mote %d", e.Mote), append(path, "mote")...)
		}
		if _, ok := sc.Mote(e.Peer); !ok {
			return invalid(fmt.Sprintf("unknown mote %d", e.Peer), append(path, "peer")...)
		}
	default:
		return invalid(fmt.Sprintf("unknown action %q", e.Action), append(path, "action")...)
	}

	return nil
}
