package main

import (
	"fmt"

	pumped "github.com/pumped-fn/pumped-react"
	"github.com/pumped-fn/pumped-react/internal/config"
	"github.com/pumped-fn/pumped-react/internal/trace"
	"github.com/pumped-fn/pumped-react/pkg/sim"
	"github.com/pumped-fn/pumped-react/pkg/wrappers"
)

// watch is a type-erased named signal
type watch struct {
	name    string
	now     func() any
	observe func(fn func(any)) pumped.Cleanup
	record  func(rec *trace.Recorder) pumped.Cleanup
}

func newWatch[T any](name string, sig pumped.Signal[T]) *watch {
	return &watch{
		name: name,
		now: func() any {
			return sig.Now()
		},
		observe: func(fn func(any)) pumped.Cleanup {
			return sig.Observe(func(v T) {
				fn(v)
			})
		},
		record: func(rec *trace.Recorder) pumped.Cleanup {
			return trace.Watch(rec, name, sig)
		},
	}
}

func buildWatch(registry *wrappers.Registry, spec config.WatchSpec) (*watch, error) {
	scope := registry.Scope()
	name := pumped.WithName(spec.Name)

	switch spec.Kind {
	case config.WatchVariable:
		v, err := variable(registry, config.VarRef{Mote: spec.Mote, Variable: spec.Variable})
		if err != nil {
			return nil, err
		}
		return newWatch(spec.Name, v), nil

	case config.WatchSum:
		terms, err := variables(registry, spec.Terms)
		if err != nil {
			return nil, err
		}
		sum := pumped.Track(scope, func() int {
			total := 0
			for _, term := range terms {
				total += pumped.Read(term)
			}
			return total
		}, name)
		return newWatch(spec.Name, sum), nil

	case config.WatchEqual:
		terms, err := variables(registry, spec.Terms)
		if err != nil {
			return nil, err
		}
		if len(terms) != 2 {
			return nil, fmt.Errorf("equal watch needs 2 terms, got %d", len(terms))
		}
		return newWatch(spec.Name, pumped.Equal(scope, terms[0], terms[1], name)), nil

	case config.WatchNeighbors:
		return newWatch(spec.Name, registry.Radio().Neighbors(spec.Mote)), nil

	case config.WatchPosition:
		w, err := registry.Simulation().Mote(spec.Mote)
		if err != nil {
			return nil, err
		}
		return newWatch[sim.Position](spec.Name, w.Position()), nil

	default:
		return nil, fmt.Errorf("unknown watch kind %q", spec.Kind)
	}
}

func variable(registry *wrappers.Registry, ref config.VarRef) (pumped.Signal[int], error) {
	w, err := registry.Simulation().Mote(ref.Mote)
	if err != nil {
		return nil, err
	}
	mem, err := w.Memory()
	if err != nil {
		return nil, err
	}
	return mem.Var(ref.Variable), nil
}

func variables(registry *wrappers.Registry, refs []config.VarRef) ([]pumped.Signal[int], error) {
	out := make([]pumped.Signal[int], 0, len(refs))
	for _, ref := range refs {
		v, err := variable(registry, ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		out = append(out, v)
	}
	return out, nil
}
