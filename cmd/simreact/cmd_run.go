package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	pumped "github.com/pumped-fn/pumped-react"
	"github.com/pumped-fn/pumped-react/extensions"
	"github.com/pumped-fn/pumped-react/internal/config"
	"github.com/pumped-fn/pumped-react/internal/logging"
	"github.com/pumped-fn/pumped-react/internal/trace"
	"github.com/pumped-fn/pumped-react/pkg/sim"
	"github.com/pumped-fn/pumped-react/pkg/wrappers"
)

type runOptions struct {
	recordPath string
	showStats  bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run --scenario <file>",
		Short: "Run a scenario and print watch changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("scenario")
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")

			sc, err := config.Load(path)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(level, format, cmd.ErrOrStderr())
			return runScenario(cmd.Context(), sc, opts, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("scenario", "", "Scenario file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&opts.recordPath, "record", "", "Record watch changes to this SQLite database")
	cmd.Flags().BoolVar(&opts.showStats, "stats", false, "Print evaluation counts per signal after the run")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

// runScenario builds the simulation, wires the watches and applies the
// scheduled events tick by tick.
func runScenario(ctx context.Context, sc *config.Scenario, opts runOptions, logger *slog.Logger, out io.Writer) error {
	stats := extensions.NewStatsExtension()
	scope := pumped.NewScope(
		pumped.WithLogger(logger),
		pumped.WithExtension(stats),
		pumped.WithExtension(extensions.NewLoggingExtension(logger).WithLevel(logging.LevelTrace)),
		pumped.WithExtension(extensions.NewGraphDebugExtension(logger.Handler())),
	)
	defer closeLogged(logger, "scope", scope.Dispose)

	s, err := buildSimulation(sc)
	if err != nil {
		return err
	}
	registry := wrappers.NewRegistry(scope, s)
	clock := registry.Simulation().Time()

	watches := make([]*watch, 0, len(sc.Watches))
	for _, spec := range sc.Watches {
		w, err := buildWatch(registry, spec)
		if err != nil {
			return fmt.Errorf("watch %s: %w", spec.Name, err)
		}
		watches = append(watches, w)
	}

	var recorder *trace.Recorder
	if opts.recordPath != "" {
		store, err := trace.Open(ctx, opts.recordPath, trace.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closeLogged(logger, "trace store", store.Close)

		recorder, err = trace.NewRecorder(ctx, store, sc.Name, s.Time)
		if err != nil {
			return err
		}
	}

	for _, w := range watches {
		fmt.Fprintf(out, "t=%d %s = %v\n", clock.Now(), w.name, w.now())
		w.observe(func(v any) {
			fmt.Fprintf(out, "t=%d %s = %v\n", clock.Now(), w.name, v)
		})
		if recorder != nil {
			w.record(recorder)
		}
	}

	logger.Info("scenario started", "scenario", sc.Name, "ticks", sc.Ticks, "motes", len(sc.Motes))

	for tick := 1; tick <= sc.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.Step()
		for _, ev := range sc.EventsAt(tick) {
			if err := applyEvent(registry, s, ev); err != nil {
				return fmt.Errorf("tick %d: %w", tick, err)
			}
		}

		if recorder != nil {
			if err := recorder.Flush(ctx); err != nil {
				return fmt.Errorf("tick %d: %w", tick, err)
			}
		}
	}

	if recorder != nil {
		fmt.Fprintf(out, "recording %s\n", recorder.ID())
	}
	if opts.showStats {
		printStats(out, stats)
	}

	logger.Info("scenario finished", "scenario", sc.Name, "time", s.Time())
	return nil
}

// closeLogged runs a deferred close and logs its error, which the caller
// can no longer return
func closeLogged(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("close failed", "resource", what, "error", err)
	}
}

func buildSimulation(sc *config.Scenario) (*sim.Simulation, error) {
	s := sim.NewSimulation()

	for _, spec := range sc.Motes {
		pos := sim.Position{X: spec.X, Y: spec.Y}
		var m sim.Mote
		if spec.HasMemory() {
			m = sim.NewMemoryMote(spec.ID, spec.Type, pos, spec.Memory)
		} else {
			m = sim.NewBasicMote(spec.ID, spec.Type, pos)
		}
		if err := s.AddMote(m); err != nil {
			return nil, err
		}
	}

	for _, c := range sc.Connections {
		s.Radio().Connect(c.From, c.To)
	}

	return s, nil
}

type positioner interface {
	SetPosition(sim.Position)
}

func applyEvent(registry *wrappers.Registry, s *sim.Simulation, ev config.EventSpec) error {
	m, ok := s.Mote(ev.Mote)
	if !ok {
		return fmt.Errorf("mote %d: %w", ev.Mote, sim.ErrUnknownMote)
	}

	switch ev.Action {
	case config.ActionMove:
		p, ok := m.(positioner)
		if !ok {
			return fmt.Errorf("mote %d cannot move", ev.Mote)
		}
		p.SetPosition(sim.Position{X: ev.X, Y: ev.Y})
	case config.ActionWrite:
		mem, err := registry.Wrap(m).Memory()
		if err != nil {
			return err
		}
		mem.Write(ev.Variable, ev.Value)
	case config.ActionConnect:
		s.Radio().Connect(ev.Mote, ev.Peer)
	case config.ActionDisconnect:
		s.Radio().DisconnectPair(ev.Mote, ev.Peer)
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}

	return nil
}

func printStats(out io.Writer, stats *extensions.StatsExtension) {
	snapshot := stats.Snapshot()
	ids := make([]uint64, 0, len(snapshot))
	for id, st := range snapshot {
		if st.Evaluations > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	fmt.Fprintln(out, "evaluations:")
	for _, id := range ids {
		fmt.Fprintf(out, "  %-24s %d\n", snapshot[id].Label, snapshot[id].Evaluations)
	}
}
