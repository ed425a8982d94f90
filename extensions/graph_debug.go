package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	pumped "github.com/pumped-fn/pumped-react"
)

// GraphDebugExtension logs dependency graph visualization when an
// evaluation panics.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(extensions.NewSilentHandler())
//
// The extension logs at ERROR level.
type GraphDebugExtension struct {
	pumped.BaseExtension

	mu sync.Mutex
	// Track nodes as they're evaluated
	evaluated map[uint64]bool
	failed    map[uint64]any
	logger    *slog.Logger
}

// NewGraphDebugExtension creates a new graph debug extension.
// logHandler: slog.Handler for logging (use HumanHandler for formatted output, or any other slog.Handler)
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: pumped.NewBaseExtension("graph-debug"),
		evaluated:     make(map[uint64]bool),
		failed:        make(map[uint64]any),
		logger:        slog.New(logHandler),
	}
}

// Wrap tracks evaluations for debugging
func (e *GraphDebugExtension) Wrap(next func(), op *pumped.Operation) {
	next()

	if op.Kind == pumped.OpEvaluate && op.Node != nil {
		e.mu.Lock()
		e.evaluated[op.Node.ID()] = true
		delete(e.failed, op.Node.ID())
		e.mu.Unlock()
	}
}

// Evaluated reports whether the node with id has completed an evaluation
func (e *GraphDebugExtension) Evaluated(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluated[id]
}

// OnPanic logs the dependency graph around the node that panicked
func (e *GraphDebugExtension) OnPanic(err *pumped.EvalError, op *pumped.Operation) {
	var failedID uint64
	if op.Node != nil {
		failedID = op.Node.ID()
		e.mu.Lock()
		e.failed[failedID] = err.Recovered
		e.mu.Unlock()
	}

	e.logger.Error("Evaluation Panic",
		"signal", pumped.Label(op.Node),
		"panic", fmt.Sprintf("%v", err.Recovered),
		"operation", string(op.Kind),
		"dependency_graph", e.formatDependencyGraph(op.Scope, failedID),
		"stack_trace", string(err.StackTrace),
	)
}

func (e *GraphDebugExtension) formatDependencyGraph(scope *pumped.Scope, failedID uint64) string {
	var sb strings.Builder
	graph := scope.ExportDependencyGraph()

	if len(graph) == 0 {
		sb.WriteString("\n(empty - no reactive dependencies tracked)")
		return sb.String()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sb.WriteString("\n")

	for _, parent := range slices.Sorted(maps.Keys(graph)) {
		children := graph[parent]
		parentName := e.nodeName(scope, parent)

		// Mark parent status
		parentStatus := ""
		if _, failed := e.failed[parent]; failed {
			parentStatus = " ❌"
		} else if e.evaluated[parent] {
			parentStatus = " ✓"
		}

		sb.WriteString(fmt.Sprintf("  %s%s\n", parentName, parentStatus))

		for i, child := range children {
			childName := e.nodeName(scope, child)

			if child == failedID {
				childName = childName + " ❌ FAILED"
			} else if recovered, failed := e.failed[child]; failed {
				childName = fmt.Sprintf("%s ❌ (panic: %v)", childName, recovered)
			} else if e.evaluated[child] {
				childName = childName + " ✓"
			}

			// Use tree characters
			if i == len(children)-1 {
				sb.WriteString(fmt.Sprintf("    └─> %s\n", childName))
			} else {
				sb.WriteString(fmt.Sprintf("    ├─> %s\n", childName))
			}
		}
	}

	if recovered, ok := e.failed[failedID]; ok {
		sb.WriteString("\nPanic Details:\n")
		sb.WriteString(fmt.Sprintf("  Signal: %s\n", e.nodeName(scope, failedID)))
		sb.WriteString(fmt.Sprintf("  Panic: %v\n", recovered))
	}

	return sb.String()
}

func (e *GraphDebugExtension) nodeName(scope *pumped.Scope, id uint64) string {
	if label, ok := scope.Graph().Label(id); ok {
		return label
	}
	return fmt.Sprintf("node#%d", id)
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that formats logs for human readability
// with proper line breaks and visual formatting (especially for dependency graphs)
type HumanHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if record.Message == "Evaluation Panic" {
		return h.handleEvaluationPanic(record)
	}

	// Default formatting for other messages
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleEvaluationPanic(record slog.Record) error {
	var signal, panicMsg, operation, dependencyGraph, stackTrace string

	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "signal":
			signal = a.Value.String()
		case "panic":
			panicMsg = a.Value.String()
		case "operation":
			operation = a.Value.String()
		case "dependency_graph":
			dependencyGraph = a.Value.String()
		case "stack_trace":
			stackTrace = a.Value.String()
		}
		return true
	})

	writes := []func() error{
		func() error { _, err := fmt.Fprintln(h.writer); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintln(h.writer, "[GraphDebug] Evaluation Panic"); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nFailed Signal: %s\n", signal); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Panic: %s\n", panicMsg); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Operation: %s\n", operation); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nDependency Graph:%s", dependencyGraph); return err },
	}

	if stackTrace != "" {
		writes = append(writes, func() error {
			_, err := fmt.Fprintf(h.writer, "\nStack Trace:\n%s\n", stackTrace)
			return err
		})
	}

	writes = append(writes,
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintln(h.writer); return err },
	)

	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}

	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
