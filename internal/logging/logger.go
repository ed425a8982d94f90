// Package logging builds the leveled slog.Logger used by simreact.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pumped-fn/pumped-react/extensions"
)

// LevelTrace is a custom slog level below Debug. At this level every
// reactive operation is logged by the logging extension.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "trace", "debug", "info", "warn", "error" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
// format is "text" (default), "json" or "human".
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)

	switch strings.ToLower(format) {
	case "human":
		return slog.New(extensions.NewHumanHandler(w, lvl))
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOptions(lvl)))
	default:
		return slog.New(slog.NewTextHandler(w, handlerOptions(lvl)))
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
}
