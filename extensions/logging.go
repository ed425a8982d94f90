package extensions

import (
	"context"
	"log/slog"
	"time"

	pumped "github.com/pumped-fn/pumped-react"
)

// LoggingExtension logs every operation with its duration
type LoggingExtension struct {
	pumped.BaseExtension
	logger *slog.Logger
	level  slog.Level
}

// NewLoggingExtension creates a new logging extension writing to logger at
// debug level. A nil logger uses slog.Default().
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExtension{
		BaseExtension: pumped.NewBaseExtension("logging"),
		logger:        logger,
		level:         slog.LevelDebug,
	}
}

// WithLevel changes the level operations are logged at
func (e *LoggingExtension) WithLevel(level slog.Level) *LoggingExtension {
	e.level = level
	return e
}

func (e *LoggingExtension) Wrap(next func(), op *pumped.Operation) {
	start := time.Now()
	completed := false
	defer func() {
		if completed {
			return
		}
		e.logger.Log(context.Background(), slog.LevelError, "operation panicked",
			"extension", e.Name(),
			"op", string(op.Kind),
			"signal", pumped.Label(op.Node),
			"duration", time.Since(start),
		)
	}()

	next()
	completed = true

	e.logger.Log(context.Background(), e.level, "operation completed",
		"extension", e.Name(),
		"op", string(op.Kind),
		"signal", pumped.Label(op.Node),
		"duration", time.Since(start),
	)
}
