package protsplit

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/protsplit/assemble"
	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/split"
)

// Logger wraps slog.Logger with split-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDisease adds a disease field to the logger.
func (l *Logger) WithDisease(disease string) *Logger {
	return &Logger{
		Logger: l.Logger.With("disease", disease),
	}
}

// LogCollect logs the outcome of example collection.
func (l *Logger) LogCollect(ctx context.Context, ex *dataset.Examples, err error) {
	if err != nil {
		l.ErrorContext(ctx, "collect failed", "error", err)
		return
	}
	for _, s := range ex.Stats {
		if s.Positives == 0 {
			l.DebugContext(ctx, "stratum has no positives",
				"stratum", s.Name,
				"negatives", s.Negatives,
			)
		}
	}
	l.InfoContext(ctx, "collect completed",
		"strata", len(ex.Strata),
		"positives", ex.Positive.Len(),
		"negatives", ex.Negative.Len(),
	)
}

// LogAttempt logs one split attempt.
func (l *Logger) LogAttempt(ctx context.Context, a split.Attempt) {
	switch {
	case a.Reason == split.ReasonNone && a.Number == 1:
		l.InfoContext(ctx, "split attempt succeeded",
			"attempt", a.Number,
			"seed", a.Seed,
			"test_positives", a.Counts,
		)
	case a.Reason == split.ReasonNone:
		l.InfoContext(ctx, "split retry succeeded",
			"attempt", a.Number,
			"seed", a.Seed,
			"test_positives", a.Counts,
		)
	default:
		l.WarnContext(ctx, "split attempt failed",
			"attempt", a.Number,
			"seed", a.Seed,
			"reason", a.Reason.String(),
			"short", a.Short,
		)
	}
}

// LogSplitLoaded logs loading an existing split record.
func (l *Logger) LogSplitLoaded(ctx context.Context, path string, counts map[string]int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "split load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "split loaded",
			"path", path,
			"test_positives", counts,
		)
	}
}

// LogSplitSaved logs persisting a new split record.
func (l *Logger) LogSplitSaved(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "split save failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "split saved",
			"path", path,
		)
	}
}

// LogNamesSaved logs the name record write.
func (l *Logger) LogNamesSaved(ctx context.Context, path string, written bool, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "name record save failed",
			"path", path,
			"error", err,
		)
	case written:
		l.InfoContext(ctx, "name record saved",
			"path", path,
		)
	default:
		l.DebugContext(ctx, "name record exists",
			"path", path,
		)
	}
}

// LogStratum logs how a stratum's test rows were assembled.
func (l *Logger) LogStratum(ctx context.Context, st assemble.StratumTest) {
	switch st.Action {
	case assemble.TwoClass:
		l.DebugContext(ctx, "test stratum assembled",
			"stratum", st.Name,
			"positives", st.Positives,
			"negatives", st.Negatives,
		)
	case assemble.PositiveOnly:
		l.InfoContext(ctx, "test stratum has only positive examples",
			"stratum", st.Name,
			"positives", st.Positives,
		)
	case assemble.NegativeOnly:
		l.InfoContext(ctx, "test stratum has only negative examples",
			"stratum", st.Name,
			"negatives", st.Negatives,
		)
	default:
		l.DebugContext(ctx, "test stratum has no examples",
			"stratum", st.Name,
		)
	}
}
