package protsplit

import (
	"log/slog"

	"github.com/hupe1980/protsplit/codec"
	"github.com/hupe1980/protsplit/split"
)

type options struct {
	codec            codec.Codec
	logger           *Logger
	metricsCollector MetricsCollector
	testSize         float64
	minTestPositives int
	maxAttempts      int
}

// Option configures an Engine.
type Option func(*options)

// WithCodec configures the codec used for writing records. Reads detect the
// codec from the stored bytes.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithTestSize sets the test fraction. The number of folds is round(1/size)
// and must be at least 2.
func WithTestSize(size float64) Option {
	return func(o *options) {
		o.testSize = size
	}
}

// WithMinTestPositives sets the per-stratum minimum: every stratum with
// positives must keep more than n positive test examples.
func WithMinTestPositives(n int) Option {
	return func(o *options) {
		o.minTestPositives = n
	}
}

// WithMaxAttempts sets the total number of split attempts, the first included.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring splits.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := protsplit.NewJSONLogger(slog.LevelInfo)
//	eng, _ := protsplit.New(store, protsplit.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		testSize:         split.DefaultTestSize,
		minTestPositives: split.DefaultMinTestPositives,
		maxAttempts:      split.DefaultMaxAttempts,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
