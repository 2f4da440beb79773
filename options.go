package persist

import (
	"log/slog"

	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/pool"
	"github.com/hupe1980/persist/resource"
)

type options struct {
	poolSize          int
	refillSize        int
	store             blobstore.BlobStore
	order             *byteorder.Descriptor
	resources         *resource.Config
	recover           bool
	checkpointOnClose bool
	metricsCollector  MetricsCollector
	logger            *Logger
}

// Option configures Open.
type Option func(*options)

// WithPoolSize sets the number of slots created up front.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithRefillSize sets how many slots are added when the pool runs dry.
func WithRefillSize(n int) Option {
	return func(o *options) {
		o.refillSize = n
	}
}

// WithStore enables Save, Load, Checkpoint and Recover on the given store.
//
// Example:
//
//	repo, _ := persist.Open(ctx, typ, gen,
//	    persist.WithStore(blobstore.NewLocalStore("./data")),
//	    persist.WithRecover(),
//	)
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithByteOrder sets the byte order of stored records.
// Default: little-endian.
func WithByteOrder(d byteorder.Descriptor) Option {
	return func(o *options) {
		o.order = &d
	}
}

// WithResources bounds the concurrency, buffered bytes and IO rate of
// store operations.
func WithResources(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = &cfg
	}
}

// WithRecover restores the generator from the latest checkpoint during Open,
// before any identity is minted. A store without checkpoints is not an error.
func WithRecover() Option {
	return func(o *options) {
		o.recover = true
	}
}

// WithCheckpointOnClose checkpoints the generator when the Repository is closed.
func WithCheckpointOnClose() Option {
	return func(o *options) {
		o.checkpointOnClose = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &persist.BasicMetricsCollector{}
//	repo, _ := persist.Open(ctx, typ, gen, persist.WithMetricsCollector(metrics))
//	// ... use repo ...
//	stats := metrics.GetStats()
//	fmt.Printf("Saves: %d, Avg latency: %dns\n", stats.SaveCount, stats.SaveAvgNanos)
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
//	logger := persist.NewJSONLogger(slog.LevelInfo)
//	repo, _ := persist.Open(ctx, typ, gen, persist.WithLogger(logger))
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
		poolSize:         pool.DefaultPoolSize,
		refillSize:       pool.DefaultRefillSize,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
