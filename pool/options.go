package pool

import "log/slog"

const (
	// DefaultPoolSize is the number of slots created up front.
	DefaultPoolSize = 16
	// DefaultRefillSize is the number of slots appended when the pool is exhausted.
	DefaultRefillSize = 16
)

type options struct {
	poolSize   int
	refillSize int
	logger     *slog.Logger
	onRefill   func(RefillEvent)
}

// Option configures a Factory.
type Option func(*options)

// WithPoolSize sets the number of slots created by New.
// Values below zero are treated as zero.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = max(n, 0)
	}
}

// WithRefillSize sets the number of slots appended on exhaustion.
// Values below one are treated as one.
func WithRefillSize(n int) Option {
	return func(o *options) {
		o.refillSize = max(n, 1)
	}
}

// WithLogger sets the logger used to report refills.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRefillHook registers fn to be called after every refill.
// fn runs with the factory lock held and must not call back into the factory.
func WithRefillHook(fn func(RefillEvent)) Option {
	return func(o *options) {
		o.onRefill = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		poolSize:   DefaultPoolSize,
		refillSize: DefaultRefillSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
