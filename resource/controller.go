package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits for bulk persistence work.
type Config struct {
	// MaxInflightBytes bounds the record bytes buffered by concurrent
	// saves and loads. If 0, no hard limit is enforced (only tracking).
	MaxInflightBytes int64

	// MaxWorkers is the maximum number of concurrent store operations.
	// If 0, defaults to 1.
	MaxWorkers int64

	// IOBytesPerSec is the maximum store throughput. If 0, unlimited.
	IOBytesPerSec int64
}

// Controller bounds concurrency, buffered bytes and IO rate.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	bufSem  *semaphore.Weighted // nil if unlimited
	bufUsed atomic.Int64

	workers *semaphore.Weighted

	ioLimiter *rate.Limiter
	ioBurst   int
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MaxInflightBytes > 0 {
		c.bufSem = semaphore.NewWeighted(cfg.MaxInflightBytes)
	}

	if cfg.IOBytesPerSec > 0 {
		c.ioBurst = int(min(cfg.IOBytesPerSec, 1<<30))
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), c.ioBurst)
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// Workers returns the worker limit, or 0 if c is nil.
func (c *Controller) Workers() int {
	if c == nil {
		return 0
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireBuffer reserves n bytes of buffer budget. With a hard limit it
// blocks until the budget is available or ctx is canceled. A request
// larger than the whole budget is clamped so it can still proceed alone.
func (c *Controller) AcquireBuffer(ctx context.Context, n int64) error {
	if c == nil || n <= 0 {
		return nil
	}

	if c.bufSem != nil {
		if err := c.bufSem.Acquire(ctx, c.clamp(n)); err != nil {
			return err
		}
	}

	c.bufUsed.Add(n)
	return nil
}

// TryAcquireBuffer reserves n bytes without blocking.
// Returns true if acquired, false if the limit would be exceeded.
func (c *Controller) TryAcquireBuffer(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}

	if c.bufSem != nil {
		if !c.bufSem.TryAcquire(c.clamp(n)) {
			return false
		}
	}

	c.bufUsed.Add(n)
	return true
}

// ReleaseBuffer returns n bytes of buffer budget.
func (c *Controller) ReleaseBuffer(n int64) {
	if c == nil || n <= 0 {
		return
	}

	if c.bufSem != nil {
		c.bufSem.Release(c.clamp(n))
	}
	c.bufUsed.Add(-n)
}

func (c *Controller) clamp(n int64) int64 {
	return min(n, c.cfg.MaxInflightBytes)
}

// BufferUsage returns the bytes currently reserved.
func (c *Controller) BufferUsage() int64 {
	if c == nil {
		return 0
	}
	return c.bufUsed.Load()
}

// AcquireWorker reserves a worker slot, blocking while all are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// WaitIO waits until the IO limit allows n bytes. Requests above the
// limiter burst are split.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	for n > 0 {
		chunk := min(n, c.ioBurst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
