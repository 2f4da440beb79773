// Package resource bounds the work done by bulk persistence operations.
//
// A Controller combines three limits:
//
//   - Workers: concurrent store operations (semaphore)
//   - Buffer bytes: record bytes held in memory at once (weighted semaphore)
//   - IO rate: bytes per second moved to or from the store (token bucket)
//
// A nil *Controller is valid and imposes no limits.
package resource
