// Package pool provides a pooled factory for persistent objects.
//
// A Factory owns a table of slots. Each slot holds one object and moves
// between two states, Free and InUse. Get hands out the first free slot in
// index order; when no slot is free the factory synchronously appends
// RefillSize new slots, minting their identities from the generator, and
// retries.
//
// Growth is unbounded: there is no ceiling on the pool size and no
// back-pressure when a refill happens. Availability is preferred over
// predictable memory use. Callers that need a bound observe refills through
// WithRefillHook or Stats and act on them.
//
// Slots are returned with Put. Objects are never deallocated while the pool
// is open; they are reinitialised in place and handed out again. Close
// releases every slot.
package pool
