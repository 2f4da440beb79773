package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/idgen"
	"github.com/hupe1980/persist/object"
)

var (
	// ErrClosed is returned by operations on a closed factory.
	ErrClosed = errors.New("pool: factory is closed")

	// ErrNotInUse is returned when a slot that is not handed out is returned.
	ErrNotInUse = errors.New("pool: slot is not in use")

	// ErrForeignSlot is returned when a slot is returned to a factory that does not own it.
	ErrForeignSlot = errors.New("pool: slot belongs to another factory")

	// ErrIdentityCollision is returned when an identity is already held by a live object.
	ErrIdentityCollision = errors.New("pool: identity already in use")
)

// RefillEvent describes one pool growth step.
type RefillEvent struct {
	Added     int
	PoolSize  int
	Available int
	Refills   int
}

// Stats is a point-in-time view of a factory.
type Stats struct {
	PoolSize  int
	Available int
	InUse     int
	Refills   int
}

// Factory creates and reuses objects of one type.
//
// It is safe for concurrent use: the slot table, the free set and the live
// identity set are guarded by one mutex held across each scan-and-mutate step.
type Factory struct {
	mu         sync.Mutex
	typ        *object.Type
	gen        *idgen.Generator
	slots      []*Slot
	free       *bitset.BitSet
	live       *roaring64.Bitmap
	available  int
	refillSize int
	refills    int
	closed     bool

	logger   *slog.Logger
	onRefill func(RefillEvent)
}

// New creates a factory for typ with PoolSize pre-allocated slots.
// The generator mints the identities of every slot the factory creates.
func New(typ *object.Type, gen *idgen.Generator, optFns ...Option) *Factory {
	opts := applyOptions(optFns)

	f := &Factory{
		typ:        typ,
		gen:        gen,
		free:       bitset.New(uint(opts.poolSize)),
		live:       roaring64.New(),
		refillSize: opts.refillSize,
		logger:     opts.logger,
		onRefill:   opts.onRefill,
	}
	f.grow(opts.poolSize)
	return f
}

// Type returns the object type produced by the factory.
func (f *Factory) Type() *object.Type { return f.typ }

// Get hands out the first free slot, growing the pool if none is free.
// The payload is reset and init, if non-nil, is applied to it. The slot keeps
// its minted identity the first time it is used and receives a fresh one from
// the generator on every reuse.
func (f *Factory) Get(init func(object.Payload)) (*Slot, error) {
	return f.get(identity.Null, init)
}

// GetWithID is like Get but assigns id instead of minting one.
// id must not be held by another live object.
func (f *Factory) GetWithID(id identity.ID, init func(object.Payload)) (*Slot, error) {
	return f.get(id, init)
}

func (f *Factory) get(id identity.ID, init func(object.Payload)) (*Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	if !id.IsNull() && f.live.Contains(uint64(id)) {
		return nil, fmt.Errorf("%w: %s %d", ErrIdentityCollision, f.typ.Name(), int64(id))
	}

	idx, ok := f.free.NextSet(0)
	if !ok {
		// refillSize is at least one, so the first appended slot is free.
		idx = uint(len(f.slots))
		f.refill()
	}
	s := f.slots[idx]

	if id.IsNull() {
		id = f.mint(s)
	}

	s.obj.Reset(init)
	s.obj.SetID(id)
	s.inUse = true
	s.changed = false
	s.fresh = false

	f.free.Clear(idx)
	f.live.Add(uint64(id))
	f.available--

	return s, nil
}

// Put returns a slot to the pool.
func (f *Factory) Put(s *Slot) error {
	if s == nil {
		return ErrNotInUse
	}
	if s.owner != f {
		return ErrForeignSlot
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if !s.inUse {
		return fmt.Errorf("%w: index %d", ErrNotInUse, s.index)
	}

	s.inUse = false
	f.live.Remove(uint64(s.obj.ID()))
	f.free.Set(uint(s.index))
	f.available++
	return nil
}

// Contains reports whether id is held by a live pooled object.
func (f *Factory) Contains(id identity.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live.Contains(uint64(id))
}

// Len returns the number of slots.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slots)
}

// Available returns the number of free slots.
func (f *Factory) Available() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// Stats returns a snapshot of the pool counters.
func (f *Factory) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		PoolSize:  len(f.slots),
		Available: f.available,
		InUse:     len(f.slots) - f.available,
		Refills:   f.refills,
	}
}

// Close tears the pool down. Outstanding slots become invalid.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	f.closed = true
	f.slots = nil
	f.free.ClearAll()
	f.live.Clear()
	f.available = 0
	return nil
}

// mint picks the identity for a plain Get on s. A fresh slot offers the id
// it reserved, unless a supplied id has claimed it since. Callers must hold f.mu.
func (f *Factory) mint(s *Slot) identity.ID {
	var id identity.ID
	if s.fresh {
		id = s.obj.ID()
	} else {
		id = f.gen.Get()
	}
	for f.live.Contains(uint64(id)) {
		id = f.gen.Get()
	}
	return id
}

// refill appends refillSize slots. Callers must hold f.mu.
func (f *Factory) refill() {
	f.grow(f.refillSize)
	f.refills++

	ev := RefillEvent{
		Added:     f.refillSize,
		PoolSize:  len(f.slots),
		Available: f.available,
		Refills:   f.refills,
	}
	if f.logger != nil {
		f.logger.Debug("pool refilled",
			"type", f.typ.Name(),
			"added", ev.Added,
			"pool_size", ev.PoolSize,
			"available", ev.Available,
		)
	}
	if f.onRefill != nil {
		f.onRefill(ev)
	}
}

func (f *Factory) grow(n int) {
	if n <= 0 {
		return
	}
	ids := f.gen.Reserve(n)
	for _, id := range ids {
		s := &Slot{
			obj:   object.New(f.typ, id),
			index: len(f.slots),
			fresh: true,
			owner: f,
		}
		f.slots = append(f.slots, s)
		f.free.Set(uint(s.index))
	}
	f.available += n
}
