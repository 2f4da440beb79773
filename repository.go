package persist

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/idgen"
	"github.com/hupe1980/persist/object"
	"github.com/hupe1980/persist/persistence"
	"github.com/hupe1980/persist/pool"
	"github.com/hupe1980/persist/resource"
)

// Repository binds one object type to its identity generator, a pool of
// reusable objects and, optionally, a blob store.
//
// Repository is safe for concurrent use. Objects handed out by Acquire and
// Load belong to the caller until they are released.
type Repository struct {
	typ     *object.Type
	gen     *idgen.Generator
	factory *pool.Factory
	manager *persistence.Manager

	checkpointOnClose bool
	closed            atomic.Bool

	metrics MetricsCollector
	logger  *Logger
}

// Stats is a point-in-time view of a Repository.
type Stats struct {
	Pool      pool.Stats
	Generator idgen.State
}

// Open creates a Repository for typ whose identities are minted by gen.
//
// With WithRecover the generator is restored from the store's latest
// checkpoint before the pool reserves any identity.
func Open(ctx context.Context, typ *object.Type, gen *idgen.Generator, optFns ...Option) (*Repository, error) {
	if typ == nil {
		return nil, errors.New("persist: nil object type")
	}
	if gen == nil {
		return nil, errors.New("persist: nil identity generator")
	}

	opts := applyOptions(optFns)
	if opts.recover && opts.store == nil {
		return nil, fmt.Errorf("persist: recover: %w", ErrNoStore)
	}

	r := &Repository{
		typ:               typ,
		gen:               gen,
		checkpointOnClose: opts.checkpointOnClose,
		metrics:           opts.metricsCollector,
		logger:            opts.logger.WithType(typ.Name()),
	}

	if opts.store != nil {
		var rc *resource.Controller
		if opts.resources != nil {
			rc = resource.NewController(*opts.resources)
		}
		m, err := persistence.NewManager(opts.store, persistence.ManagerOptions{
			Order:      opts.order,
			Controller: rc,
			Logger:     r.logger.Logger,
		})
		if err != nil {
			return nil, err
		}
		r.manager = m

		if opts.recover {
			if _, err := r.Recover(ctx); err != nil && !errors.Is(err, persistence.ErrNoCheckpoint) {
				_ = m.Close()
				return nil, err
			}
		}
	}

	r.factory = pool.New(typ, gen,
		pool.WithPoolSize(opts.poolSize),
		pool.WithRefillSize(opts.refillSize),
		pool.WithRefillHook(r.onRefill),
	)

	return r, nil
}

func (r *Repository) onRefill(ev pool.RefillEvent) {
	r.metrics.RecordRefill(ev.Added)
	r.logger.LogRefill(context.Background(), ev)
}

// Type returns the object type served by the repository.
func (r *Repository) Type() *object.Type { return r.typ }

// Generator returns the identity generator.
func (r *Repository) Generator() *idgen.Generator { return r.gen }

// Factory returns the underlying pool.
func (r *Repository) Factory() *pool.Factory { return r.factory }

// Manager returns the persistence manager, or nil when no store is configured.
func (r *Repository) Manager() *persistence.Manager { return r.manager }

// Acquire hands out a pooled object with a fresh identity. init, if non-nil,
// is applied to the reset payload.
func (r *Repository) Acquire(ctx context.Context, init func(object.Payload)) (*pool.Slot, error) {
	return r.acquire(ctx, identity.Null, init)
}

// AcquireWithID is like Acquire but assigns id instead of minting one.
func (r *Repository) AcquireWithID(ctx context.Context, id identity.ID, init func(object.Payload)) (*pool.Slot, error) {
	return r.acquire(ctx, id, init)
}

func (r *Repository) acquire(ctx context.Context, id identity.ID, init func(object.Payload)) (*pool.Slot, error) {
	start := time.Now()
	s, err := r.factory.GetWithID(id, init)
	err = translateError(err)
	r.metrics.RecordAcquire(time.Since(start), err)
	if s != nil {
		id = s.ID()
	}
	r.logger.LogAcquire(ctx, id, err)
	return s, err
}

// Release returns a slot to the pool. The object must not be used afterwards.
func (r *Repository) Release(ctx context.Context, s *pool.Slot) error {
	var id identity.ID
	if s != nil {
		id = s.ID()
	}
	err := translateError(r.factory.Put(s))
	r.metrics.RecordRelease(err)
	r.logger.LogRelease(ctx, id, err)
	return err
}

// Save writes obj to the store.
func (r *Repository) Save(ctx context.Context, obj *object.Object) error {
	m, err := r.store()
	if err != nil {
		return err
	}
	start := time.Now()
	err = translateError(m.Save(ctx, obj))
	r.metrics.RecordSave(1, time.Since(start), err)
	r.logger.LogSave(ctx, 1, err)
	return err
}

// SaveAll writes objs to the store concurrently.
func (r *Repository) SaveAll(ctx context.Context, objs []*object.Object) error {
	m, err := r.store()
	if err != nil {
		return err
	}
	start := time.Now()
	err = translateError(m.SaveAll(ctx, objs))
	r.metrics.RecordSave(len(objs), time.Since(start), err)
	r.logger.LogSave(ctx, len(objs), err)
	return err
}

// Load reads the stored object id into a pooled slot. The slot must be
// released like one obtained from Acquire. If id is already held by a live
// object, Load fails with ErrIdentityCollision.
func (r *Repository) Load(ctx context.Context, id identity.ID) (*pool.Slot, error) {
	m, err := r.store()
	if err != nil {
		return nil, err
	}
	if id.IsNull() {
		return nil, persistence.ErrNullID
	}

	start := time.Now()
	s, err := r.factory.GetWithID(id, nil)
	if err == nil {
		if err = m.Load(ctx, id, s.Object()); err != nil {
			_ = r.factory.Put(s)
			s = nil
		}
	}
	err = translateError(err)
	r.metrics.RecordLoad(1, time.Since(start), err)
	r.logger.LogLoad(ctx, 1, err)
	return s, err
}

// Get reads the stored object id into a new, unpooled object.
func (r *Repository) Get(ctx context.Context, id identity.ID) (*object.Object, error) {
	m, err := r.store()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	obj, err := m.Get(ctx, r.typ, id)
	err = translateError(err)
	r.metrics.RecordLoad(1, time.Since(start), err)
	r.logger.LogLoad(ctx, 1, err)
	return obj, err
}

// Delete removes the stored object id. Deleting a missing object is not an error.
func (r *Repository) Delete(ctx context.Context, id identity.ID) error {
	m, err := r.store()
	if err != nil {
		return err
	}
	return translateError(m.Delete(ctx, r.typ, id))
}

// List returns the identities of all stored objects in ascending order.
func (r *Repository) List(ctx context.Context) ([]identity.ID, error) {
	m, err := r.store()
	if err != nil {
		return nil, err
	}
	ids, err := m.List(ctx, r.typ)
	return ids, translateError(err)
}

// Checkpoint persists the generator state and returns the checkpoint name.
func (r *Repository) Checkpoint(ctx context.Context) (string, error) {
	m, err := r.store()
	if err != nil {
		return "", err
	}
	start := time.Now()
	name, err := m.Checkpoint(ctx, r.gen)
	err = translateError(err)
	r.metrics.RecordCheckpoint(time.Since(start), err)
	r.logger.LogCheckpoint(ctx, name, r.gen.Current(), err)
	return name, err
}

// Recover restores the generator from the latest checkpoint and returns its
// name. The generator only moves forward: a checkpoint behind the identities
// already minted is read and verified but not applied.
func (r *Repository) Recover(ctx context.Context) (string, error) {
	m, err := r.store()
	if err != nil {
		return "", err
	}

	scratch := idgen.MustNew(identity.Null, 1)
	name, err := m.Recover(ctx, scratch)
	if err == nil {
		rec := scratch.Snapshot()
		if ahead(rec, r.gen.Snapshot()) {
			err = r.gen.Restore(rec)
		}
	}
	if !errors.Is(err, persistence.ErrNoCheckpoint) {
		err = translateError(err)
		r.logger.LogRecovery(ctx, name, r.gen.Current(), err)
	}
	return name, err
}

// ahead reports whether rec has minted past cur in cur's direction.
func ahead(rec, cur idgen.State) bool {
	if cur.Step < 0 {
		return rec.Current < cur.Current
	}
	return rec.Current > cur.Current
}

// Stats returns pool and generator counters.
func (r *Repository) Stats() Stats {
	return Stats{
		Pool:      r.factory.Stats(),
		Generator: r.gen.Snapshot(),
	}
}

// Close checkpoints the generator if WithCheckpointOnClose was given and
// tears the pool down. Outstanding slots become invalid. The blob store is
// owned by the caller and stays open.
func (r *Repository) Close(ctx context.Context) error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if r.checkpointOnClose && r.manager != nil {
		if _, err := r.Checkpoint(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.factory.Close(); err != nil {
		errs = append(errs, translateError(err))
	}
	if r.manager != nil {
		if err := r.manager.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Repository) store() (*persistence.Manager, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if r.manager == nil {
		return nil, ErrNoStore
	}
	return r.manager, nil
}
