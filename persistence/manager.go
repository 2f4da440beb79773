package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/idgen"
	"github.com/hupe1980/persist/object"
	"github.com/hupe1980/persist/resource"
)

var (
	// ErrManagerClosed is returned when operations are attempted on a closed manager.
	ErrManagerClosed = errors.New("persistence manager is closed")

	// ErrNoCheckpoint is returned by Recover when nothing was checkpointed yet.
	ErrNoCheckpoint = errors.New("persistence: no checkpoint")

	// ErrNullID is returned when saving an object without an identity.
	ErrNullID = errors.New("persistence: object has null identity")

	// ErrInvalidTypeName is returned for type names that cannot form a blob path.
	ErrInvalidTypeName = errors.New("persistence: invalid type name")
)

// DefaultParallelism bounds SaveAll and LoadAll without a resource controller.
const DefaultParallelism = 8

// maxCheckpointAttempts bounds retries when another writer takes the
// same checkpoint sequence number.
const maxCheckpointAttempts = 8

// ManagerOptions configures the persistence manager.
type ManagerOptions struct {
	// Order is the byte order of stored records.
	// Default: little-endian, so stores are portable between hosts.
	Order *byteorder.Descriptor

	// Controller bounds concurrency, buffered bytes and IO rate of
	// store operations. Nil means unbounded, except SaveAll/LoadAll which
	// use DefaultParallelism.
	Controller *resource.Controller

	// Logger receives debug logs for every store operation. Nil disables logging.
	Logger *slog.Logger
}

// Manager saves and loads objects and generator checkpoints.
//
// The Manager is thread-safe and can be used concurrently.
type Manager struct {
	store  blobstore.BlobStore
	order  byteorder.Descriptor
	rc     *resource.Controller
	logger *slog.Logger

	// Lifecycle
	mu     sync.RWMutex
	closed bool
}

// NewManager creates a new persistence manager over store.
func NewManager(store blobstore.BlobStore, opts ManagerOptions) (*Manager, error) {
	if store == nil {
		return nil, errors.New("persistence: nil blob store")
	}

	order := byteorder.LittleEndian()
	if opts.Order != nil {
		order = *opts.Order
	}

	return &Manager{
		store:  store,
		order:  order,
		rc:     opts.Controller,
		logger: opts.Logger,
	}, nil
}

// Store returns the underlying blob store.
func (pm *Manager) Store() blobstore.BlobStore { return pm.store }

// Order returns the byte order of stored records.
func (pm *Manager) Order() byteorder.Descriptor { return pm.order }

func (pm *Manager) check(ctx context.Context) error {
	pm.mu.RLock()
	closed := pm.closed
	pm.mu.RUnlock()

	if closed {
		return ErrManagerClosed
	}
	return ctx.Err()
}

func (pm *Manager) debug(msg string, args ...any) {
	if pm.logger != nil {
		pm.logger.Debug(msg, args...)
	}
}

// Save writes obj to objects/<type>/<id>.rec, replacing any earlier record.
func (pm *Manager) Save(ctx context.Context, obj *object.Object) error {
	if err := pm.check(ctx); err != nil {
		return err
	}
	if obj.ID().IsNull() {
		return ErrNullID
	}
	typeName := obj.Type().Name()
	if !validTypeName(typeName) {
		return fmt.Errorf("%w: %q", ErrInvalidTypeName, typeName)
	}

	size := int64(obj.Size() + TrailerSize)
	if err := pm.rc.AcquireBuffer(ctx, size); err != nil {
		return err
	}
	defer pm.rc.ReleaseBuffer(size)

	var buf bytes.Buffer
	buf.Grow(int(size))
	if err := obj.WriteBinary(&buf, pm.order); err != nil {
		return fmt.Errorf("persistence: encode %s: %w", obj, err)
	}
	data := seal(buf.Bytes())

	name := ObjectName(typeName, obj.ID())
	if err := pm.put(ctx, name, data); err != nil {
		return fmt.Errorf("persistence: save %s: %w", name, err)
	}

	pm.debug("saved object", "name", name, "bytes", len(data))
	return nil
}

// Load reads the record of id into dst. The type of dst selects the record.
// On any error dst is left unchanged.
func (pm *Manager) Load(ctx context.Context, id identity.ID, dst *object.Object) error {
	if err := pm.check(ctx); err != nil {
		return err
	}
	typeName := dst.Type().Name()
	if !validTypeName(typeName) {
		return fmt.Errorf("%w: %q", ErrInvalidTypeName, typeName)
	}

	size := int64(dst.Size() + TrailerSize)
	if err := pm.rc.AcquireBuffer(ctx, size); err != nil {
		return err
	}
	defer pm.rc.ReleaseBuffer(size)

	name := ObjectName(typeName, id)
	rec, err := pm.get(ctx, name)
	if err != nil {
		return fmt.Errorf("persistence: load %s: %w", name, err)
	}

	// The header is checked before the payload length is trusted.
	tmp := object.New(dst.Type(), identity.Null)
	r := bytes.NewReader(rec)
	if err := tmp.ReadBinary(r, pm.order); err != nil {
		return fmt.Errorf("persistence: load %s: %w", name, err)
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %s has %d trailing bytes", ErrCorrupt, name, r.Len())
	}
	if tmp.ID() != id {
		return fmt.Errorf("%w: %s carries id %s", ErrCorrupt, name, tmp.ID())
	}
	if err := dst.Assign(tmp); err != nil {
		return err
	}
	dst.SetID(id)

	pm.debug("loaded object", "name", name)
	return nil
}

// Get loads the record of id into a new object of typ.
func (pm *Manager) Get(ctx context.Context, typ *object.Type, id identity.ID) (*object.Object, error) {
	obj := object.New(typ, identity.Null)
	if err := pm.Load(ctx, id, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Exists reports whether a record for id exists.
func (pm *Manager) Exists(ctx context.Context, typ *object.Type, id identity.ID) (bool, error) {
	if err := pm.check(ctx); err != nil {
		return false, err
	}
	b, err := pm.store.Open(ctx, ObjectName(typ.Name(), id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, b.Close()
}

// SaveAll saves objs concurrently. It stops at the first error.
func (pm *Manager) SaveAll(ctx context.Context, objs []*object.Object) error {
	if err := pm.check(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pm.parallelism())

	for _, obj := range objs {
		g.Go(func() error {
			if err := pm.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer pm.rc.ReleaseWorker()
			return pm.Save(gctx, obj)
		})
	}

	return g.Wait()
}

// LoadAll loads the records of ids into new objects of typ, in id order.
// It stops at the first error.
func (pm *Manager) LoadAll(ctx context.Context, typ *object.Type, ids []identity.ID) ([]*object.Object, error) {
	if err := pm.check(ctx); err != nil {
		return nil, err
	}

	out := make([]*object.Object, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pm.parallelism())

	for i, id := range ids {
		g.Go(func() error {
			if err := pm.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer pm.rc.ReleaseWorker()

			obj, err := pm.Get(gctx, typ, id)
			if err != nil {
				return err
			}
			out[i] = obj
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (pm *Manager) parallelism() int {
	if n := pm.rc.Workers(); n > 0 {
		return n
	}
	return DefaultParallelism
}

// Delete removes the record of id. Deleting a missing record is not an error.
func (pm *Manager) Delete(ctx context.Context, typ *object.Type, id identity.ID) error {
	if err := pm.check(ctx); err != nil {
		return err
	}
	name := ObjectName(typ.Name(), id)
	if err := pm.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("persistence: delete %s: %w", name, err)
	}
	pm.debug("deleted object", "name", name)
	return nil
}

// List returns the ids of all stored records of typ in ascending order.
func (pm *Manager) List(ctx context.Context, typ *object.Type) ([]identity.ID, error) {
	if err := pm.check(ctx); err != nil {
		return nil, err
	}
	prefix := typePrefix(typ.Name())
	names, err := pm.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("persistence: list %s: %w", prefix, err)
	}

	ids := make([]identity.ID, 0, len(names))
	for _, name := range names {
		if id, ok := parseObjectName(prefix, name); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Checkpoint writes the generator state to a new checkpoint and publishes it
// through CURRENT. It returns the checkpoint name.
func (pm *Manager) Checkpoint(ctx context.Context, gen *idgen.Generator) (string, error) {
	if err := pm.check(ctx); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Grow(gen.Size() + TrailerSize)
	if err := gen.WriteBinary(&buf, pm.order); err != nil {
		return "", fmt.Errorf("persistence: encode generator: %w", err)
	}
	data := seal(buf.Bytes())

	seq, err := pm.lastCheckpoint(ctx)
	if err != nil {
		return "", err
	}

	var name string
	for attempt := 0; ; attempt++ {
		seq++
		name = CheckpointName(seq)
		err = blobstore.PutIfNotExists(ctx, pm.store, name, data)
		if err == nil {
			break
		}
		if !errors.Is(err, blobstore.ErrExists) || attempt+1 >= maxCheckpointAttempts {
			return "", fmt.Errorf("persistence: checkpoint %s: %w", name, err)
		}
	}

	if err := pm.put(ctx, CurrentName, []byte(name)); err != nil {
		return "", fmt.Errorf("persistence: commit %s: %w", name, err)
	}

	pm.debug("checkpoint committed", "name", name, "current", gen.Current())
	return name, nil
}

// Recover restores gen from the checkpoint named by CURRENT and returns
// that name. It returns ErrNoCheckpoint if CURRENT does not exist.
func (pm *Manager) Recover(ctx context.Context, gen *idgen.Generator) (string, error) {
	if err := pm.check(ctx); err != nil {
		return "", err
	}

	current, err := blobstore.Get(ctx, pm.store, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoCheckpoint
		}
		return "", fmt.Errorf("persistence: read %s: %w", CurrentName, err)
	}
	name := strings.TrimSpace(string(current))
	if _, ok := ParseCheckpointName(name); !ok {
		return "", fmt.Errorf("%w: %s points to %q", ErrCorrupt, CurrentName, name)
	}

	rec, err := pm.get(ctx, name)
	if err != nil {
		return "", fmt.Errorf("persistence: recover %s: %w", name, err)
	}
	if err := gen.ReadBinary(bytes.NewReader(rec), pm.order); err != nil {
		return "", fmt.Errorf("persistence: recover %s: %w", name, err)
	}

	pm.debug("recovered generator", "name", name, "current", gen.Current())
	return name, nil
}

// Checkpoints returns all checkpoint names in ascending sequence order.
func (pm *Manager) Checkpoints(ctx context.Context) ([]string, error) {
	if err := pm.check(ctx); err != nil {
		return nil, err
	}
	names, err := pm.store.List(ctx, checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("persistence: list checkpoints: %w", err)
	}
	out := names[:0]
	for _, name := range names {
		if _, ok := ParseCheckpointName(name); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// PruneCheckpoints deletes all but the newest keep checkpoints. The one
// named by CURRENT is always kept. It returns the number deleted.
func (pm *Manager) PruneCheckpoints(ctx context.Context, keep int) (int, error) {
	names, err := pm.Checkpoints(ctx)
	if err != nil {
		return 0, err
	}
	current, err := blobstore.Get(ctx, pm.store, CurrentName)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return 0, err
	}

	pinned := strings.TrimSpace(string(current))
	keep = max(keep, 0)
	deleted := 0
	for i, name := range names {
		if i >= len(names)-keep || name == pinned {
			continue
		}
		if err := pm.store.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("persistence: prune %s: %w", name, err)
		}
		deleted++
	}
	return deleted, nil
}

func (pm *Manager) lastCheckpoint(ctx context.Context) (uint64, error) {
	names, err := pm.Checkpoints(ctx)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, nil
	}
	seq, _ := ParseCheckpointName(names[len(names)-1])
	return seq, nil
}

func (pm *Manager) put(ctx context.Context, name string, data []byte) error {
	if err := pm.rc.WaitIO(ctx, len(data)); err != nil {
		return err
	}
	return pm.store.Put(ctx, name, data)
}

func (pm *Manager) get(ctx context.Context, name string) ([]byte, error) {
	blob, err := blobstore.Get(ctx, pm.store, name)
	if err != nil {
		return nil, err
	}
	if err := pm.rc.WaitIO(ctx, len(blob)); err != nil {
		return nil, err
	}
	return unseal(name, blob)
}

// Close marks the manager closed. The blob store is owned by the caller.
func (pm *Manager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.closed = true
	return nil
}
