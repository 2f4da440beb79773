package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/persist"
	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/idgen"
	"github.com/hupe1980/persist/object"
	"github.com/hupe1980/persist/persistence"
	"github.com/hupe1980/persist/resource"
	"github.com/hupe1980/persist/testutil"
	"github.com/hupe1980/persist/version"
)

func openRepo(t *testing.T, gen *idgen.Generator, opts ...persist.Option) *persist.Repository {
	t.Helper()
	repo, err := persist.Open(context.Background(), testutil.PointType(), gen, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

func TestOpen_InvalidArguments(t *testing.T) {
	ctx := context.Background()

	_, err := persist.Open(ctx, nil, idgen.MustNew(0, 1))
	require.Error(t, err)

	_, err = persist.Open(ctx, testutil.PointType(), nil)
	require.Error(t, err)

	_, err = persist.Open(ctx, testutil.PointType(), idgen.MustNew(0, 1), persist.WithRecover())
	require.ErrorIs(t, err, persist.ErrNoStore)
}

func TestRepository_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	metrics := &persist.BasicMetricsCollector{}
	repo := openRepo(t, idgen.MustNew(0, 1),
		persist.WithPoolSize(2),
		persist.WithMetricsCollector(metrics),
	)

	s1, err := repo.Acquire(ctx, testutil.SetPoint(testutil.Point{X: 1, Y: 2, Z: 3}))
	require.NoError(t, err)
	assert.Equal(t, identity.ID(1), s1.ID())
	assert.Equal(t, testutil.Point{X: 1, Y: 2, Z: 3}, *s1.Object().Payload().(*testutil.Point))

	require.NoError(t, repo.Release(ctx, s1))
	require.Error(t, repo.Release(ctx, s1))

	// Reuse of a released slot mints a new identity.
	s2, err := repo.Acquire(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s2.Index())
	assert.Equal(t, identity.ID(3), s2.ID())
	assert.Equal(t, testutil.Point{}, *s2.Object().Payload().(*testutil.Point))

	stats := repo.Stats()
	assert.Equal(t, 2, stats.Pool.PoolSize)
	assert.Equal(t, 1, stats.Pool.InUse)
	assert.Equal(t, identity.ID(3), stats.Generator.Current)

	m := metrics.GetStats()
	assert.Equal(t, int64(2), m.AcquireCount)
	assert.Equal(t, int64(2), m.ReleaseCount)
	assert.Equal(t, int64(1), m.ReleaseErrors)
}

func TestRepository_AcquireWithID(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, idgen.MustNew(0, 1), persist.WithPoolSize(2))

	s, err := repo.AcquireWithID(ctx, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(100), s.ID())

	_, err = repo.AcquireWithID(ctx, 100, nil)
	require.ErrorIs(t, err, persist.ErrIdentityCollision)
}

func TestRepository_Refill(t *testing.T) {
	ctx := context.Background()
	metrics := &persist.BasicMetricsCollector{}
	repo := openRepo(t, idgen.MustNew(0, 1),
		persist.WithPoolSize(1),
		persist.WithRefillSize(2),
		persist.WithMetricsCollector(metrics),
	)

	for range 3 {
		_, err := repo.Acquire(ctx, nil)
		require.NoError(t, err)
	}

	stats := repo.Stats()
	assert.Equal(t, 3, stats.Pool.PoolSize)
	assert.Equal(t, 1, stats.Pool.Refills)
	assert.Equal(t, int64(1), metrics.GetStats().RefillCount)
	assert.Equal(t, int64(2), metrics.GetStats().RefillSlots)
}

func TestRepository_NoStore(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, idgen.MustNew(0, 1))

	s, err := repo.Acquire(ctx, nil)
	require.NoError(t, err)

	require.ErrorIs(t, repo.Save(ctx, s.Object()), persist.ErrNoStore)
	_, err = repo.Load(ctx, 1)
	require.ErrorIs(t, err, persist.ErrNoStore)
	_, err = repo.Checkpoint(ctx)
	require.ErrorIs(t, err, persist.ErrNoStore)
	_, err = repo.Recover(ctx)
	require.ErrorIs(t, err, persist.ErrNoStore)
	assert.Nil(t, repo.Manager())
}

func TestRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	metrics := &persist.BasicMetricsCollector{}
	repo := openRepo(t, idgen.MustNew(0, 1),
		persist.WithStore(blobstore.NewMemoryStore()),
		persist.WithMetricsCollector(metrics),
	)

	s, err := repo.Acquire(ctx, testutil.SetPoint(testutil.Point{X: 7, Y: -8, Z: 9}))
	require.NoError(t, err)
	id := s.ID()
	require.NoError(t, repo.Save(ctx, s.Object()))
	require.NoError(t, repo.Release(ctx, s))

	loaded, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID())
	assert.Equal(t, testutil.Point{X: 7, Y: -8, Z: 9}, *loaded.Object().Payload().(*testutil.Point))

	// A live identity cannot be loaded twice.
	_, err = repo.Load(ctx, id)
	require.ErrorIs(t, err, persist.ErrIdentityCollision)
	require.NoError(t, repo.Release(ctx, loaded))

	obj, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, obj.ID())

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []identity.ID{id}, ids)

	require.NoError(t, repo.Delete(ctx, id))
	ids, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	m := metrics.GetStats()
	assert.Equal(t, int64(1), m.SaveCount)
	assert.Equal(t, int64(3), m.LoadCount)
	assert.Equal(t, int64(1), m.LoadErrors)
}

func TestRepository_LoadNotFound(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, idgen.MustNew(0, 1),
		persist.WithPoolSize(1),
		persist.WithStore(blobstore.NewMemoryStore()),
	)

	_, err := repo.Load(ctx, 42)
	require.ErrorIs(t, err, persist.ErrNotFound)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	// The slot taken for the load went back to the pool.
	assert.Equal(t, 0, repo.Stats().Pool.InUse)

	_, err = repo.Load(ctx, identity.Null)
	require.ErrorIs(t, err, persistence.ErrNullID)
}

func TestRepository_LoadVersionMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	v1 := openRepo(t, idgen.MustNew(0, 1), persist.WithStore(store))
	s, err := v1.Acquire(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, v1.Save(ctx, s.Object()))

	typ := object.MustType("point", version.New(2, 0, 0), func() object.Payload { return &testutil.Point{} })
	v2, err := persist.Open(ctx, typ, idgen.MustNew(1000, 1), persist.WithStore(store))
	require.NoError(t, err)
	defer func() { _ = v2.Close(ctx) }()

	_, err = v2.Load(ctx, s.ID())
	require.ErrorIs(t, err, persist.ErrVersionMismatch)

	var ve *persist.ErrVersion
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, version.New(2, 0, 0).String(), ve.Want)
}

func TestRepository_SaveAll(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, idgen.MustNew(0, 1),
		persist.WithStore(blobstore.NewLocalStore(t.TempDir())),
		persist.WithResources(resource.Config{MaxWorkers: 2}),
	)

	rng := testutil.NewRNG(4711)
	var objs []*object.Object
	for range 10 {
		p := rng.Point()
		s, err := repo.Acquire(ctx, testutil.SetPoint(p))
		require.NoError(t, err)
		objs = append(objs, s.Object())
	}
	require.NoError(t, repo.SaveAll(ctx, objs))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 10)

	for _, want := range objs {
		got, err := repo.Get(ctx, want.ID())
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	}
}

func TestRepository_CheckpointRecover(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	repo, err := persist.Open(ctx, testutil.PointType(), idgen.MustNew(0, 1),
		persist.WithPoolSize(2),
		persist.WithStore(store),
		persist.WithRecover(),
		persist.WithCheckpointOnClose(),
	)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(2), repo.Generator().Current())
	require.NoError(t, repo.Close(ctx))

	// A fresh generator continues where the last one stopped.
	gen := idgen.MustNew(0, 1)
	reopened := openRepo(t, gen,
		persist.WithPoolSize(2),
		persist.WithStore(store),
		persist.WithRecover(),
	)
	s, err := reopened.Acquire(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(3), s.ID())
	assert.Equal(t, identity.ID(4), gen.Current())

	// Recover never moves the generator backwards.
	name, err := reopened.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, persistence.CheckpointName(1), name)
	assert.Equal(t, identity.ID(4), gen.Current())

	name, err = reopened.Checkpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, persistence.CheckpointName(2), name)
}

func TestRepository_Close(t *testing.T) {
	ctx := context.Background()
	repo, err := persist.Open(ctx, testutil.PointType(), idgen.MustNew(0, 1),
		persist.WithStore(blobstore.NewMemoryStore()),
	)
	require.NoError(t, err)

	s, err := repo.Acquire(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Close(ctx))
	require.NoError(t, repo.Close(ctx))

	_, err = repo.Acquire(ctx, nil)
	require.ErrorIs(t, err, persist.ErrClosed)
	require.ErrorIs(t, repo.Save(ctx, s.Object()), persist.ErrClosed)
	_, err = repo.Checkpoint(ctx)
	require.ErrorIs(t, err, persist.ErrClosed)
}

func TestRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, idgen.MustNew(0, 1),
		persist.WithPoolSize(4),
		persist.WithStore(blobstore.NewMemoryStore()),
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[identity.ID]bool)
		errs = make(chan error, 8)
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				s, err := repo.Acquire(ctx, nil)
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				dup := seen[s.ID()]
				seen[s.ID()] = true
				mu.Unlock()
				if dup {
					errs <- errors.New("duplicate identity")
					return
				}
				if err := repo.Save(ctx, s.Object()); err != nil {
					errs <- err
					return
				}
				if err := repo.Release(ctx, s); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, seen, 400)
	assert.Equal(t, 0, repo.Stats().Pool.InUse)
}

func TestRepository_LoadAfterRestartWithoutCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	first := openRepo(t, idgen.MustNew(0, 1), persist.WithPoolSize(4), persist.WithStore(store))
	for range 2 {
		s, err := first.Acquire(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, first.Save(ctx, s.Object()))
	}
	require.NoError(t, first.Close(ctx))

	// The new pool reserves ids 1..4 again.
	repo := openRepo(t, idgen.MustNew(0, 1), persist.WithPoolSize(4), persist.WithStore(store))
	loaded, err := repo.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(2), loaded.ID())

	for range 4 {
		s, err := repo.Acquire(ctx, nil)
		require.NoError(t, err)
		assert.NotEqual(t, identity.ID(2), s.ID())
	}
}
