package pool

import (
	"sync"
	"testing"

	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/idgen"
	"github.com/hupe1980/persist/object"
	"github.com/hupe1980/persist/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T, optFns ...Option) (*Factory, *idgen.Generator) {
	t.Helper()
	gen := idgen.MustNew(0, 1)
	return New(testutil.PointType(), gen, optFns...), gen
}

func TestFactory_ReuseThenGrowth(t *testing.T) {
	var events []RefillEvent
	f, _ := newFactory(t,
		WithPoolSize(3),
		WithRefillSize(2),
		WithRefillHook(func(ev RefillEvent) { events = append(events, ev) }),
	)

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 3, f.Available())

	for i := 0; i < 3; i++ {
		s, err := f.Get(nil)
		require.NoError(t, err)
		assert.Equal(t, i, s.Index())
	}
	assert.Empty(t, events)
	assert.Equal(t, 0, f.Available())

	s, err := f.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Index())

	require.Len(t, events, 1)
	assert.Equal(t, RefillEvent{Added: 2, PoolSize: 5, Available: 2, Refills: 1}, events[0])
	assert.Equal(t, Stats{PoolSize: 5, Available: 1, InUse: 4, Refills: 1}, f.Stats())
}

func TestFactory_MintedIdentities(t *testing.T) {
	f, gen := newFactory(t, WithPoolSize(2), WithRefillSize(1))

	a, err := f.Get(nil)
	require.NoError(t, err)
	b, err := f.Get(nil)
	require.NoError(t, err)
	c, err := f.Get(nil)
	require.NoError(t, err)

	assert.Equal(t, identity.ID(1), a.ID())
	assert.Equal(t, identity.ID(2), b.ID())
	assert.Equal(t, identity.ID(3), c.ID())
	assert.Equal(t, identity.ID(3), gen.Current())
}

func TestFactory_ReuseAssignsFreshIdentity(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(1), WithRefillSize(1))

	s, err := f.Get(testutil.SetPoint(testutil.Point{X: 1, Y: 2, Z: 3}))
	require.NoError(t, err)
	first := s.ID()
	s.MarkChanged()
	require.True(t, s.Changed())
	require.NoError(t, f.Put(s))
	assert.False(t, s.InUse())

	again, err := f.Get(nil)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.NotEqual(t, first, again.ID())
	assert.False(t, again.Changed())
	assert.True(t, again.InUse())
	assert.Equal(t, &testutil.Point{}, again.Object().Payload(), "payload is reinitialised on reuse")
	assert.Equal(t, 1, f.Len())
}

func TestFactory_InitApplied(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(1))

	s, err := f.Get(testutil.SetPoint(testutil.Point{X: 4, Y: 5, Z: 6}))
	require.NoError(t, err)
	assert.Equal(t, &testutil.Point{X: 4, Y: 5, Z: 6}, s.Object().Payload())
}

func TestFactory_FirstFreeSlotInIndexOrder(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(4))

	slots := make([]*Slot, 4)
	for i := range slots {
		s, err := f.Get(nil)
		require.NoError(t, err)
		slots[i] = s
	}
	require.NoError(t, f.Put(slots[2]))
	require.NoError(t, f.Put(slots[1]))

	s, err := f.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Index())
}

func TestFactory_SuppliedIdentity(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(2))

	s, err := f.GetWithID(100, nil)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(100), s.ID())
	assert.True(t, f.Contains(100))

	_, err = f.GetWithID(100, nil)
	assert.ErrorIs(t, err, ErrIdentityCollision)
	assert.Equal(t, 1, f.Available(), "a rejected get must not consume a slot")

	require.NoError(t, f.Put(s))
	assert.False(t, f.Contains(100))

	s, err = f.GetWithID(100, nil)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(100), s.ID())
}

func TestFactory_SuppliedIdentityClaimsReservedID(t *testing.T) {
	f, gen := newFactory(t, WithPoolSize(3), WithRefillSize(1))

	// Slot 1 still holds id 2 in reserve.
	claimed, err := f.GetWithID(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, claimed.Index())

	seen := map[identity.ID]bool{2: true}
	for range 3 {
		s, err := f.Get(nil)
		require.NoError(t, err)
		assert.False(t, seen[s.ID()], "identity %d handed out twice", s.ID())
		seen[s.ID()] = true
	}

	assert.Equal(t, 4, f.Len())
	assert.Greater(t, gen.Current(), identity.ID(3))
}

func TestFactory_PutErrors(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(1))
	other, _ := newFactory(t, WithPoolSize(1))

	s, err := f.Get(nil)
	require.NoError(t, err)

	assert.ErrorIs(t, other.Put(s), ErrForeignSlot)
	assert.ErrorIs(t, f.Put(nil), ErrNotInUse)
	require.NoError(t, f.Put(s))
	assert.ErrorIs(t, f.Put(s), ErrNotInUse)
	assert.Equal(t, 1, f.Available())
}

func TestFactory_Close(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(2))
	s, err := f.Get(nil)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)
	assert.ErrorIs(t, f.Put(s), ErrClosed)

	_, err = f.Get(nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, f.Len())
}

func TestFactory_ZeroPoolSize(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(0), WithRefillSize(0))
	assert.Equal(t, 0, f.Len())

	s, err := f.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, Stats{PoolSize: 1, Available: 0, InUse: 1, Refills: 1}, f.Stats())
}

func TestFactory_Concurrent(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(4), WithRefillSize(4))

	const workers, rounds = 8, 200
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				s, err := f.Get(nil)
				if err != nil {
					errs <- err
					return
				}
				if err := f.Put(s); err != nil {
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
	st := f.Stats()
	assert.Equal(t, 0, st.InUse)
	assert.Equal(t, st.PoolSize, st.Available)
	assert.LessOrEqual(t, st.PoolSize, workers+4)
}

func TestFactory_ObjectsRoundTripThroughPool(t *testing.T) {
	f, _ := newFactory(t, WithPoolSize(1))
	s, err := f.Get(testutil.SetPoint(testutil.Point{X: 9}))
	require.NoError(t, err)

	data, err := s.Object().MarshalBinary()
	require.NoError(t, err)

	fresh := object.New(f.Type(), identity.Null)
	require.NoError(t, fresh.UnmarshalBinary(data))
	assert.True(t, s.Object().Equal(fresh))
}
