package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Buffer(t *testing.T) {
	c := NewController(Config{MaxInflightBytes: 100})

	require.NoError(t, c.AcquireBuffer(context.Background(), 50))
	assert.Equal(t, int64(50), c.BufferUsage())

	require.NoError(t, c.AcquireBuffer(context.Background(), 40))
	assert.Equal(t, int64(90), c.BufferUsage())

	// TryAcquire 20 (should fail)
	assert.False(t, c.TryAcquireBuffer(20))
	assert.Equal(t, int64(90), c.BufferUsage())

	// Acquire 20 (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AcquireBuffer(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseBuffer(50)
	assert.Equal(t, int64(40), c.BufferUsage())

	require.NoError(t, c.AcquireBuffer(context.Background(), 20))
	assert.Equal(t, int64(60), c.BufferUsage())
}

func TestController_OversizedBuffer(t *testing.T) {
	c := NewController(Config{MaxInflightBytes: 10})

	// Larger than the budget still proceeds when nothing else is held.
	require.NoError(t, c.AcquireBuffer(context.Background(), 25))
	assert.False(t, c.TryAcquireBuffer(1))
	c.ReleaseBuffer(25)
	assert.True(t, c.TryAcquireBuffer(1))
}

func TestController_UnlimitedBuffer(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireBuffer(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.BufferUsage())

	c.ReleaseBuffer(500)
	assert.Equal(t, int64(500), c.BufferUsage())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.Workers())

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))

	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireBuffer(context.Background(), 1<<40))
	assert.True(t, c.TryAcquireBuffer(1))
	c.ReleaseBuffer(1)
	require.NoError(t, c.AcquireWorker(context.Background()))
	c.ReleaseWorker()
	require.NoError(t, c.WaitIO(context.Background(), 1<<20))
	assert.Equal(t, 0, c.Workers())
	assert.Equal(t, Config{}, c.Config())
}

func TestController_WaitIOSplitsLargeRequests(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 1 << 20})

	// Larger than one burst, must not fail with "exceeds burst".
	require.NoError(t, c.WaitIO(context.Background(), 1<<20+1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.WaitIO(ctx, 1<<21))
}

func TestRateLimitedIO(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 1 << 20})
	ctx := context.Background()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	_, err := io.Copy(w, strings.NewReader("record"))
	require.NoError(t, err)
	assert.Equal(t, "record", buf.String())

	r := NewRateLimitedReader(ctx, &buf, c)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "record", string(got))
}
