package mmap

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 10, m.Len())
	assert.Equal(t, []byte("0123456789"), m.Bytes())

	p := make([]byte, 4)
	n, err := m.ReadAt(p, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("3456"), p)

	n, err = m.ReadAt(p, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = m.ReadAt(p, 10)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Nil(t, m.Bytes())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadAt_AfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestOpen_SnapshotSurvivesReplace(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("cannot rename over a mapped file on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "42.rec")
	require.NoError(t, os.WriteFile(path, []byte("old record"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	// Stores replace records by writing a temp file and renaming it over.
	tmp := filepath.Join(dir, "42.rec.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("new record"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Equal(t, []byte("old record"), m.Bytes())

	m2, err := Open(path)
	require.NoError(t, err)
	defer m2.Close()
	assert.Equal(t, []byte("new record"), m2.Bytes())
}
