package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_RoundTrip(t *testing.T) {
	tag := version.New(1, -2, 3).WithID(0x0102030405060708)

	for _, order := range []byteorder.Descriptor{byteorder.Host(), byteorder.BigEndian(), byteorder.LittleEndian()} {
		t.Run(order.String(), func(t *testing.T) {
			var buf [version.Size]byte
			PutHeader(buf[:], tag, order)
			assert.Equal(t, tag, Header(buf[:], order))
		})
	}
}

func TestHeader_BigEndianLayout(t *testing.T) {
	var buf [version.Size]byte
	PutHeader(buf[:], version.New(1, 2, 3).WithID(9), byteorder.BigEndian())

	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(buf[0:]))
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(buf[2:]))
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(buf[4:]))
	assert.Equal(t, uint64(9), binary.BigEndian.Uint64(buf[6:]))
}

func TestWriterReader_Scalars(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, byteorder.BigEndian())

	require.NoError(t, w.WriteHeader(version.New(1, 1, 1).WithID(5)))
	require.NoError(t, w.WriteInt64s(1, -1, 1<<40))
	assert.Equal(t, version.Size+24, buf.Len())

	r := NewReader(&buf, byteorder.BigEndian())
	tag, err := r.ExpectHeader(version.New(1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(5), int64(tag.ID))

	vals := make([]int64, 3)
	require.NoError(t, r.ReadInt64s(vals))
	assert.Equal(t, []int64{1, -1, 1 << 40}, vals)
}

func TestWriter_WriteScalarsDoesNotModifyInput(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, byteorder.BigEndian()).WriteScalars(data, 2))
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestReader_VersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, byteorder.Host()).WriteHeader(version.New(1, 1, 2)))

	_, err := NewReader(&buf, byteorder.Host()).ExpectHeader(version.New(1, 1, 1))
	require.Error(t, err)
	assert.True(t, IsVersionMismatch(err))

	var vm *VersionMismatchError
	require.True(t, errors.As(err, &vm))
	assert.Equal(t, version.New(1, 1, 1), vm.Want)
	assert.Equal(t, version.New(1, 1, 2), vm.Got)
}

func TestReader_ExpectTagComparesID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, byteorder.Host()).WriteHeader(version.New(1, 0, 0).WithID(3)))

	err := NewReader(&buf, byteorder.Host()).ExpectTag(version.New(1, 0, 0))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestReader_Truncated(t *testing.T) {
	for _, n := range []int{0, 1, version.Size - 1} {
		t.Run(fmt.Sprintf("header=%d", n), func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(make([]byte, n)), byteorder.Host()).ReadHeader()
			assert.ErrorIs(t, err, ErrTruncated)
		})
	}

	r := NewReader(bytes.NewReader([]byte{1, 2, 3}), byteorder.Host())
	err := r.ReadScalars(make([]byte, 8), 8)
	assert.ErrorIs(t, err, ErrTruncated)
}
