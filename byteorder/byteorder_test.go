package byteorder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequential(t *testing.T, elemSize, n int) []byte {
	t.Helper()
	buf := make([]byte, elemSize*n)
	order := Host().ByteOrder()
	for i := 0; i < n; i++ {
		switch elemSize {
		case 1:
			buf[i] = byte(i)
		case 2:
			order.PutUint16(buf[i*2:], uint16(i))
		case 4:
			order.PutUint32(buf[i*4:], uint32(i))
		case 8:
			order.PutUint64(buf[i*8:], uint64(i))
		default:
			t.Fatalf("unsupported element size %d", elemSize)
		}
	}
	return buf
}

func TestConvert_RoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			orig := sequential(t, size, 100)
			buf := bytes.Clone(orig)

			Convert(buf, size, Host(), BigEndian())
			Convert(buf, size, BigEndian(), Host())

			assert.Equal(t, orig, buf)
		})
	}
}

func TestConvert_ToBigEndianMatchesEncoding(t *testing.T) {
	buf := sequential(t, 4, 16)
	Convert(buf, 4, Host(), BigEndian())

	for i := 0; i < 16; i++ {
		assert.Equal(t, uint32(i), binary.BigEndian.Uint32(buf[i*4:]))
	}
}

func TestConvert_ReversesEachWindow(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	Convert(buf, 4, LittleEndian(), BigEndian())
	assert.Equal(t, []byte{4, 3, 2, 1, 8, 7, 6, 5}, buf)

	odd := []byte{1, 2, 3, 4, 5, 6}
	Convert(odd, 3, LittleEndian(), BigEndian())
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, odd)
}

func TestConvert_LeavesTrailingBytes(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	Convert(buf, 2, LittleEndian(), BigEndian())
	assert.Equal(t, []byte{2, 1, 4, 3, 5}, buf)
}

func TestConvert_NoOp(t *testing.T) {
	orig := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	tests := []struct {
		name     string
		elemSize int
		from, to Descriptor
	}{
		{"same descriptor", 4, BigEndian(), BigEndian()},
		{"single byte elements", 1, LittleEndian(), BigEndian()},
		{"invariance differs", 4, LittleEndian(), Descriptor{Endian: Big, Invariance: AddressInvariant, WordSize: WordSize}},
		{"word size differs", 4, LittleEndian(), Descriptor{Endian: Big, Invariance: DataInvariant, WordSize: 4}},
		{"zero element size", 0, LittleEndian(), BigEndian()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.Clone(orig)
			Convert(buf, tt.elemSize, tt.from, tt.to)
			assert.Equal(t, orig, buf)
		})
	}
}

func TestDescriptor_NativeResolution(t *testing.T) {
	host := Host()
	resolved := host
	resolved.Endian = host.Endian.Resolve()

	require.True(t, host.Equal(resolved))
	assert.False(t, NeedsSwap(host, resolved))
	assert.True(t, NeedsSwap(LittleEndian(), BigEndian()))
	assert.False(t, NeedsSwap(LittleEndian(), Descriptor{Endian: Big, Invariance: AddressInvariant, WordSize: WordSize}))
}

func TestDescriptor_ByteOrder(t *testing.T) {
	assert.Equal(t, binary.BigEndian, BigEndian().ByteOrder())
	assert.Equal(t, binary.LittleEndian, LittleEndian().ByteOrder())
	assert.Equal(t, "big/data-invariant/8", Descriptor{Endian: Big, WordSize: 8}.String())
}

func BenchmarkConvert(b *testing.B) {
	for _, size := range []int{2, 4, 8} {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			buf := make([]byte, 4096)
			b.SetBytes(int64(len(buf)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Convert(buf, size, LittleEndian(), BigEndian())
			}
		})
	}
}
