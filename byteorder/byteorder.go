package byteorder

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strconv"

	"golang.org/x/sys/cpu"
)

// Endian is the byte significance order of a multi-byte scalar.
type Endian uint8

const (
	// Native resolves to the endianness of the running platform.
	Native Endian = iota
	// Little stores the least significant byte first.
	Little
	// Big stores the most significant byte first.
	Big
)

// String returns the lower-case name of the endianness.
func (e Endian) String() string {
	switch e {
	case Native:
		return "native"
	case Little:
		return "little"
	case Big:
		return "big"
	default:
		return "Endian(" + strconv.Itoa(int(e)) + ")"
	}
}

// Resolve maps Native to Little or Big for the running platform.
func (e Endian) Resolve() Endian {
	if e != Native {
		return e
	}
	if cpu.IsBigEndian {
		return Big
	}
	return Little
}

// Invariance says what a byte reordering preserves.
type Invariance uint8

const (
	// DataInvariant reordering preserves the logical value of each scalar.
	DataInvariant Invariance = iota
	// AddressInvariant reordering preserves the physical address mapping.
	AddressInvariant
)

// String returns the name of the invariance mode.
func (i Invariance) String() string {
	switch i {
	case DataInvariant:
		return "data-invariant"
	case AddressInvariant:
		return "address-invariant"
	default:
		return "Invariance(" + strconv.Itoa(int(i)) + ")"
	}
}

// WordSize is the platform word size in bytes.
const WordSize = strconv.IntSize / 8

// Descriptor describes the layout of a buffer of scalars.
type Descriptor struct {
	Endian     Endian
	Invariance Invariance
	// WordSize is the machine word width in bytes.
	WordSize int
}

// Host returns the descriptor of the running platform, with Native endianness.
func Host() Descriptor {
	return Descriptor{Endian: Native, Invariance: DataInvariant, WordSize: WordSize}
}

// BigEndian returns a data-invariant big-endian descriptor with the platform word size.
func BigEndian() Descriptor {
	return Descriptor{Endian: Big, Invariance: DataInvariant, WordSize: WordSize}
}

// LittleEndian returns a data-invariant little-endian descriptor with the platform word size.
func LittleEndian() Descriptor {
	return Descriptor{Endian: Little, Invariance: DataInvariant, WordSize: WordSize}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s/%d", d.Endian, d.Invariance, d.WordSize)
}

// Equal reports whether both descriptors describe the same layout.
// Native is resolved before comparing.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Endian.Resolve() == o.Endian.Resolve() &&
		d.Invariance == o.Invariance &&
		d.WordSize == o.WordSize
}

// EndianOnlyDifferent reports whether d and o share invariance and word size
// and differ only in (resolved) endianness.
func (d Descriptor) EndianOnlyDifferent(o Descriptor) bool {
	return d.Invariance == o.Invariance &&
		d.WordSize == o.WordSize &&
		d.Endian.Resolve() != o.Endian.Resolve()
}

// ByteOrder returns the encoding/binary byte order matching the descriptor's
// resolved endianness.
func (d Descriptor) ByteOrder() binary.ByteOrder {
	if d.Endian.Resolve() == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// NeedsSwap reports whether Convert would reorder bytes between from and to.
func NeedsSwap(from, to Descriptor) bool {
	return from.EndianOnlyDifferent(to)
}

// Convert rewrites buf in place from the layout from to the layout to.
//
// Only endian-only differences are converted: the bytes inside every complete
// elemSize window are reversed. Trailing bytes that do not fill a window are
// left as they are. In every other case, including elemSize <= 1, Convert is
// a no-op.
func Convert(buf []byte, elemSize int, from, to Descriptor) {
	if elemSize <= 1 || !NeedsSwap(from, to) {
		return
	}
	n := len(buf) / elemSize
	switch elemSize {
	case 2:
		for i := 0; i < n; i++ {
			w := buf[i*2 : i*2+2]
			binary.LittleEndian.PutUint16(w, bits.ReverseBytes16(binary.LittleEndian.Uint16(w)))
		}
	case 4:
		for i := 0; i < n; i++ {
			w := buf[i*4 : i*4+4]
			binary.LittleEndian.PutUint32(w, bits.ReverseBytes32(binary.LittleEndian.Uint32(w)))
		}
	case 8:
		for i := 0; i < n; i++ {
			w := buf[i*8 : i*8+8]
			binary.LittleEndian.PutUint64(w, bits.ReverseBytes64(binary.LittleEndian.Uint64(w)))
		}
	default:
		for i := 0; i < n; i++ {
			reverse(buf[i*elemSize : (i+1)*elemSize])
		}
	}
}

func reverse(w []byte) {
	for j, k := 0, len(w)-1; j < k; j, k = j+1, k-1 {
		w[j], w[k] = w[k], w[j]
	}
}
