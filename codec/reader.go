package codec

import (
	"io"

	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/version"
)

// Reader reads record headers and scalar blocks in a fixed byte order.
type Reader struct {
	r     io.Reader
	order byteorder.Descriptor
}

// NewReader creates a Reader consuming data in the given byte order.
func NewReader(r io.Reader, order byteorder.Descriptor) *Reader {
	return &Reader{r: r, order: order}
}

// Order returns the reader's byte order.
func (cr *Reader) Order() byteorder.Descriptor { return cr.order }

// ReadHeader reads a record header without validating it.
func (cr *Reader) ReadHeader() (version.Tag, error) {
	var hdr [version.Size]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		return version.Tag{}, truncated("header", err)
	}
	return Header(hdr[:], cr.order), nil
}

// ExpectHeader reads a record header and checks that its tiers equal want's.
// The id slot carries the record's identity and is returned as part of the tag.
func (cr *Reader) ExpectHeader(want version.Tag) (version.Tag, error) {
	got, err := cr.ReadHeader()
	if err != nil {
		return version.Tag{}, err
	}
	if !got.SameTiers(want) {
		return version.Tag{}, &VersionMismatchError{Want: want, Got: got}
	}
	return got, nil
}

// ExpectTag reads a record header and requires it to equal want exactly,
// id slot included.
func (cr *Reader) ExpectTag(want version.Tag) error {
	got, err := cr.ReadHeader()
	if err != nil {
		return err
	}
	if !got.Equal(want) {
		return &VersionMismatchError{Want: want, Got: got}
	}
	return nil
}

// ReadScalars fills dst with a block of elemSize scalars and converts it to
// host order. On error dst may hold partial data; callers read into scratch
// space and commit only on success.
func (cr *Reader) ReadScalars(dst []byte, elemSize int) error {
	if len(dst) == 0 {
		return nil
	}
	if _, err := io.ReadFull(cr.r, dst); err != nil {
		return truncated("payload", err)
	}
	byteorder.Convert(dst, elemSize, cr.order, byteorder.Host())
	return nil
}

// ReadInt64s fills dst with 8-byte scalars.
func (cr *Reader) ReadInt64s(dst []int64) error {
	block := make([]byte, 8*len(dst))
	if err := cr.ReadScalars(block, 8); err != nil {
		return err
	}
	bo := byteorder.Host().ByteOrder()
	for i := range dst {
		dst[i] = int64(bo.Uint64(block[i*8:]))
	}
	return nil
}
