package codec

import (
	"io"

	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/version"
)

// Writer writes record headers and scalar blocks in a fixed byte order.
type Writer struct {
	w     io.Writer
	order byteorder.Descriptor
	buf   []byte
}

// NewWriter creates a Writer emitting data in the given byte order.
func NewWriter(w io.Writer, order byteorder.Descriptor) *Writer {
	return &Writer{w: w, order: order}
}

// Order returns the writer's byte order.
func (cw *Writer) Order() byteorder.Descriptor { return cw.order }

// WriteHeader writes the 14-byte record header.
func (cw *Writer) WriteHeader(tag version.Tag) error {
	var hdr [version.Size]byte
	PutHeader(hdr[:], tag, cw.order)
	_, err := cw.w.Write(hdr[:])
	return err
}

// WriteScalars writes data, a block of host-order scalars of elemSize bytes,
// converted to the writer's byte order. data itself is not modified.
func (cw *Writer) WriteScalars(data []byte, elemSize int) error {
	if len(data) == 0 {
		return nil
	}
	if !byteorder.NeedsSwap(byteorder.Host(), cw.order) || elemSize <= 1 {
		_, err := cw.w.Write(data)
		return err
	}
	cw.buf = append(cw.buf[:0], data...)
	byteorder.Convert(cw.buf, elemSize, byteorder.Host(), cw.order)
	_, err := cw.w.Write(cw.buf)
	return err
}

// WriteInt64s writes vs as 8-byte scalars.
func (cw *Writer) WriteInt64s(vs ...int64) error {
	block := make([]byte, 8*len(vs))
	bo := byteorder.Host().ByteOrder()
	for i, v := range vs {
		bo.PutUint64(block[i*8:], uint64(v))
	}
	return cw.WriteScalars(block, 8)
}
