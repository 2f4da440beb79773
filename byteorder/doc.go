// Package byteorder describes how a buffer of scalar elements is laid out and
// converts such buffers between two layouts in place.
//
// A Descriptor is an endianness, an invariance mode and a word size. Convert
// only performs straight endianness flips: when two descriptors differ in
// invariance mode or word size the buffer is left untouched, because no
// correct transform can be derived from the descriptors alone.
//
// # Usage
//
//	buf := make([]byte, 8*n)
//	// ... fill buf with n native uint64 values ...
//	byteorder.Convert(buf, 8, byteorder.Host(), byteorder.BigEndian())
package byteorder
