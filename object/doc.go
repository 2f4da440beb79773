// Package object implements the persistent object model.
//
// An Object carries an identity, a fixed-size Payload and a reference to its
// Type, which owns the type's Version tag. Objects round-trip through a
// self-describing binary record:
//
//	[int16 public][int16 protected][int16 private][int64 id]
//	[payload: DataSize() bytes in the caller-selected byte order]
//
// Payloads pack themselves field by field into host-order scalars of one
// element width; the record codec converts those scalars to the requested
// byte order. Nothing depends on the compiler's struct layout.
//
// Reads are all-or-nothing: a version mismatch or a short stream leaves the
// target object untouched.
package object
