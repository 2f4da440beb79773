package object

import (
	"io"

	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/version"
)

// Payload is the fixed-size state of an object.
//
// Pack and Unpack use host byte order and must touch exactly Size() bytes.
// Size must not vary between instances of the same type.
type Payload interface {
	// Size returns the packed size in bytes.
	Size() int
	// ElementSize returns the width of the scalars the packed form is made of
	// (1, 2, 4 or 8). Byte-order conversion reverses each element in place.
	ElementSize() int
	Pack(dst []byte)
	Unpack(src []byte)
}

// Hasher is implemented by payloads with a richer notion of equality than
// identity. Hash receives the owning object's id.
type Hasher interface {
	Hash(id identity.ID) identity.Hash
}

// Equaler is implemented by payloads that compare semantically instead of
// byte by byte. It is only called for payloads of the same type.
type Equaler interface {
	EqualPayload(other Payload) bool
}

// Versioned exposes the compatibility tag of a type.
type Versioned interface {
	Version() version.Tag
}

// Serializable is implemented by anything that round-trips through a
// version-guarded binary stream.
type Serializable interface {
	WriteBinary(w io.Writer, order byteorder.Descriptor) error
	ReadBinary(r io.Reader, order byteorder.Descriptor) error
}

// Persistent is the full contract of a persistent object.
type Persistent interface {
	Versioned
	Serializable
	ID() identity.ID
	Hash() identity.Hash
}
