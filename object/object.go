package object

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/codec"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/version"
)

// Object is a persistent entity.
//
// Object is not safe for concurrent mutation.
type Object struct {
	id   identity.ID
	typ  *Type
	data Payload
}

// New returns an object of typ with a zero payload.
func New(typ *Type, id identity.ID) *Object {
	return &Object{id: id, typ: typ, data: typ.NewPayload()}
}

// NewWith returns an object of typ wrapping data.
func NewWith(typ *Type, id identity.ID, data Payload) (*Object, error) {
	if data == nil || data.Size() != typ.DataSize() || data.ElementSize() != typ.ElementSize() {
		return nil, fmt.Errorf("%w: payload does not match %s", ErrTypeMismatch, typ)
	}
	return &Object{id: id, typ: typ, data: data}, nil
}

// ID returns the object's identity.
func (o *Object) ID() identity.ID { return o.id }

// SetID replaces the object's identity.
func (o *Object) SetID(id identity.ID) { o.id = id }

// Type returns the object's type.
func (o *Object) Type() *Type { return o.typ }

// Version implements Versioned.
func (o *Object) Version() version.Tag { return o.typ.Version() }

// Payload returns the live payload.
func (o *Object) Payload() Payload { return o.data }

// Hash defaults to the identity; payloads implementing Hasher override it.
func (o *Object) Hash() identity.Hash {
	if h, ok := o.data.(Hasher); ok {
		return h.Hash(o.id)
	}
	return identity.HashOf(o.id)
}

// Equal compares hashes first and falls back to the payloads. Objects of
// different types are never equal.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if !o.typ.Same(other.typ) {
		return false
	}
	if o.Hash() != other.Hash() {
		return false
	}
	return o.equalPayload(other)
}

func (o *Object) equalPayload(other *Object) bool {
	if eq, ok := o.data.(Equaler); ok {
		return eq.EqualPayload(other.data)
	}
	return bytes.Equal(o.Data(), other.Data())
}

// Data returns the packed payload in host byte order.
func (o *Object) Data() []byte {
	return o.AppendData(nil)
}

// AppendData appends the packed payload to dst.
func (o *Object) AppendData(dst []byte) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, o.typ.DataSize())...)
	o.data.Pack(dst[n:])
	return dst
}

// DataSize returns the packed payload size.
func (o *Object) DataSize() int { return o.typ.DataSize() }

// Size returns the encoded record size.
func (o *Object) Size() int { return o.typ.Size() }

// WriteBinary writes the record header, carrying the object's id, and the payload.
func (o *Object) WriteBinary(w io.Writer, order byteorder.Descriptor) error {
	cw := codec.NewWriter(w, order)
	if err := cw.WriteHeader(o.typ.Version().WithID(o.id)); err != nil {
		return err
	}
	return cw.WriteScalars(o.Data(), o.typ.ElementSize())
}

// ReadBinary reads a record into o. The header's tiers must equal the
// type's tag exactly. On any error o is left unchanged.
func (o *Object) ReadBinary(r io.Reader, order byteorder.Descriptor) error {
	cr := codec.NewReader(r, order)
	hdr, err := cr.ExpectHeader(o.typ.Version())
	if err != nil {
		return fmt.Errorf("%s: %w", o.typ.Name(), err)
	}
	buf := make([]byte, o.typ.DataSize())
	if err := cr.ReadScalars(buf, o.typ.ElementSize()); err != nil {
		return fmt.Errorf("%s: %w", o.typ.Name(), err)
	}
	o.data.Unpack(buf)
	o.id = hdr.ID
	return nil
}

// MarshalBinary encodes the record in host byte order.
func (o *Object) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(o.Size())
	if err := o.WriteBinary(&buf, byteorder.Host()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a host byte order record.
func (o *Object) UnmarshalBinary(data []byte) error {
	return o.ReadBinary(bytes.NewReader(data), byteorder.Host())
}

// Assign copies other's payload into o. Identity is kept.
func (o *Object) Assign(other *Object) error {
	if !o.typ.Same(other.typ) {
		return fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, o.typ, other.typ)
	}
	o.data.Unpack(other.Data())
	return nil
}

// Clone returns a deep copy that keeps o's identity.
func (o *Object) Clone() *Object {
	c := New(o.typ, o.id)
	c.data.Unpack(o.Data())
	return c
}

// Reset reinitialises the payload in place and applies init, if any.
func (o *Object) Reset(init func(Payload)) {
	zero := make([]byte, o.typ.DataSize())
	o.data.Unpack(zero)
	if init != nil {
		init(o.data)
	}
}

func (o *Object) String() string {
	return fmt.Sprintf("%s(%d)", o.typ.Name(), int64(o.id))
}

var (
	_ Persistent = (*Object)(nil)
	_ Versioned  = (*Type)(nil)
)
