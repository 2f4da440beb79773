package object

import (
	"errors"
	"fmt"

	"github.com/hupe1980/persist/version"
)

var (
	// ErrInvalidType is returned by NewType for inconsistent type definitions.
	ErrInvalidType = errors.New("invalid object type")
	// ErrTypeMismatch is returned when combining objects of different types.
	ErrTypeMismatch = errors.New("object type mismatch")
)

// Type describes one kind of persistent object. Types are created once at
// startup and shared by reference.
type Type struct {
	name     string
	version  version.Tag
	newFn    func() Payload
	dataSize int
	elemSize int
}

// NewType validates and registers a type. newFn must return a fresh zero payload.
func NewType(name string, tag version.Tag, newFn func() Payload) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidType)
	}
	if newFn == nil {
		return nil, fmt.Errorf("%w: %s: nil constructor", ErrInvalidType, name)
	}
	sample := newFn()
	if sample == nil {
		return nil, fmt.Errorf("%w: %s: constructor returned nil", ErrInvalidType, name)
	}
	size, elem := sample.Size(), sample.ElementSize()
	switch elem {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("%w: %s: element size %d", ErrInvalidType, name, elem)
	}
	if size <= 0 || size%elem != 0 {
		return nil, fmt.Errorf("%w: %s: size %d is not a positive multiple of %d", ErrInvalidType, name, size, elem)
	}
	return &Type{
		name:     name,
		version:  tag,
		newFn:    newFn,
		dataSize: size,
		elemSize: elem,
	}, nil
}

// MustType is like NewType but panics on error.
func MustType(name string, tag version.Tag, newFn func() Payload) *Type {
	t, err := NewType(name, tag, newFn)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Version implements Versioned.
func (t *Type) Version() version.Tag { return t.version }

// DataSize returns the packed payload size.
func (t *Type) DataSize() int { return t.dataSize }

// ElementSize returns the payload scalar width.
func (t *Type) ElementSize() int { return t.elemSize }

// Size returns the encoded record size: header plus payload.
func (t *Type) Size() int { return t.dataSize + version.Size }

// NewPayload returns a fresh zero payload.
func (t *Type) NewPayload() Payload { return t.newFn() }

// Same reports whether t and o describe the same type.
func (t *Type) Same(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.name == o.name && t.version.Equal(o.version)
}

func (t *Type) String() string {
	return t.name + "@" + t.version.String()
}
