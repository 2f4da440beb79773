// Package codec centralizes the binary wire encoding of versioned records.
//
// Every serialized record starts with a 14-byte header: the three int16
// version tiers followed by an int64 identity slot. Payload scalars follow in
// the caller-selected byte order.
//
// The header is a breaking-change boundary: a reader only accepts a header
// whose tiers equal the expected tag exactly, and aborts before consuming any
// payload byte otherwise.
package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/persist/version"
)

var (
	// ErrVersionMismatch matches every *VersionMismatchError via errors.Is.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrTruncated is returned when a stream ends before a header or payload is complete.
	ErrTruncated = errors.New("truncated stream")
)

// VersionMismatchError reports a header whose tag differs from the expected one.
type VersionMismatchError struct {
	Want version.Tag
	Got  version.Tag
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: want %s, got %s", e.Want, e.Got)
}

// Is makes errors.Is(err, ErrVersionMismatch) succeed.
func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }

// IsVersionMismatch returns true if err is or wraps a version mismatch.
func IsVersionMismatch(err error) bool {
	return errors.Is(err, ErrVersionMismatch)
}

func truncated(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrTruncated, what, err)
	}
	return fmt.Errorf("codec: read %s: %w", what, err)
}
