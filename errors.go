package persist

import (
	"errors"
	"fmt"

	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/codec"
	"github.com/hupe1980/persist/persistence"
	"github.com/hupe1980/persist/pool"
)

var (
	// ErrNotFound is returned when a stored object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when a Repository is used after Close.
	ErrClosed = errors.New("repository closed")

	// ErrNoStore is returned by persistence operations on a Repository
	// opened without a blob store.
	ErrNoStore = errors.New("no blob store configured")

	// ErrVersionMismatch is returned when a record's version tag differs
	// from the expected one.
	ErrVersionMismatch = codec.ErrVersionMismatch

	// ErrTruncated is returned when a record ends before its declared size.
	ErrTruncated = codec.ErrTruncated

	// ErrCorrupt is returned when a stored record fails verification.
	ErrCorrupt = persistence.ErrCorrupt

	// ErrNoCheckpoint is returned by Recover when the store holds no checkpoint.
	ErrNoCheckpoint = persistence.ErrNoCheckpoint

	// ErrIdentityCollision is returned when acquiring an identity that is
	// already held by a live object.
	ErrIdentityCollision = pool.ErrIdentityCollision
)

// ErrVersion reports the tags involved in a version mismatch.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrVersion struct {
	Want  string
	Got   string
	cause error
}

func (e *ErrVersion) Error() string {
	return fmt.Sprintf("version mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *ErrVersion) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Closed unification.
	if errors.Is(err, pool.ErrClosed) || errors.Is(err, persistence.ErrManagerClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	var vm *codec.VersionMismatchError
	if errors.As(err, &vm) {
		return &ErrVersion{Want: vm.Want.String(), Got: vm.Got.String(), cause: err}
	}

	return err
}
