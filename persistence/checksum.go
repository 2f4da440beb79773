package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	phash "github.com/hupe1980/persist/internal/hash"
)

// TrailerSize is the size of the CRC32C trailer appended to every record.
const TrailerSize = 4

// ErrCorrupt is returned when a stored blob fails verification.
var ErrCorrupt = errors.New("persistence: corrupt record")

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Name     string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch in %s: expected 0x%08x, got 0x%08x",
		e.Name, e.Expected, e.Actual)
}

// Is makes ChecksumMismatchError match ErrCorrupt.
func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrCorrupt }

// ChecksumWriter wraps an io.Writer and computes a running CRC32C.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

// NewChecksumWriter creates a new checksumming writer.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{
		w:    w,
		hash: phash.NewCRC32C(),
	}
}

// Write implements io.Writer. Only bytes accepted by the underlying
// writer are hashed.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	_, _ = cw.hash.Write(p[:n])
	return n, err
}

// Sum returns the current checksum value.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// WriteTrailer appends the checksum of everything written so far.
func (cw *ChecksumWriter) WriteTrailer() error {
	var b [TrailerSize]byte
	binary.LittleEndian.PutUint32(b[:], cw.Sum())
	_, err := cw.w.Write(b[:])
	return err
}

// ChecksumReader wraps an io.Reader and computes a running CRC32C.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

// NewChecksumReader creates a new checksumming reader.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{
		r:    r,
		hash: phash.NewCRC32C(),
	}
}

// Read implements io.Reader.
func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		_, _ = cr.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the current checksum value.
func (cr *ChecksumReader) Sum() uint32 {
	return cr.hash.Sum32()
}

// Verify checks if the computed checksum matches the expected value.
func (cr *ChecksumReader) Verify(name string, expected uint32) error {
	if actual := cr.Sum(); actual != expected {
		return &ChecksumMismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return nil
}

// seal returns rec with its CRC32C trailer appended.
func seal(rec []byte) []byte {
	return binary.LittleEndian.AppendUint32(rec, phash.CRC32C(rec))
}

// unseal verifies and strips the trailer of a stored blob.
func unseal(name string, blob []byte) ([]byte, error) {
	if len(blob) < TrailerSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrCorrupt, name, len(blob))
	}
	rec := blob[:len(blob)-TrailerSize]
	expected := binary.LittleEndian.Uint32(blob[len(rec):])
	if actual := phash.CRC32C(rec); actual != expected {
		return nil, &ChecksumMismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return rec, nil
}
