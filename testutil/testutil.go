package testutil

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/persist/object"
	"github.com/hupe1980/persist/version"
)

// PointVersion is the tag of PointType.
var PointVersion = version.New(1, 0, 0)

// Point is a payload of three int64 coordinates.
type Point struct {
	X, Y, Z int64
}

func (*Point) Size() int        { return 24 }
func (*Point) ElementSize() int { return 8 }

func (p *Point) Pack(dst []byte) {
	binary.NativeEndian.PutUint64(dst[0:], uint64(p.X))
	binary.NativeEndian.PutUint64(dst[8:], uint64(p.Y))
	binary.NativeEndian.PutUint64(dst[16:], uint64(p.Z))
}

func (p *Point) Unpack(src []byte) {
	p.X = int64(binary.NativeEndian.Uint64(src[0:]))
	p.Y = int64(binary.NativeEndian.Uint64(src[8:]))
	p.Z = int64(binary.NativeEndian.Uint64(src[16:]))
}

// PointType returns a fresh type descriptor for Point.
func PointType() *object.Type {
	return object.MustType("point", PointVersion, func() object.Payload { return &Point{} })
}

// SetPoint returns an init function that copies p into a Point payload.
func SetPoint(p Point) func(object.Payload) {
	return func(dst object.Payload) {
		*dst.(*Point) = p
	}
}

// SamplesVersion is the tag of SamplesType.
var SamplesVersion = version.New(1, 0, 0)

// Samples is a payload of a fixed number of float32 values.
type Samples struct {
	V []float32
}

func (s *Samples) Size() int      { return 4 * len(s.V) }
func (*Samples) ElementSize() int { return 4 }

func (s *Samples) Pack(dst []byte) {
	for i, v := range s.V {
		binary.NativeEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func (s *Samples) Unpack(src []byte) {
	for i := range s.V {
		s.V[i] = math.Float32frombits(binary.NativeEndian.Uint32(src[i*4:]))
	}
}

// SamplesType returns a type descriptor for Samples of length n.
func SamplesType(n int) *object.Type {
	return object.MustType("samples", SamplesVersion, func() object.Payload {
		return &Samples{V: make([]float32, n)}
	})
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63 returns a non-negative pseudo-random int64.
func (r *RNG) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63()
}

// Point returns a Point with random signed coordinates.
func (r *RNG) Point() Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Point{
		X: int64(r.rand.Uint64()),
		Y: int64(r.rand.Uint64()),
		Z: int64(r.rand.Uint64()),
	}
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// Samples returns n uniform samples in [0, 1).
func (r *RNG) Samples(n int) []float32 {
	v := make([]float32, n)
	r.FillUniform(v)
	return v
}
