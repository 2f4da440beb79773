// Package idgen provides a step-based identity generator scoped to one
// entity type.
//
// A Generator is created once at startup and injected wherever identities are
// minted. It is safe for concurrent use: the counter is guarded by a single
// mutex.
package idgen

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/codec"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/version"
)

// Version is the tag written ahead of a serialized generator.
var Version = version.New(1, 0, 0)

// ErrZeroStep is returned when a generator is configured with step 0.
var ErrZeroStep = errors.New("idgen: step must not be zero")

// Generator produces a strictly monotonic sequence initial+step, initial+2*step, ...
type Generator struct {
	mu      sync.Mutex
	initial identity.ID
	current identity.ID
	step    identity.ID
}

// New creates a generator starting after initial and advancing by step.
func New(initial, step identity.ID) (*Generator, error) {
	if step == 0 {
		return nil, ErrZeroStep
	}
	return &Generator{initial: initial, current: initial, step: step}, nil
}

// MustNew is like New but panics on error.
func MustNew(initial, step identity.ID) *Generator {
	g, err := New(initial, step)
	if err != nil {
		panic(err)
	}
	return g
}

// Get advances the sequence and returns the new value.
func (g *Generator) Get() identity.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current += g.step
	return g.current
}

// Reserve advances the sequence n times and returns the emitted values in order.
func (g *Generator) Reserve(n int) []identity.ID {
	ids := make([]identity.ID, n)
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range ids {
		g.current += g.step
		ids[i] = g.current
	}
	return ids
}

// Next previews the value the next Get will return without advancing.
func (g *Generator) Next() identity.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current + g.step
}

// Current returns the last emitted value (initial if none was emitted).
func (g *Generator) Current() identity.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// SetValue rebases the sequence so that the next Get returns v+step.
func (g *Generator) SetValue(v identity.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = v
}

// Initial returns the configured initial value.
func (g *Generator) Initial() identity.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initial
}

// Step returns the configured step.
func (g *Generator) Step() identity.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step
}

// Version implements object.Versioned.
func (g *Generator) Version() version.Tag { return Version }

// Size returns the encoded size of the generator.
func (g *Generator) Size() int { return version.Size + 3*8 }

// State is a point-in-time copy of a generator's counters.
type State struct {
	Initial identity.ID
	Current identity.ID
	Step    identity.ID
}

// Snapshot returns the current state.
func (g *Generator) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{Initial: g.initial, Current: g.current, Step: g.step}
}

// Restore replaces the generator's state.
func (g *Generator) Restore(s State) error {
	if s.Step == 0 {
		return ErrZeroStep
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initial, g.current, g.step = s.Initial, s.Current, s.Step
	return nil
}

// WriteBinary writes the version tag followed by (initial, current, step).
func (g *Generator) WriteBinary(w io.Writer, order byteorder.Descriptor) error {
	s := g.Snapshot()
	cw := codec.NewWriter(w, order)
	if err := cw.WriteHeader(Version); err != nil {
		return err
	}
	return cw.WriteInt64s(int64(s.Initial), int64(s.Current), int64(s.Step))
}

// ReadBinary validates the version tag and loads (initial, current, step).
// The generator is unchanged if any step fails.
func (g *Generator) ReadBinary(r io.Reader, order byteorder.Descriptor) error {
	cr := codec.NewReader(r, order)
	if err := cr.ExpectTag(Version); err != nil {
		return fmt.Errorf("idgen: %w", err)
	}
	var vals [3]int64
	if err := cr.ReadInt64s(vals[:]); err != nil {
		return fmt.Errorf("idgen: %w", err)
	}
	return g.Restore(State{
		Initial: identity.ID(vals[0]),
		Current: identity.ID(vals[1]),
		Step:    identity.ID(vals[2]),
	})
}
