package pool

import (
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/object"
)

// Slot is a handle to one pooled object.
//
// A slot is only valid between Get and Put. The object it carries must not be
// retained after the slot is returned.
type Slot struct {
	obj     *object.Object
	index   int
	inUse   bool
	changed bool
	// fresh marks a minted id that has never been handed out.
	fresh bool
	owner *Factory
}

// Object returns the pooled object.
func (s *Slot) Object() *object.Object { return s.obj }

// ID returns the identity of the pooled object.
func (s *Slot) ID() identity.ID { return s.obj.ID() }

// Index returns the slot's position in the pool.
func (s *Slot) Index() int { return s.index }

// InUse reports whether the slot is currently handed out.
func (s *Slot) InUse() bool {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.inUse
}

// Changed reports whether the object was modified since it was handed out.
func (s *Slot) Changed() bool {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.changed
}

// MarkChanged flags the object as modified.
func (s *Slot) MarkChanged() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.changed = true
}
