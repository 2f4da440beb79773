// Package version defines the three-tier compatibility tag attached ahead of
// every serialized payload.
//
// The tiers are independent, not a single monotonic number:
//
//   - Private changes when the binary layout of the payload changes.
//   - Protected changes when behaviour visible to specialisations changes.
//   - Public changes when the externally visible API changes.
//
// Tags only support exact equality. There is no "compatible if newer"
// relation: any difference is an incompatibility.
package version

import (
	"fmt"

	"github.com/hupe1980/persist/identity"
)

// Size is the encoded size of a Tag in bytes: three int16 tiers and an int64 id.
const Size = 3*2 + 8

// Tag is an immutable compatibility marker.
type Tag struct {
	Public    int16
	Protected int16
	Private   int16
	ID        identity.ID
}

// New returns a tag with the given tiers and a null id.
func New(public, protected, private int16) Tag {
	return Tag{Public: public, Protected: protected, Private: private}
}

// Equal reports whether all three tiers and the id match exactly.
func (t Tag) Equal(o Tag) bool {
	return t == o
}

// SameTiers reports whether the three tiers match, ignoring the id slot.
func (t Tag) SameTiers(o Tag) bool {
	return t.Public == o.Public && t.Protected == o.Protected && t.Private == o.Private
}

// WithID returns a copy of t carrying id.
func (t Tag) WithID(id identity.ID) Tag {
	t.ID = id
	return t
}

// IsZero reports whether t is the zero tag.
func (t Tag) IsZero() bool { return t == Tag{} }

// String renders the tag as public.protected.private#id.
func (t Tag) String() string {
	return fmt.Sprintf("%d.%d.%d#%d", t.Public, t.Protected, t.Private, int64(t.ID))
}
