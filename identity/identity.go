// Package identity defines the identifier and hash types shared by persistent
// objects and their generators.
package identity

import "strconv"

// ID names an instance within the scope of its type.
// Uniqueness is per type, never global.
type ID int64

// Null is the reserved "no identity" sentinel.
const Null ID = 0

// IsNull reports whether id is the null sentinel.
func (id ID) IsNull() bool { return id == Null }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Hash is a cheap equality pre-filter. It defaults to the object's ID.
type Hash uint64

// HashOf returns the default hash for id.
func HashOf(id ID) Hash { return Hash(id) }
