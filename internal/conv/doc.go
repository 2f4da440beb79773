// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking when converting between Go's
// platform-sized int and fixed-width types, e.g. blob sizes reported by a
// store.
package conv
