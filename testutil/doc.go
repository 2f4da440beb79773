// Package testutil provides testing utilities for persist.
//
// This package is intended for use in tests and benchmarks only.
// It provides ready-made payload types and a seeded random source for
// filling them.
//
// # Payload Types
//
//	typ := testutil.PointType()        // three int64 coordinates
//	typ := testutil.SamplesType(16)    // sixteen float32 samples
//
// # Random Payloads
//
//	rng := testutil.NewRNG(seed)
//	p := rng.Point()
//	s := rng.Samples(16)
package testutil
