// Package mmap provides read-only memory-mapped file access.
//
// # Usage
//
//	m, err := mmap.Open("objects/point/42.rec")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): private read-only mmap(2) through
//     golang.org/x/sys/unix, prefetched with MADV_WILLNEED
//   - Windows: CreateFileMapping/MapViewOfFile
//   - Elsewhere (wasip1, plan9): the file is read into memory
//
// Empty files are not mapped; Bytes returns nil for them.
package mmap
