//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmap maps f privately. Records are replaced by rename, never rewritten in
// place, so a private view stays consistent with what was opened.
func mmap(f *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: f.Name(), Err: err}
	}
	// Callers decode the whole record right away. The hint is advisory.
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
	return data, nil
}

func munmap(data []byte) error {
	return os.NewSyscallError("munmap", unix.Munmap(data))
}
