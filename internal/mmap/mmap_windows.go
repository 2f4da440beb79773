//go:build windows

package mmap

import (
	"os"
	"syscall"
	"unsafe"
)

// mmap maps f read-only. The mapping handle can be closed once the view
// exists; the view keeps the section alive.
func mmap(f *os.File, size int) ([]byte, error) {
	section, err := syscall.CreateFileMapping(syscall.Handle(f.Fd()), nil, syscall.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, &os.PathError{Op: "CreateFileMapping", Path: f.Name(), Err: err}
	}
	defer func() { _ = syscall.CloseHandle(section) }()

	view, err := syscall.MapViewOfFile(section, syscall.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, &os.PathError{Op: "MapViewOfFile", Path: f.Name(), Err: err}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(view)), size), nil
}

func munmap(data []byte) error {
	return os.NewSyscallError("UnmapViewOfFile", syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(unsafe.SliceData(data)))))
}
