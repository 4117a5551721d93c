//go:build windows

package brk

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// reserve reserves address space with VirtualAlloc. Pages are committed in
// Grow as the break advances over them.
func reserve(limit int) ([]byte, commitFunc, releaseFunc, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(limit), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, nil, nil, err
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), limit)

	commit := func(mem []byte, from, to int) error {
		_, err := windows.VirtualAlloc(
			uintptr(unsafe.Pointer(&mem[from])),
			uintptr(to-from),
			windows.MEM_COMMIT,
			windows.PAGE_READWRITE,
		)
		return err
	}
	release := func(mem []byte) error {
		return windows.VirtualFree(uintptr(unsafe.Pointer(&mem[0])), 0, windows.MEM_RELEASE)
	}
	return mem, commit, release, nil
}
