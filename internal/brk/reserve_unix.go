//go:build unix

package brk

import (
	"errors"

	"golang.org/x/sys/unix"
)

// reserve maps an anonymous private region. The kernel backs pages lazily on
// first touch, so the reservation costs address space only.
func reserve(limit int) ([]byte, commitFunc, releaseFunc, error) {
	mem, err := unix.Mmap(-1, 0, limit, unix.PROT_READ|unix.PROT_WRITE, mapFlags)
	if err != nil {
		return nil, nil, nil, err
	}
	release := func(mem []byte) error {
		err := unix.Munmap(mem)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return mem, nil, release, nil
}
