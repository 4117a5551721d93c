// Package brk provides the arena's heap extension primitive.
//
// A Break reserves a fixed span of address space up front and hands it out
// strictly at its end, the way sbrk(2) moves a program break. Bytes that were
// handed out are never moved, so offsets (and addresses) stay valid for the
// lifetime of the reservation.
package brk

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

var (
	// ErrExhausted indicates the reservation cannot satisfy a growth request.
	ErrExhausted = errors.New("brk: reservation exhausted")

	// ErrInvalidSize indicates a non-positive reservation or growth size.
	ErrInvalidSize = errors.New("brk: invalid size")

	// ErrClosed indicates the reservation was already released.
	ErrClosed = errors.New("brk: closed")
)

// commitFunc makes mem[from:to] readable and writable before it is handed out.
type commitFunc func(mem []byte, from, to int) error

// releaseFunc returns the whole reservation to the operating system.
type releaseFunc func(mem []byte) error

// Break is a growable, never-relocating region.
//
// Break is not safe for concurrent use.
type Break struct {
	mem     []byte // full reservation; len(mem) is the limit
	brk     int    // current end of the handed-out extent
	closed  bool
	commit  commitFunc
	release releaseFunc
}

// Reserve reserves limit bytes of address space backed by the operating
// system. Pages are only touched once Grow hands them out.
func Reserve(limit int) (*Break, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: reserve %d", ErrInvalidSize, limit)
	}
	mem, commit, release, err := reserve(limit)
	if err != nil {
		return nil, fmt.Errorf("brk: reserve %d bytes: %w", limit, err)
	}
	return &Break{mem: mem, commit: commit, release: release}, nil
}

// FromBytes wraps caller-owned memory. The break starts at zero and the limit
// is len(b). Close is a no-op for the memory itself.
func FromBytes(b []byte) *Break {
	return &Break{mem: b[:len(b):len(b)]}
}

// Grow extends the region by n bytes at its current end and returns the
// offset of the first new byte.
func (b *Break) Grow(n int) (int, error) {
	if b.closed {
		return 0, ErrClosed
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: grow %d", ErrInvalidSize, n)
	}
	end, ok := buf.AddOverflowSafe(b.brk, n)
	if !ok || end > len(b.mem) {
		return 0, fmt.Errorf("%w: grow %d at %d, limit %d", ErrExhausted, n, b.brk, len(b.mem))
	}
	if b.commit != nil {
		if err := b.commit(b.mem, b.brk, end); err != nil {
			return 0, fmt.Errorf("brk: commit [%d,%d): %w", b.brk, end, err)
		}
	}
	off := b.brk
	b.brk = end
	return off, nil
}

// Bytes returns the handed-out extent. The returned slice shares memory with
// the reservation and its capacity is clipped to the current break.
func (b *Break) Bytes() []byte {
	if b.closed {
		return nil
	}
	return b.mem[:b.brk:b.brk]
}

// Len returns the number of bytes handed out so far.
func (b *Break) Len() int { return b.brk }

// Cap returns the reservation limit.
func (b *Break) Cap() int { return len(b.mem) }

// Close releases the reservation. Calling Close more than once is a no-op.
func (b *Break) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	mem := b.mem
	b.mem = nil
	b.brk = 0
	if b.release == nil || len(mem) == 0 {
		return nil
	}
	return b.release(mem)
}
