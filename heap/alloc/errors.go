package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the Region could not grow to satisfy a request.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidBlock indicates a reference that does not resolve to a live block header.
	ErrInvalidBlock = errors.New("alloc: invalid block reference")

	// ErrDoubleFree indicates a Deallocate of a block that is already free.
	ErrDoubleFree = errors.New("alloc: double free")

	// ErrOverflow indicates count*size overflowed in ZeroAllocate.
	ErrOverflow = errors.New("alloc: size overflow")

	// ErrInvalidSize indicates a negative size or count.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrCorrupt indicates the block list violates a structural invariant.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
