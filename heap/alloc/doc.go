// Package alloc implements a first-fit, coalescing arena allocator.
//
// # Overview
//
// An Allocator manages one contiguous arena obtained from a Region, a
// growable span of memory that only ever extends at its end. The arena is
// tiled by blocks; every block starts with a 32-byte header followed by its
// payload:
//
//	+--------------------+------------------------------+
//	| header (32 bytes)  | payload (payloadSize bytes)  |
//	+--------------------+------------------------------+
//
// Headers are linked in address order (next/prev), so the block list always
// covers every byte of the arena, free or in use.
//
// # Operations
//
//   - Allocate(size): first-fit scan, grow the arena on a miss, split the
//     chosen block when the remainder can hold a header plus 16 bytes
//   - Deallocate(ref): mark free, then merge with the next and previous
//     blocks when they are free
//   - Reallocate(ref, size): keep in place when it fits, grow into a free
//     neighbour when possible, otherwise move and copy
//   - ZeroAllocate(count, size): overflow-checked Allocate with a zeroed payload
//
// # Usage Example
//
//	a, err := alloc.NewReserved(alloc.DefaultReserveSize, nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	ref, err := a.Allocate(100)
//	if err != nil {
//	    return err
//	}
//	p, _ := a.Bytes(ref)
//	copy(p, "hello")
//
//	_ = a.Deallocate(ref)
//
// # References
//
// A Ref is the arena offset of a payload. Nil (0) is never a valid payload
// because every payload follows a header. Deallocate and Reallocate check the
// header tag of the block a Ref points into and reject foreign or corrupted
// references without touching the arena.
//
// # Growth
//
// The first call reserves InitialSize bytes (64 KiB by default). When no free
// block fits, the arena grows by max(size+HeaderSize, MinExtend) and the new
// block is appended after the tail. Memory is never returned to the Region.
//
// # Alignment
//
// Request sizes are rounded up to 8 bytes and the header is 32 bytes, so
// every payload offset is a multiple of 8.
//
// # Debug Builds
//
// Building with -tags debug runs Verify after every mutating call and checks
// that rejected calls left the block list unchanged.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Wrap one with NewLocked to
// serialize all calls behind a single mutex.
package alloc
