package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/internal/brk"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Runtime debug flag for grow/split tracing - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// Allocator is a first-fit allocator over a single growable arena.
type Allocator struct {
	region Region
	mem    []byte // current arena view, refreshed after every Grow
	log    *slog.Logger

	initialSize int
	minExtend   int

	start       int // header offset of the first block
	tail        int // header offset of the last block
	reserved    int // bytes of the region owned by the block list
	initialized bool

	stats Stats

	// Test hook: called with the requested byte count before every arena extension.
	onGrow func(int)
}

// New creates an allocator over region. Nothing is reserved until the first
// allocation.
func New(region Region, opts *Options) *Allocator {
	if opts == nil {
		opts = &Options{}
	}

	a := &Allocator{
		region:      region,
		log:         opts.Logger,
		initialSize: normalizeSize(opts.InitialSize, DefaultInitialSize, HeaderSize+Alignment),
		minExtend:   normalizeSize(opts.MinExtend, DefaultMinExtend, HeaderSize+Alignment),
		start:       noBlock,
		tail:        noBlock,
	}
	if a.log == nil {
		a.log = logger.L
	}
	return a
}

// NewReserved creates an allocator over a fresh OS reservation of limit bytes.
// Close releases the reservation.
func NewReserved(limit int, opts *Options) (*Allocator, error) {
	region, err := brk.Reserve(limit)
	if err != nil {
		return nil, err
	}
	return New(region, opts), nil
}

func normalizeSize(n, def, floor int) int {
	if n <= 0 {
		n = def
	}
	if n < floor {
		n = floor
	}
	aligned, ok := buf.AlignUp(n, Alignment)
	if !ok {
		return def
	}
	return aligned
}

// Close releases the region when it implements io.Closer. Later calls see an
// empty, uninitialized allocator whose region can no longer grow.
func (a *Allocator) Close() error {
	a.mem = nil
	a.initialized = false
	a.start, a.tail, a.reserved = noBlock, noBlock, 0
	if c, ok := a.region.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Allocate returns a reference to at least size bytes. Allocate(0) returns
// Nil and a nil error without allocating.
func (a *Allocator) Allocate(size int) (Ref, error) {
	a.stats.AllocCalls++
	ref, err := a.allocate(size)
	if err == nil {
		a.assertHeap("Allocate")
	}
	return ref, err
}

func (a *Allocator) allocate(size int) (Ref, error) {
	if size == 0 {
		return Nil, nil
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: allocate %d", ErrInvalidSize, size)
	}
	need, ok := buf.AlignUp(size, Alignment)
	if !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, size)
	}

	if err := a.ensureInit(); err != nil {
		return Nil, err
	}

	off := a.findFit(need)
	if off == noBlock {
		var err error
		off, err = a.extend(need)
		if err != nil {
			return Nil, err
		}
	}

	a.split(off, need)
	a.setFree(off, false)
	return Ref(off + HeaderSize), nil
}

// Deallocate releases a block and merges it with free neighbours.
// Deallocate(Nil) is a no-op. Foreign references and double frees are
// reported and leave the arena untouched.
func (a *Allocator) Deallocate(ref Ref) error {
	if ref == Nil {
		return nil
	}
	before := a.snapshot()

	off, err := a.resolve("free", ref)
	if err != nil {
		a.assertUnchanged("Deallocate", before)
		return err
	}
	if a.isFree(off) {
		a.stats.DoubleFrees++
		a.log.Warn("double free detected", "op", "free", "ref", uint64(ref))
		a.assertUnchanged("Deallocate", before)
		return fmt.Errorf("%w: ref %#x", ErrDoubleFree, uint64(ref))
	}

	a.release(off)
	a.assertHeap("Deallocate")
	return nil
}

func (a *Allocator) release(off int) {
	a.stats.FreeCalls++
	a.setFree(off, true)
	a.coalesce(off)
}

// Reallocate resizes the block behind ref.
//
//   - Reallocate(Nil, size) behaves like Allocate(size)
//   - Reallocate(ref, 0) frees ref and returns Nil
//   - a block that already holds size bytes is returned unchanged and is not shrunk
//   - a block followed by a large enough free block grows in place
//   - otherwise the payload moves to a new block; if that allocation fails
//     the original block stays valid and untouched
func (a *Allocator) Reallocate(ref Ref, size int) (Ref, error) {
	if ref == Nil {
		return a.Allocate(size)
	}
	if size == 0 {
		return Nil, a.Deallocate(ref)
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: reallocate %d", ErrInvalidSize, size)
	}
	before := a.snapshot()

	off, err := a.resolve("realloc", ref)
	if err != nil {
		a.assertUnchanged("Reallocate", before)
		return Nil, err
	}
	if a.isFree(off) {
		a.assertUnchanged("Reallocate", before)
		return Nil, a.invalid("realloc", ref, "block is free")
	}
	a.stats.ReallocCalls++

	need, ok := buf.AlignUp(size, Alignment)
	if !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, size)
	}

	cur := a.payloadSize(off)
	if cur >= need {
		return ref, nil
	}

	if nx := a.next(off); nx != noBlock && a.isFree(nx) && cur+HeaderSize+a.payloadSize(nx) >= need {
		a.absorbNext(off)
		a.split(off, need)
		a.stats.ReallocInPlace++
		a.assertHeap("Reallocate")
		return ref, nil
	}

	moved, err := a.allocate(size)
	if err != nil {
		a.assertUnchanged("Reallocate", before)
		return Nil, err
	}
	n := min(cur, need)
	dst, src := int(moved), int(ref)
	copy(a.mem[dst:dst+n], a.mem[src:src+n])
	a.release(off)

	a.stats.ReallocMoved++
	a.assertHeap("Reallocate")
	return moved, nil
}

// ZeroAllocate allocates count*size bytes and zeroes the payload. It returns
// ErrOverflow without allocating when count*size does not fit in an int.
func (a *Allocator) ZeroAllocate(count, size int) (Ref, error) {
	if count < 0 || size < 0 {
		return Nil, fmt.Errorf("%w: zero allocate %d x %d", ErrInvalidSize, count, size)
	}
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return Nil, fmt.Errorf("%w: %d x %d", ErrOverflow, count, size)
	}

	a.stats.AllocCalls++
	ref, err := a.allocate(total)
	if err != nil || ref == Nil {
		return ref, err
	}
	p := int(ref)
	clear(a.mem[p : p+a.payloadSize(p-HeaderSize)])

	a.assertHeap("ZeroAllocate")
	return ref, nil
}

// Bytes returns the payload of a live block. The slice aliases the arena and
// is only valid until the block is freed or moved.
func (a *Allocator) Bytes(ref Ref) ([]byte, error) {
	off, err := a.live("bytes", ref)
	if err != nil {
		return nil, err
	}
	p, _ := buf.Slice(a.mem, int(ref), a.payloadSize(off))
	return p, nil
}

// UsableSize returns the payload size of a live block, which may exceed the
// size originally requested.
func (a *Allocator) UsableSize(ref Ref) (int, error) {
	off, err := a.live("usable size", ref)
	if err != nil {
		return 0, err
	}
	return a.payloadSize(off), nil
}

// live resolves ref and requires the block to be in use.
func (a *Allocator) live(op string, ref Ref) (int, error) {
	off, err := a.resolve(op, ref)
	if err != nil {
		return noBlock, err
	}
	if a.isFree(off) {
		return noBlock, a.invalid(op, ref, "block is free")
	}
	return off, nil
}
