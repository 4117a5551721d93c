package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Header field offsets. All fields are little-endian.
const (
	hdrSizeOff = 0  // uint64 payload size
	hdrNextOff = 8  // uint64 next header offset
	hdrPrevOff = 16 // uint64 previous header offset
	hdrFreeOff = 24 // uint32 1 = free, 0 = used
	hdrTagOff  = 28 // uint32 validation tag

	blockTag uint32 = 0x12345678

	// noBlock marks an absent neighbour in memory; linkNone is its encoding.
	noBlock  = -1
	linkNone = ^uint64(0)
)

func encodeLink(off int) uint64 {
	if off < 0 {
		return linkNone
	}
	return uint64(off)
}

func decodeLink(v uint64) int {
	if v == linkNone || v > uint64(maxInt) {
		return noBlock
	}
	return int(v)
}

const maxInt = int(^uint(0) >> 1)

func (a *Allocator) payloadSize(off int) int {
	return int(buf.U64LE(a.mem[off+hdrSizeOff:]))
}

func (a *Allocator) setPayloadSize(off, n int) {
	buf.PutU64LE(a.mem, off+hdrSizeOff, uint64(n))
}

func (a *Allocator) next(off int) int {
	return decodeLink(buf.U64LE(a.mem[off+hdrNextOff:]))
}

func (a *Allocator) setNext(off, next int) {
	buf.PutU64LE(a.mem, off+hdrNextOff, encodeLink(next))
}

func (a *Allocator) prev(off int) int {
	return decodeLink(buf.U64LE(a.mem[off+hdrPrevOff:]))
}

func (a *Allocator) setPrev(off, prev int) {
	buf.PutU64LE(a.mem, off+hdrPrevOff, encodeLink(prev))
}

func (a *Allocator) isFree(off int) bool {
	return buf.U32LE(a.mem[off+hdrFreeOff:]) != 0
}

func (a *Allocator) setFree(off int, free bool) {
	var v uint32
	if free {
		v = 1
	}
	buf.PutU32LE(a.mem, off+hdrFreeOff, v)
}

func (a *Allocator) tag(off int) uint32 {
	return buf.U32LE(a.mem[off+hdrTagOff:])
}

// writeHeader initializes a complete header at off.
func (a *Allocator) writeHeader(off, size, next, prev int, free bool) {
	a.setPayloadSize(off, size)
	a.setNext(off, next)
	a.setPrev(off, prev)
	a.setFree(off, free)
	buf.PutU32LE(a.mem, off+hdrTagOff, blockTag)
}

// refresh reloads the arena view after the Region grew.
func (a *Allocator) refresh() {
	a.mem = a.region.Bytes()
}

// ensureInit reserves the initial arena on first use and installs it as a
// single free block. On failure the allocator stays uninitialized so a later
// call can retry.
func (a *Allocator) ensureInit() error {
	if a.initialized {
		return nil
	}

	off, err := a.region.Grow(a.initialSize)
	if err != nil {
		a.log.Debug("initial reservation failed", "bytes", a.initialSize, "err", err)
		return fmt.Errorf("%w: reserve %d bytes: %w", ErrOutOfMemory, a.initialSize, err)
	}
	if off%Alignment != 0 {
		return fmt.Errorf("%w: region offset %d is not %d-byte aligned", ErrCorrupt, off, Alignment)
	}
	a.refresh()

	a.writeHeader(off, a.initialSize-HeaderSize, noBlock, noBlock, true)
	a.start = off
	a.tail = off
	a.reserved = a.initialSize
	a.initialized = true

	a.log.Debug("arena initialized", "offset", off, "bytes", a.initialSize)
	return nil
}

// extend grows the arena for an aligned request of need payload bytes and
// links the new free block after the tail. It returns the new block's header
// offset.
func (a *Allocator) extend(need int) (int, error) {
	size, ok := buf.AddOverflowSafe(need, HeaderSize)
	if !ok {
		return noBlock, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, need)
	}
	if size < a.minExtend {
		size = a.minExtend
	}

	if a.onGrow != nil {
		a.onGrow(size)
	}

	off, err := a.region.Grow(size)
	if err != nil {
		a.log.Debug("arena growth failed", "bytes", size, "err", err)
		return noBlock, fmt.Errorf("%w: grow %d bytes: %w", ErrOutOfMemory, size, err)
	}
	if end := a.start + a.reserved; off != end {
		return noBlock, fmt.Errorf("%w: region grew at %d, arena ends at %d", ErrCorrupt, off, end)
	}
	a.refresh()

	a.writeHeader(off, size-HeaderSize, noBlock, a.tail, true)
	a.setNext(a.tail, off)
	a.tail = off
	a.reserved += size

	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(size)
	if logAlloc {
		a.log.Debug("arena grown", "offset", off, "bytes", size, "need", need, "arena", a.reserved)
	}
	return off, nil
}

// findFit returns the first free block, in address order, whose payload can
// hold need bytes. Used blocks are walked too.
func (a *Allocator) findFit(need int) int {
	for off := a.start; off != noBlock; off = a.next(off) {
		if a.isFree(off) && a.payloadSize(off) >= need {
			return off
		}
	}
	return noBlock
}

// split shrinks the block at off to need bytes and turns the rest into a new
// free block when the remainder can hold a header plus MinBlockSize bytes.
// Smaller remainders stay in the block as internal fragmentation.
func (a *Allocator) split(off, need int) {
	rem := a.payloadSize(off) - need - HeaderSize
	if rem < MinBlockSize {
		return
	}

	tailOff := off + HeaderSize + need
	next := a.next(off)
	a.writeHeader(tailOff, rem, next, off, true)
	if next != noBlock {
		a.setPrev(next, tailOff)
	} else {
		a.tail = tailOff
	}
	a.setNext(off, tailOff)
	a.setPayloadSize(off, need)

	a.stats.Splits++
	if logAlloc {
		a.log.Debug("block split", "offset", off, "need", need, "remainder", rem)
	}
}

// absorbNext merges the block following off into off. The absorbed header is
// left in place inside the grown payload.
func (a *Allocator) absorbNext(off int) {
	nx := a.next(off)
	a.setPayloadSize(off, a.payloadSize(off)+HeaderSize+a.payloadSize(nx))

	after := a.next(nx)
	a.setNext(off, after)
	if after != noBlock {
		a.setPrev(after, off)
	} else {
		a.tail = off
	}
}

// coalesce merges a just-freed block with a free successor, then with a free
// predecessor, so a run of three free blocks collapses in one pass.
func (a *Allocator) coalesce(off int) {
	if nx := a.next(off); nx != noBlock && a.isFree(nx) {
		a.absorbNext(off)
		a.stats.CoalesceForward++
	}
	if pv := a.prev(off); pv != noBlock && a.isFree(pv) {
		a.absorbNext(pv)
		a.stats.CoalesceBackward++
	}
}

// resolve maps a caller reference to its header offset, rejecting anything
// that is out of bounds, misaligned, or missing the validation tag.
func (a *Allocator) resolve(op string, ref Ref) (int, error) {
	if !a.initialized || ref%Alignment != 0 || ref > Ref(len(a.mem)) {
		return noBlock, a.invalid(op, ref, "out of arena")
	}
	off := int(ref) - HeaderSize
	if off < a.start {
		return noBlock, a.invalid(op, ref, "before arena start")
	}
	if a.tag(off) != blockTag {
		return noBlock, a.invalid(op, ref, "bad tag")
	}
	if !buf.Has(a.mem, int(ref), a.payloadSize(off)) {
		return noBlock, a.invalid(op, ref, "payload out of arena")
	}
	return off, nil
}

// invalid reports a rejected reference on the diagnostic channel.
func (a *Allocator) invalid(op string, ref Ref, reason string) error {
	a.stats.InvalidBlocks++
	a.log.Warn("invalid block or heap corruption", "op", op, "ref", uint64(ref), "reason", reason)
	return fmt.Errorf("%w: %s ref %#x: %s", ErrInvalidBlock, op, uint64(ref), reason)
}
