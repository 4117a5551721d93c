package alloc

import "fmt"

// Verify walks the block list and checks its structural invariants:
//
//   - every header carries the validation tag and lies inside the arena
//   - blocks tile the arena exactly, in address order, with consistent prev links
//   - the last block is the tail and the sizes add up to the reserved extent
//   - payload sizes are multiples of Alignment
//   - no two adjacent blocks are both free
//
// It returns nil for an uninitialized allocator.
func (a *Allocator) Verify() error {
	if !a.initialized {
		return nil
	}
	if got, want := len(a.mem), a.start+a.reserved; got != want {
		return fmt.Errorf("%w: arena view is %d bytes, block list covers %d", ErrCorrupt, got, want)
	}

	expect := a.start
	prev := noBlock
	prevFree := false
	last := noBlock
	blocks := 0

	for off := a.start; off != noBlock; off = a.next(off) {
		if off != expect {
			return fmt.Errorf("%w: block %d at %#x, expected %#x", ErrCorrupt, blocks, off, expect)
		}
		if off+HeaderSize > len(a.mem) {
			return fmt.Errorf("%w: header at %#x past arena end %#x", ErrCorrupt, off, len(a.mem))
		}
		if a.tag(off) != blockTag {
			return fmt.Errorf("%w: block at %#x has tag %#x", ErrCorrupt, off, a.tag(off))
		}
		if p := a.prev(off); p != prev {
			return fmt.Errorf("%w: block at %#x has prev %s, expected %s",
				ErrCorrupt, off, FormatOffset(p), FormatOffset(prev))
		}
		size := a.payloadSize(off)
		if size < 0 || size%Alignment != 0 {
			return fmt.Errorf("%w: block at %#x has payload size %d", ErrCorrupt, off, size)
		}
		free := a.isFree(off)
		if free && prevFree {
			return fmt.Errorf("%w: adjacent free blocks at %#x and %#x", ErrCorrupt, prev, off)
		}

		expect = off + HeaderSize + size
		if expect > len(a.mem) {
			return fmt.Errorf("%w: block at %#x ends at %#x past arena end %#x", ErrCorrupt, off, expect, len(a.mem))
		}
		prev, prevFree, last = off, free, off
		blocks++
	}

	if last != a.tail {
		return fmt.Errorf("%w: last block %s, tail %s", ErrCorrupt, FormatOffset(last), FormatOffset(a.tail))
	}
	if expect != len(a.mem) {
		return fmt.Errorf("%w: blocks end at %#x, arena ends at %#x", ErrCorrupt, expect, len(a.mem))
	}
	return nil
}
