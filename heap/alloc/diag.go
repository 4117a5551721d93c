package alloc

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/joshuapare/heapkit/internal/buf"
)

// HeapDump lists every block in address order. It does not modify the arena.
// An uninitialized allocator has no blocks.
func (a *Allocator) HeapDump() []BlockInfo {
	if !a.initialized {
		return nil
	}
	var blocks []BlockInfo
	for off := a.start; off != noBlock; off = a.next(off) {
		blocks = append(blocks, BlockInfo{
			Index:  len(blocks),
			Offset: off,
			Ref:    Ref(off + HeaderSize),
			Size:   a.payloadSize(off),
			Free:   a.isFree(off),
			Next:   a.next(off),
			Prev:   a.prev(off),
		})
	}
	return blocks
}

// Dump writes a human-readable listing of every block to w.
func (a *Allocator) Dump(w io.Writer) error {
	if _, err := fmt.Fprint(w, "\n========== HEAP DUMP ==========\n"); err != nil {
		return err
	}
	if !a.initialized {
		_, err := fmt.Fprint(w, "Heap not initialized\n")
		return err
	}

	blocks := a.HeapDump()
	for _, b := range blocks {
		status := "USED"
		if b.Free {
			status = "FREE"
		}
		_, err := fmt.Fprintf(w,
			"Block %d:\n  Address:  %s\n  Size:     %d bytes\n  Status:   %s\n  Next:     %s\n  Prev:     %s\n\n",
			b.Index, FormatOffset(b.Offset), b.Size, status, FormatOffset(b.Next), FormatOffset(b.Prev))
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total blocks: %d\n================================\n\n", len(blocks))
	return err
}

// FormatOffset renders a header offset, or "nil" for an absent neighbour.
func FormatOffset(off int) string {
	if off < 0 {
		return "nil"
	}
	return fmt.Sprintf("0x%08x", off)
}

// UsedBytes sums the payload sizes of blocks in use.
func (a *Allocator) UsedBytes() int {
	return a.sumPayload(false)
}

// FreeBytes sums the payload sizes of free blocks.
func (a *Allocator) FreeBytes() int {
	return a.sumPayload(true)
}

func (a *Allocator) sumPayload(free bool) int {
	if !a.initialized {
		return 0
	}
	total := 0
	for off := a.start; off != noBlock; off = a.next(off) {
		if a.isFree(off) == free {
			total += a.payloadSize(off)
		}
	}
	return total
}

// BlockCount returns the number of blocks in the arena.
func (a *Allocator) BlockCount() int {
	if !a.initialized {
		return 0
	}
	n := 0
	for off := a.start; off != noBlock; off = a.next(off) {
		n++
	}
	return n
}

// ArenaSize returns the total bytes reserved from the region, headers included.
func (a *Allocator) ArenaSize() int {
	return a.reserved
}

// Initialized reports whether the initial reservation has succeeded.
func (a *Allocator) Initialized() bool {
	return a.initialized
}

// Stats returns a copy of the allocator counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// Checksum folds every header's offset, size, status and links into a CRC32.
// Payload bytes are not included, so it changes only when the block list does.
func (a *Allocator) Checksum() uint32 {
	if !a.initialized {
		return 0
	}
	var rec [33]byte
	h := crc32.NewIEEE()
	for off := a.start; off != noBlock; off = a.next(off) {
		buf.PutU64LE(rec[:], 0, uint64(off))
		buf.PutU64LE(rec[:], 8, uint64(a.payloadSize(off)))
		buf.PutU64LE(rec[:], 16, encodeLink(a.next(off)))
		buf.PutU64LE(rec[:], 24, encodeLink(a.prev(off)))
		rec[32] = 0
		if a.isFree(off) {
			rec[32] = 1
		}
		h.Write(rec[:])
	}
	return h.Sum32()
}
