package printer

import "github.com/joshuapare/heapkit/heap/alloc"

// Summary is a point-in-time accounting of an arena.
type Summary struct {
	Initialized bool `json:"initialized"`
	ArenaBytes  int  `json:"arena_bytes"`
	UsedBytes   int  `json:"used_bytes"`
	FreeBytes   int  `json:"free_bytes"`
	HeaderBytes int  `json:"header_bytes"`
	Blocks      int  `json:"blocks"`
	UsedBlocks  int  `json:"used_blocks"`
	FreeBlocks  int  `json:"free_blocks"`
	LargestFree int  `json:"largest_free"`

	// Fragmentation is 1 - LargestFree/FreeBytes: 0 when all free space is
	// one block, approaching 1 as it splinters.
	Fragmentation float64 `json:"fragmentation"`
}

// Summarize walks src once and totals its blocks.
func Summarize(src Source) Summary {
	s := Summary{
		Initialized: src.Initialized(),
		ArenaBytes:  src.ArenaSize(),
	}
	for _, b := range src.HeapDump() {
		s.Blocks++
		s.HeaderBytes += alloc.HeaderSize
		if b.Free {
			s.FreeBlocks++
			s.FreeBytes += b.Size
			s.LargestFree = max(s.LargestFree, b.Size)
		} else {
			s.UsedBlocks++
			s.UsedBytes += b.Size
		}
	}
	if s.FreeBytes > 0 {
		s.Fragmentation = 1 - float64(s.LargestFree)/float64(s.FreeBytes)
	}
	return s
}
