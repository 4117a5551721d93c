package alloc

import "log/slog"

// Ref is a payload handle: the arena offset of the first payload byte.
type Ref uint64

// Nil is the null reference.
const Nil Ref = 0

const (
	// HeaderSize is the size of the in-arena block header.
	HeaderSize = 32

	// Alignment is the granularity of payload sizes and offsets.
	Alignment = 8

	// MinBlockSize is the smallest payload a split may leave behind.
	MinBlockSize = 16

	// DefaultInitialSize is the extent reserved on first use.
	DefaultInitialSize = 64 << 10

	// DefaultMinExtend is the smallest growth step after the initial reservation.
	DefaultMinExtend = 4 << 10

	// DefaultReserveSize is the address space NewReserved uses when callers
	// have no better bound.
	DefaultReserveSize = 256 << 20
)

// Region is the heap extension primitive backing an arena.
//
// Grow extends the region by n bytes at its current end and returns the
// offset of the first new byte. Bytes returns the current extent. Offsets
// handed out by Grow must stay valid; the backing memory may move only if
// the Region also copies its contents.
type Region interface {
	Grow(n int) (int, error)
	Bytes() []byte
}

// Options configures an Allocator. A nil *Options selects all defaults.
type Options struct {
	// InitialSize is the first reservation in bytes, rounded up to Alignment.
	// Default: DefaultInitialSize
	InitialSize int

	// MinExtend is the smallest growth step in bytes, rounded up to Alignment.
	// Default: DefaultMinExtend
	MinExtend int

	// Logger receives invalid-block and double-free reports.
	// Default: logger.L
	Logger *slog.Logger
}

// Stats holds allocator counters.
type Stats struct {
	AllocCalls       int   `json:"alloc_calls"`       // Allocate and ZeroAllocate calls
	FreeCalls        int   `json:"free_calls"`        // Deallocate calls that freed a block
	ReallocCalls     int   `json:"realloc_calls"`     // Reallocate calls on a live block
	ReallocInPlace   int   `json:"realloc_in_place"`  // Reallocate calls that grew into the next block
	ReallocMoved     int   `json:"realloc_moved"`     // Reallocate calls that moved the payload
	GrowCalls        int   `json:"grow_calls"`        // Successful arena extensions (initial reservation excluded)
	GrowBytes        int64 `json:"grow_bytes"`        // Bytes added by extensions
	Splits           int   `json:"splits"`            // Blocks split
	CoalesceForward  int   `json:"coalesce_forward"`  // Merges with the following block
	CoalesceBackward int   `json:"coalesce_backward"` // Merges into the preceding block
	InvalidBlocks    int   `json:"invalid_blocks"`    // Rejected references
	DoubleFrees      int   `json:"double_frees"`      // Rejected double frees
}

// BlockInfo describes one block for diagnostics.
type BlockInfo struct {
	Index  int  `json:"index"`
	Offset int  `json:"offset"` // header offset
	Ref    Ref  `json:"ref"`    // payload offset
	Size   int  `json:"size"`   // payload size
	Free   bool `json:"free"`
	Next   int  `json:"next"` // header offset, -1 when last
	Prev   int  `json:"prev"` // header offset, -1 when first
}
