//go:build debug

package alloc

import "fmt"

// snapshot captures the block-list checksum before a call that may be rejected.
// Only enabled with -tags debug.
func (a *Allocator) snapshot() uint32 {
	return a.Checksum()
}

// assertHeap panics if the block list is structurally broken after op.
// Only enabled with -tags debug.
func (a *Allocator) assertHeap(op string) {
	if err := a.Verify(); err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
}

// assertUnchanged panics if a rejected op modified the block list.
// Only enabled with -tags debug.
func (a *Allocator) assertUnchanged(op string, before uint32) {
	if after := a.Checksum(); after != before {
		panic(fmt.Sprintf("%s: rejected call changed heap checksum %08x -> %08x", op, before, after))
	}
}
