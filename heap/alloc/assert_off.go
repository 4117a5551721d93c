//go:build !debug

package alloc

// snapshot is a no-op in production.
// Enable with -tags debug for runtime checks.
func (a *Allocator) snapshot() uint32 { return 0 }

// assertHeap is a no-op in production.
// Enable with -tags debug for runtime checks.
func (a *Allocator) assertHeap(string) {}

// assertUnchanged is a no-op in production.
// Enable with -tags debug for runtime checks.
func (a *Allocator) assertUnchanged(string, uint32) {}
