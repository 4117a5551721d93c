package alloc

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/brk"
	"github.com/joshuapare/heapkit/internal/logger"
)

// ============================================================================
// Allocator Construction
// ============================================================================

// newTestAllocator creates an allocator over a heap-backed region of limit
// bytes with default sizing.
func newTestAllocator(t testing.TB, limit int) *Allocator {
	t.Helper()
	return newTestAllocatorWithOptions(t, limit, nil)
}

func newTestAllocatorWithOptions(t testing.TB, limit int, opts *Options) *Allocator {
	t.Helper()
	a := New(brk.FromBytes(make([]byte, limit)), opts)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// newBreak returns a heap-backed region of limit bytes.
func newBreak(limit int) *brk.Break {
	return brk.FromBytes(make([]byte, limit))
}

// newLoggedAllocator returns an allocator whose diagnostic channel writes
// to the returned buffer.
func newLoggedAllocator(t testing.TB, limit int) (*Allocator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	l := logger.New(logger.Options{Enabled: true, Output: &out, Level: slog.LevelDebug})
	return newTestAllocatorWithOptions(t, limit, &Options{Logger: l}), &out
}

// flakyRegion fails the first failures Grow calls, then delegates.
type flakyRegion struct {
	*brk.Break
	failures int
	calls    int
}

var errInjected = errors.New("injected grow failure")

func (r *flakyRegion) Grow(n int) (int, error) {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return 0, errInjected
	}
	return r.Break.Grow(n)
}

// ============================================================================
// Assertions
// ============================================================================

// assertInvariants checks the block list structure and the accounting
// identity used + free + blocks*HeaderSize == arena size.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Verify())
	got := a.UsedBytes() + a.FreeBytes() + a.BlockCount()*HeaderSize
	require.Equal(t, a.ArenaSize(), got, "used + free + headers must equal arena size")
}

// mustAllocate allocates size bytes and fails the test on error.
func mustAllocate(t testing.TB, a *Allocator, size int) Ref {
	t.Helper()
	ref, err := a.Allocate(size)
	require.NoError(t, err)
	require.NotEqual(t, Nil, ref)
	return ref
}

// fill writes a repeating pattern derived from seed into the payload of ref.
func fill(t testing.TB, a *Allocator, ref Ref, n int, seed byte) {
	t.Helper()
	p, err := a.Bytes(ref)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(p), n)
	for i := range n {
		p[i] = seed + byte(i)
	}
}

// requirePattern checks the first n payload bytes of ref against fill's pattern.
func requirePattern(t testing.TB, a *Allocator, ref Ref, n int, seed byte) {
	t.Helper()
	p, err := a.Bytes(ref)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(p), n)
	for i := range n {
		require.Equal(t, seed+byte(i), p[i], "byte %d", i)
	}
}

// arenaCopy snapshots the raw arena bytes.
func arenaCopy(a *Allocator) []byte {
	return bytes.Clone(a.region.Bytes())
}

// headerOf returns the header offset of a payload reference.
func headerOf(ref Ref) int {
	return int(ref) - HeaderSize
}
