package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/brk"
)

// newTestHeap returns an allocator with a used block, a free hole and a
// free tail: [used 64][free 128][used 32][free rest].
func newTestHeap(t *testing.T) *alloc.Allocator {
	t.Helper()
	a := alloc.New(brk.FromBytes(make([]byte, 1<<20)), nil)
	t.Cleanup(func() { _ = a.Close() })

	_, err := a.Allocate(64)
	require.NoError(t, err)
	hole, err := a.Allocate(128)
	require.NoError(t, err)
	_, err = a.Allocate(32)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(hole))
	return a
}

func plainOptions() Options {
	opts := DefaultOptions()
	opts.Color = false
	return opts
}

func TestPrinter_PrintBlocks_Text(t *testing.T) {
	a := newTestHeap(t)

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, plainOptions()).PrintBlocks())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6, "header, four blocks, footer")
	assert.True(t, strings.HasPrefix(lines[0], "INDEX"))
	assert.Contains(t, lines[0], "NEXT")

	assert.Equal(t, "0      0x00000000 0x00000020         64  USED   0x00000060 nil       ", lines[1])
	assert.Contains(t, lines[2], "FREE")
	assert.Contains(t, lines[2], "128")
	assert.Contains(t, lines[4], "FREE")
	assert.Contains(t, lines[4], "nil")
	assert.Equal(t, "4 blocks", lines[5])
}

func TestPrinter_PrintBlocks_NoLinks(t *testing.T) {
	a := newTestHeap(t)

	opts := plainOptions()
	opts.ShowLinks = false

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, opts).PrintBlocks())
	assert.NotContains(t, buf.String(), "NEXT")
	assert.NotContains(t, buf.String(), "nil")
}

func TestPrinter_PrintBlocks_JSON(t *testing.T) {
	a := newTestHeap(t)

	opts := plainOptions()
	opts.Format = FormatJSON

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, opts).PrintBlocks())

	var blocks []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &blocks))
	require.Len(t, blocks, 4)

	assert.Equal(t, "used", blocks[0]["status"])
	assert.Equal(t, float64(32), blocks[0]["ref"])
	assert.Nil(t, blocks[0]["prev"])
	assert.Equal(t, "free", blocks[1]["status"])
	assert.Equal(t, float64(128), blocks[1]["size"])
	assert.Nil(t, blocks[3]["next"])
}

func TestPrinter_Uninitialized(t *testing.T) {
	a := alloc.New(brk.FromBytes(make([]byte, 4096)), nil)

	var buf bytes.Buffer
	p := New(a, &buf, plainOptions())
	require.NoError(t, p.PrintBlocks())
	require.NoError(t, p.PrintSummary())
	assert.Equal(t, "Heap not initialized\nHeap not initialized\n", buf.String())

	buf.Reset()
	opts := plainOptions()
	opts.Format = FormatJSON
	require.NoError(t, New(a, &buf, opts).PrintBlocks())
	assert.Equal(t, "[]\n", buf.String())
}

func TestSummarize(t *testing.T) {
	a := newTestHeap(t)
	s := Summarize(a)

	assert.True(t, s.Initialized)
	assert.Equal(t, alloc.DefaultInitialSize, s.ArenaBytes)
	assert.Equal(t, 4, s.Blocks)
	assert.Equal(t, 2, s.UsedBlocks)
	assert.Equal(t, 2, s.FreeBlocks)
	assert.Equal(t, 96, s.UsedBytes)
	assert.Equal(t, 4*alloc.HeaderSize, s.HeaderBytes)
	assert.Equal(t, s.ArenaBytes, s.UsedBytes+s.FreeBytes+s.HeaderBytes)
	assert.Equal(t, s.FreeBytes-128, s.LargestFree)
	assert.InDelta(t, 128/float64(s.FreeBytes), s.Fragmentation, 1e-9)
}

func TestSummarize_SingleFreeBlock(t *testing.T) {
	a := alloc.New(brk.FromBytes(make([]byte, 1<<20)), nil)
	ref, err := a.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(ref))

	s := Summarize(a)
	assert.Zero(t, s.Fragmentation)
	assert.Equal(t, s.FreeBytes, s.LargestFree)
}

func TestPrinter_PrintSummary_Text(t *testing.T) {
	a := newTestHeap(t)

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, plainOptions()).PrintSummary())

	out := buf.String()
	assert.Contains(t, out, "65,536 bytes", "English digit grouping")
	assert.Contains(t, out, "Blocks:")
	assert.Contains(t, out, "(2 used, 2 free)")
	assert.Contains(t, out, "Fragmentation:")
}

func TestPrinter_PrintSummary_Language(t *testing.T) {
	a := newTestHeap(t)

	opts := plainOptions()
	opts.Language = language.German

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, opts).PrintSummary())
	assert.Contains(t, buf.String(), "65.536 bytes")
}

func TestPrinter_PrintSummary_JSON(t *testing.T) {
	a := newTestHeap(t)

	opts := plainOptions()
	opts.Format = FormatJSON

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, opts).PrintSummary())

	var s Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &s))
	assert.Equal(t, Summarize(a), s)
}

func TestPrinter_PrintStats(t *testing.T) {
	a := newTestHeap(t)

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, plainOptions()).PrintStats())
	assert.Contains(t, buf.String(), "Allocations:")
	assert.Contains(t, buf.String(), "Splits:")

	buf.Reset()
	opts := plainOptions()
	opts.Format = FormatJSON
	require.NoError(t, New(a, &buf, opts).PrintStats())

	var st alloc.Stats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &st))
	assert.Equal(t, a.Stats(), st)
	assert.Equal(t, 3, st.AllocCalls)
}

func TestPrinter_ColorOnNonTerminal(t *testing.T) {
	a := newTestHeap(t)

	var buf bytes.Buffer
	require.NoError(t, New(a, &buf, DefaultOptions()).PrintBlocks())
	assert.Contains(t, buf.String(), "FREE")
	assert.Contains(t, buf.String(), "USED")
}
