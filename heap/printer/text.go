package printer

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// printBlocksText prints one row per block.
func (p *Printer) printBlocksText(blocks []alloc.BlockInfo) error {
	if !p.src.Initialized() {
		_, err := fmt.Fprintln(p.writer, p.styles.muted.Render("Heap not initialized"))
		return err
	}

	header := fmt.Sprintf("%-6s %-10s %-10s %10s  %-6s", "INDEX", "OFFSET", "REF", "SIZE", "STATUS")
	if p.opts.ShowLinks {
		header += fmt.Sprintf(" %-10s %-10s", "NEXT", "PREV")
	}
	if _, err := fmt.Fprintln(p.writer, p.styles.header.Render(header)); err != nil {
		return err
	}

	for _, b := range blocks {
		row := fmt.Sprintf("%-6d %-10s %-10s %10d  %s",
			b.Index, alloc.FormatOffset(b.Offset), alloc.FormatOffset(int(b.Ref)), b.Size, p.styles.status(b.Free))
		if p.opts.ShowLinks {
			row += fmt.Sprintf(" %-10s %-10s", alloc.FormatOffset(b.Next), alloc.FormatOffset(b.Prev))
		}
		if _, err := fmt.Fprintln(p.writer, row); err != nil {
			return err
		}
	}

	_, err := p.num.Fprintf(p.writer, "%d blocks\n", len(blocks))
	return err
}

// printSummaryText prints byte totals with locale digit grouping.
func (p *Printer) printSummaryText(s Summary) error {
	if !s.Initialized {
		_, err := fmt.Fprintln(p.writer, p.styles.muted.Render("Heap not initialized"))
		return err
	}

	lines := []struct {
		label string
		value int
	}{
		{"Arena", s.ArenaBytes},
		{"Used", s.UsedBytes},
		{"Free", s.FreeBytes},
		{"Headers", s.HeaderBytes},
		{"Largest free", s.LargestFree},
	}
	for _, l := range lines {
		if _, err := p.num.Fprintf(p.writer, "%-14s %12d bytes\n", l.label+":", l.value); err != nil {
			return err
		}
	}

	_, err := p.num.Fprintf(p.writer, "%-14s %d (%d used, %d free)\n%-14s %.1f%%\n",
		"Blocks:", s.Blocks, s.UsedBlocks, s.FreeBlocks,
		"Fragmentation:", s.Fragmentation*100)
	return err
}

// printStatsText prints the allocator counters.
func (p *Printer) printStatsText(st alloc.Stats) error {
	rows := []struct {
		label string
		value int64
	}{
		{"Allocations", int64(st.AllocCalls)},
		{"Frees", int64(st.FreeCalls)},
		{"Reallocations", int64(st.ReallocCalls)},
		{"  in place", int64(st.ReallocInPlace)},
		{"  moved", int64(st.ReallocMoved)},
		{"Extensions", int64(st.GrowCalls)},
		{"Extension bytes", st.GrowBytes},
		{"Splits", int64(st.Splits)},
		{"Forward merges", int64(st.CoalesceForward)},
		{"Backward merges", int64(st.CoalesceBackward)},
		{"Invalid blocks", int64(st.InvalidBlocks)},
		{"Double frees", int64(st.DoubleFrees)},
	}
	for _, r := range rows {
		if _, err := p.num.Fprintf(p.writer, "%-16s %10d\n", r.label+":", r.value); err != nil {
			return err
		}
	}
	return nil
}
