// Package printer renders allocator block lists and accounting summaries.
package printer

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs human-readable text format.
	FormatText Format = "text"

	// FormatJSON outputs JSON format.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// Color styles FREE/USED markers in text output. The renderer still
	// drops escape codes when the writer is not a terminal.
	// Default: true
	Color bool

	// ShowLinks includes next/prev header offsets in block listings.
	// Default: true
	ShowLinks bool

	// Language selects digit grouping for byte counts in text summaries.
	// Default: language.English
	Language language.Tag
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:    FormatText,
		Color:     true,
		ShowLinks: true,
		Language:  language.English,
	}
}

// Source is the read-only view of an allocator the printer needs.
// *alloc.Allocator implements it.
type Source interface {
	Initialized() bool
	HeapDump() []alloc.BlockInfo
	ArenaSize() int
	Stats() alloc.Stats
}

// Printer handles formatted output of allocator state.
type Printer struct {
	opts   Options
	writer io.Writer
	src    Source
	num    *message.Printer
	styles styles
}

// New creates a new Printer.
//
// Example:
//
//	a := alloc.New(region, nil)
//	p := printer.New(a, os.Stdout, printer.DefaultOptions())
//	p.PrintBlocks()
func New(src Source, w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	return &Printer{
		opts:   opts,
		writer: w,
		src:    src,
		num:    message.NewPrinter(opts.Language),
		styles: newStyles(lipgloss.NewRenderer(w), opts.Color),
	}
}

// PrintBlocks prints every block in address order.
func (p *Printer) PrintBlocks() error {
	blocks := p.src.HeapDump()
	switch p.opts.Format {
	case FormatJSON:
		return p.printBlocksJSON(blocks)
	default:
		return p.printBlocksText(blocks)
	}
}

// PrintSummary prints arena accounting and fragmentation.
func (p *Printer) PrintSummary() error {
	s := Summarize(p.src)
	switch p.opts.Format {
	case FormatJSON:
		return p.writeJSON(s)
	default:
		return p.printSummaryText(s)
	}
}

// PrintStats prints the allocator counters.
func (p *Printer) PrintStats() error {
	st := p.src.Stats()
	switch p.opts.Format {
	case FormatJSON:
		return p.writeJSON(st)
	default:
		return p.printStatsText(st)
	}
}
