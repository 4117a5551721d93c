package printer

import "github.com/charmbracelet/lipgloss"

var (
	freeColor   = lipgloss.Color("#04B575")
	usedColor   = lipgloss.Color("#FFA500")
	headerColor = lipgloss.Color("#7D56F4")
	mutedColor  = lipgloss.Color("#666666")
)

// styles holds the renderer-bound styles for one Printer.
type styles struct {
	free   lipgloss.Style
	used   lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	if !color {
		plain := r.NewStyle()
		return styles{free: plain, used: plain, header: plain, muted: plain}
	}
	return styles{
		free:   r.NewStyle().Foreground(freeColor).Bold(true),
		used:   r.NewStyle().Foreground(usedColor),
		header: r.NewStyle().Foreground(headerColor).Bold(true),
		muted:  r.NewStyle().Foreground(mutedColor),
	}
}

// status renders a padded FREE/USED marker. Padding happens before styling
// so escape codes do not disturb column widths.
func (s styles) status(free bool) string {
	if free {
		return s.free.Render("FREE  ")
	}
	return s.used.Render("USED  ")
}
