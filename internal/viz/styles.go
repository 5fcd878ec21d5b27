package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	help   lipgloss.Style
	panel  lipgloss.Style
	bar    lipgloss.Style
	err    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Title).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		label: lipgloss.NewStyle().Foreground(t.Label).Width(12),
		value: lipgloss.NewStyle().Foreground(t.Trace).Bold(true),
		help:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		bar: lipgloss.NewStyle().Foreground(t.Accent),
		err: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true),
	}
}

// ProgressBar draws the fraction of the recording already viewed.
func ProgressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline renders values as block characters, sampled to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var sb strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		sb.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return sb.String()
}
