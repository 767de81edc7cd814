package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusDone = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusCanceled = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Metric is one labelled row of a summary panel.
type Metric struct {
	Label string
	Value string
}

func Metricf(label, format string, args ...any) Metric {
	return Metric{Label: label, Value: fmt.Sprintf(format, args...)}
}

// Summary renders a titled panel of aligned label/value rows.
func Summary(title string, metrics []Metric) string {
	width := 0
	for _, m := range metrics {
		width = max(width, len(m.Label))
	}

	var b strings.Builder
	b.WriteString(Title.Render(title))
	for _, m := range metrics {
		b.WriteString("\n")
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", width, m.Label)))
		b.WriteString("  ")
		b.WriteString(MetricValue.Render(m.Value))
	}
	return Panel.Render(b.String())
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return SparkHigh.Render(bar)
	case fraction > 0.4:
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

// Sparkline draws values as at most width block characters. Non-finite
// values are drawn as blanks.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	span := hi - lo
	if !(span > 0) {
		span = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		v := values[i*step]
		if math.IsInf(v, 0) || math.IsNaN(v) {
			b.WriteRune(' ')
			continue
		}
		norm := (v - lo) / span
		c := string(chars[max(0, min(int(norm*float64(len(chars)-1)), len(chars)-1))])
		switch {
		case norm > 0.7:
			b.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(SparkMid.Render(c))
		default:
			b.WriteString(SparkLow.Render(c))
		}
	}
	return b.String()
}
