package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	KeyHint     lipgloss.Style
	StatusOK    lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusError lipgloss.Style
	Panel       lipgloss.Style

	// Sparkline bar colors
	SparkHigh lipgloss.Style
	SparkMid  lipgloss.Style
	SparkLow  lipgloss.Style
)

func init() { applyTheme(CurrentTheme) }

func applyTheme(t Theme) {
	Title = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	MetricLabel = lipgloss.NewStyle().Foreground(t.Muted)
	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	KeyHint = lipgloss.NewStyle().Italic(true).Foreground(t.Muted)
	StatusOK = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	StatusWarn = lipgloss.NewStyle().Bold(true).Foreground(t.Warning)
	StatusError = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(0, 1)

	SparkHigh = lipgloss.NewStyle().Foreground(t.Success)
	SparkMid = lipgloss.NewStyle().Foreground(t.Warning)
	SparkLow = lipgloss.NewStyle().Foreground(t.Error)
}

// Metric renders "label value" with the metric styles.
func Metric(label, value string) string {
	return MetricLabel.Render(label) + " " + MetricValue.Render(value)
}

// ProgressBar renders a bar filled to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return SparkHigh.Render(bar)
	case percent > 0.4:
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as one row of block characters, sampling down to
// width. It is unstyled so callers can measure and test it.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

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

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(sparkChars)-1))
		b.WriteRune(sparkChars[max(0, min(idx, len(sparkChars)-1))])
	}
	return b.String()
}

// Separator is a muted rule with a diamond in the middle.
func Separator(width int) string {
	if width < 8 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return Subtle.Render(left + " ◆ " + right)
}
