package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme is the color scheme for styled text and plotted series.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	// Series colors cycle when a plot has more lines than entries.
	Series []asciigraph.AnsiColor
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
		Series: []asciigraph.AnsiColor{
			asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow,
			asciigraph.Green, asciigraph.Red, asciigraph.Blue,
		},
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
		Series: []asciigraph.AnsiColor{
			asciigraph.Green, asciigraph.Lime, asciigraph.DarkGreen, asciigraph.YellowGreen,
		},
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
		Series:  []asciigraph.AnsiColor{asciigraph.Default},
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, or the default one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// SetTheme changes the current theme and restyles the shared styles.
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
	applyTheme(CurrentTheme)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// SeriesColors returns n plot colors from the theme.
func (t Theme) SeriesColors(n int) []asciigraph.AnsiColor {
	if len(t.Series) == 0 {
		t.Series = []asciigraph.AnsiColor{asciigraph.Default}
	}
	colors := make([]asciigraph.AnsiColor, n)
	for i := range colors {
		colors[i] = t.Series[i%len(t.Series)]
	}
	return colors
}
