package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name   string
	Title  lipgloss.Color
	Trace  lipgloss.Color
	Label  lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Border lipgloss.Color
}

var (
	ThemeClinical = Theme{
		Name:   "clinical",
		Title:  lipgloss.Color("#ffffff"),
		Trace:  lipgloss.Color("#00ccff"),
		Label:  lipgloss.Color("#888899"),
		Muted:  lipgloss.Color("#666688"),
		Accent: lipgloss.Color("#00ff88"),
		Border: lipgloss.Color("#444466"),
	}

	ThemePaper = Theme{
		Name:   "paper",
		Title:  lipgloss.Color("#000000"),
		Trace:  lipgloss.Color("#0000ff"),
		Label:  lipgloss.Color("#333333"),
		Muted:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#cc0000"),
		Border: lipgloss.Color("#aaaaaa"),
	}

	ThemeRetro = Theme{
		Name:   "retro",
		Title:  lipgloss.Color("#88ff88"),
		Trace:  lipgloss.Color("#00ff00"),
		Label:  lipgloss.Color("#00cc00"),
		Muted:  lipgloss.Color("#005500"),
		Accent: lipgloss.Color("#ffff00"),
		Border: lipgloss.Color("#005500"),
	}

	Themes = []Theme{ThemeClinical, ThemePaper, ThemeRetro}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
