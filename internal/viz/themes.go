package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette for terminal output.
type Theme struct {
	Name      string
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var (
	// ThemeField is the default: earth and grass tones.
	ThemeField = Theme{
		Name:      "field",
		Secondary: lipgloss.Color("#8fbf5a"),
		Text:      lipgloss.Color("#f2ead3"),
		Muted:     lipgloss.Color("#7a6f5c"),
		Success:   lipgloss.Color("#6fcf6a"),
		Warning:   lipgloss.Color("#e0a43a"),
		Error:     lipgloss.Color("#d2553f"),
	}

	// ThemeLab suits light terminals and screenshots.
	ThemeLab = Theme{
		Name:      "lab",
		Secondary: lipgloss.Color("#1f5f9e"),
		Text:      lipgloss.Color("#202020"),
		Muted:     lipgloss.Color("#8a8a8a"),
		Success:   lipgloss.Color("#2e8b57"),
		Warning:   lipgloss.Color("#b8860b"),
		Error:     lipgloss.Color("#b22222"),
	}

	ThemeNight = Theme{
		Name:      "night",
		Secondary: lipgloss.Color("#7aa2f7"),
		Text:      lipgloss.Color("#c0caf5"),
		Muted:     lipgloss.Color("#565f89"),
		Success:   lipgloss.Color("#9ece6a"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),
	}

	CurrentTheme = ThemeField

	Themes = []Theme{ThemeField, ThemeLab, ThemeNight}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeField
}

// SetTheme changes the current theme and rebuilds the shared styles.
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
