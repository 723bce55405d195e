package viz

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/brachisim/internal/physics"
)

// Theme defines the colours of the scene and the panel. Ball colours come
// from the bodies themselves.
type Theme struct {
	Name     string
	Track    lipgloss.Color
	Wall     lipgloss.Color
	Platform lipgloss.Color
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:     "night",
		Track:    lipgloss.Color("#5f5f87"),
		Wall:     lipgloss.Color("#af5f5f"),
		Platform: lipgloss.Color("#d7af5f"),
		Accent:   lipgloss.Color("#00ffff"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#666688"),
	}

	ThemeChalk = Theme{
		Name:     "chalk",
		Track:    lipgloss.Color("#bcbcbc"),
		Wall:     lipgloss.Color("#ffffff"),
		Platform: lipgloss.Color("#d0d0d0"),
		Accent:   lipgloss.Color("#0088ff"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#888888"),
	}

	ThemeRetro = Theme{
		Name:     "retro",
		Track:    lipgloss.Color("#00aa00"),
		Wall:     lipgloss.Color("#88ff88"),
		Platform: lipgloss.Color("#00cc00"),
		Accent:   lipgloss.Color("#88ff88"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
	}

	CurrentTheme = ThemeNight

	Themes = []Theme{
		ThemeNight,
		ThemeChalk,
		ThemeRetro,
	}
)

// GetTheme returns a theme by name, falling back to night.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNight
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// BodyColor converts an RGB triple in [0,1] to a lipgloss colour.
func BodyColor(c physics.Color) lipgloss.Color {
	b := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", b(c[0]), b(c[1]), b(c[2])))
}
