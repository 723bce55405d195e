package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/brachisim/internal/dynamo"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("238")).Padding(0, 2).Width(56)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).Underline(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).MarginTop(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)

	StatusRunning   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5fff87"))
	StatusPaused    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd75f"))
	StatusRecording = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f5f")).Blink(true)
)

// phaseColor picks the bar colour for a body's lifecycle stage.
func phaseColor(p dynamo.Phase) lipgloss.Color {
	switch p {
	case dynamo.PhaseRolling:
		return CurrentTheme.Accent
	case dynamo.PhaseRebounding:
		return CurrentTheme.Wall
	case dynamo.PhaseStopped:
		return CurrentTheme.Text
	default:
		return CurrentTheme.Muted
	}
}

// ProgressBar renders how far along its track a body is, t in [0, 1].
func ProgressBar(t float64, width int, phase dynamo.Phase) string {
	filled := int(t*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
	return lipgloss.NewStyle().Foreground(phaseColor(phase)).Render(bar)
}
