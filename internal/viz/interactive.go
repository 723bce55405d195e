package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/brachisim/internal/config"
	"github.com/san-kum/brachisim/internal/sim"
)

var presetInfo = map[string]string{
	"classic": "A=(1,5), three lanes",
	"steep":   "start from 9 m",
	"shallow": "start from 2.5 m",
	"heavy":   "3 kg balls",
	"icy":     "almost no friction",
	"bouncy":  "lively far wall",
	"quick":   "no platform delay",
	"duel":    "line against cycloid",
}

const (
	stateMenu = iota
	stateConfig
	stateRace
)

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	menuDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuHint   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// fields editable before the race, in display order
var menuFields = []string{"anchor x", "anchor y", "separation", "dt"}

// Menu lets the user pick a preset and adjust the start point before the
// live race begins.
type Menu struct {
	state       int
	cursor      int
	presets     []string
	selected    string
	cfg         *config.Config
	fieldCursor int
	editing     bool
	editBuf     string
	err         string
	race        Model
}

func NewMenu() Menu {
	return Menu{state: stateMenu, presets: config.ListPresets()}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateRace {
		next, cmd := m.race.Update(msg)
		m.race = next.(Model)
		return m, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		if m.state == stateMenu {
			return m.menuKey(key)
		}
		return m.configKey(key)
	}
	return m, nil
}

func (m Menu) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.fieldCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m *Menu) field(i int) *float64 {
	switch menuFields[i] {
	case "anchor x":
		return &m.cfg.Anchor.X
	case "anchor y":
		return &m.cfg.Anchor.Y
	case "separation":
		return &m.cfg.Separation
	default:
		return &m.cfg.Dt
	}
}

func (m Menu) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if val, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				*m.field(m.fieldCursor) = val
			} else {
				m.err = "not a number: " + m.editBuf
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 {
				c := s[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += s
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(menuFields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, fmt.Sprintf("%.2f", *m.field(m.fieldCursor))
	case "left", "h":
		*m.field(m.fieldCursor) -= 0.1
	case "right", "l":
		*m.field(m.fieldCursor) += 0.1
	case "s":
		return m.start()
	}
	return m, nil
}

func (m Menu) start() (tea.Model, tea.Cmd) {
	settings, err := m.cfg.Settings()
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	s, err := sim.New(settings)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.race = NewModel(s, m.cfg.Dt, m.selected)
	m.state = stateRace
	return m, m.race.Init()
}

func (m Menu) View() string {
	switch m.state {
	case stateConfig:
		return m.viewConfig()
	case stateRace:
		return m.race.View()
	}
	return m.viewMenu()
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuHint.Render(pairs[i]) + menuDim.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m Menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("BRACHISIM") + "\n    " + menuSub.Render("line vs parabola vs cycloid") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", name)), menuValue.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuDim.Render(fmt.Sprintf("  %-10s", name)), menuDim.Render(desc)))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m Menu) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.selected)) + "\n    " + menuSub.Render(presetInfo[m.selected]) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range menuFields {
		valStr := fmt.Sprintf("%8.3f", *m.field(i))
		if m.editing && i == m.fieldCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", name)), menuValue.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuDim.Render(fmt.Sprintf("  %-10s", name)), menuDim.Render(valStr)))
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + StatusRecording.UnsetBlink().Render(m.err) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewMenu(), tea.WithAltScreen()).Run()
	return err
}
