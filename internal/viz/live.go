package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
	"github.com/san-kum/brachisim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	speedCapacity   = 120
)

type TickMsg time.Time

// Sounder plays a click when a body hits the far wall.
type Sounder interface {
	Trigger(body string, speed float64)
}

// Model is the live race view: the scenario is stepped on every tick and
// drawn from the side (or obliquely, to separate the lanes).
type Model struct {
	scenario      *sim.Scenario
	dt            float64
	label         string
	width, height int
	canvas        *Canvas
	camera        *Camera
	oblique       bool
	running       bool
	snap          dynamo.Snapshot
	colors        map[string]lipgloss.Color
	speeds        map[string][]float64
	selected      int
	history       []dynamo.Snapshot
	playHead      int
	recording     bool
	frames        []*image.Paletted
	showHelp      bool
	sound         Sounder
	seenEvents    int
	message       string
}

func NewModel(s *sim.Scenario, dt float64, label string) Model {
	colors := make(map[string]lipgloss.Color)
	for _, b := range s.Settings().Bodies {
		c := physics.DefaultColor(b.Kind)
		if b.Color != nil {
			c = *b.Color
		}
		colors[b.Name] = BodyColor(c)
	}

	m := Model{
		scenario: s,
		dt:       dt,
		label:    label,
		width:    width,
		height:   height,
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		running:  true,
		snap:     s.Snapshot(),
		colors:   colors,
		speeds:   make(map[string][]float64),
		history:  make([]dynamo.Snapshot, 0, historyCapacity),
		playHead: -1,
	}
	m.fit()
	return m
}

// WithSound plays impacts through snd.
func (m Model) WithSound(snd Sounder) Model {
	m.sound = snd
	return m
}

func (m *Model) fit() {
	sw, sh := m.canvas.SubSize()
	m.camera.Fit(m.scenario.Ramps(), sw, sh)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s", "enter":
			m.scenario.Start()
			m.running = true
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			if n := len(m.snap.Bodies); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "up", "k":
			m.adjust("mass", 1.05)
		case "down", "j":
			m.adjust("mass", 0.95)
		case "f":
			m.adjust("friction", 1.1)
		case "F":
			m.adjust("friction", 1/1.1)
		case "v":
			m.oblique = !m.oblique
			if m.oblique {
				m.camera.Oblique()
			} else {
				m.camera.Side()
			}
		case "left", "h":
			m.camera.RotateYaw(-0.1)
		case "right", "l":
			m.camera.RotateYaw(0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "g":
			if m.recording {
				if err := m.saveGIF(); err != nil {
					m.message = err.Error()
				}
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.snap = m.scenario.Step(m.dt)
	if !m.snap.Started {
		return
	}

	for _, b := range m.snap.Bodies {
		h := append(m.speeds[b.Name], math.Abs(b.Velocity))
		if len(h) > speedCapacity {
			h = h[1:]
		}
		m.speeds[b.Name] = h
	}

	m.history = append(m.history, m.snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}

	events := m.scenario.Events()
	if len(events) < m.seenEvents {
		m.seenEvents = 0
	}
	for _, e := range events[m.seenEvents:] {
		if m.sound != nil && (e.Kind == dynamo.EventImpact || e.Kind == dynamo.EventRebound) {
			m.sound.Trigger(e.Body, e.Velocity)
		}
	}
	m.seenEvents = len(events)
}

func (m *Model) adjust(param string, factor float64) {
	if m.selected >= len(m.snap.Bodies) {
		return
	}
	name := m.snap.Bodies[m.selected].Name
	for _, b := range m.scenario.Settings().Bodies {
		if b.Name != name {
			continue
		}
		val := b.Params.Mass
		if param == "friction" {
			val = b.Params.Mu
		}
		if err := m.scenario.SetBodyParam(name, param, val*factor); err != nil {
			m.message = err.Error()
		} else {
			m.message = fmt.Sprintf("%s %s = %.4f", name, param, val*factor)
		}
		return
	}
}

func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	m.scenario.Restart()
	m.snap = m.scenario.Snapshot()
	m.speeds = make(map[string][]float64)
	m.history = m.history[:0]
	m.playHead = -1
	m.seenEvents = 0
	m.message = ""
}

func (m *Model) current() dynamo.Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.snap
}

func (m *Model) line(a, b dynamo.Vec3) {
	sw, sh := m.canvas.SubSize()
	x0, y0 := m.camera.Project(a, sw, sh)
	x1, y1 := m.camera.Project(b, sw, sh)
	m.canvas.DrawLine(x0, y0, x1, y1)
}

func (m *Model) draw() {
	m.canvas.Clear()
	snap := m.current()
	set := m.scenario.Geometry()
	cfg := set.Config
	caps := cfg.Caps()

	m.canvas.Pen(CurrentTheme.Track)
	for _, k := range ramp.Kinds() {
		g := set.Render[k]
		for i := 1; i < len(g.Left); i++ {
			m.line(g.Left[i-1], g.Left[i])
			if m.oblique {
				m.line(g.Right[i-1], g.Right[i])
			}
		}
	}

	zs := []float64{-cfg.Separation - cfg.HalfWidth(), cfg.Separation + cfg.HalfWidth()}

	m.canvas.Pen(CurrentTheme.Wall)
	for _, z := range zs {
		m.line(dynamo.Vec3{cfg.B.X(), cfg.B.Y(), z}, dynamo.Vec3{cfg.B.X(), cfg.B.Y() + caps.FrontCapHeight + 0.4, z})
	}
	m.line(dynamo.Vec3{cfg.A.X() - 3.2, cfg.B.Y(), 0}, dynamo.Vec3{cfg.B.X(), cfg.B.Y(), 0})

	m.canvas.Pen(CurrentTheme.Platform)
	for _, z := range zs {
		m.line(dynamo.Vec3{snap.PlatformX - 1.2, caps.PlatformHeight, z}, dynamo.Vec3{snap.PlatformX, caps.PlatformHeight, z})
	}

	sw, sh := m.canvas.SubSize()
	r := int(math.Max(1, math.Round(physics.DefaultRadius*m.camera.Scale*m.camera.Zoom)))
	for _, b := range snap.Bodies {
		m.canvas.Pen(m.colors[b.Name])
		x, y := m.camera.Project(b.Position, sw, sh)
		m.canvas.DrawDisc(x, y, r)
	}
	m.canvas.Pen("")
}

func (m Model) status() string {
	switch {
	case m.recording:
		return StatusRecording.Render("● REC")
	case m.playHead != -1:
		return StatusPaused.Render(fmt.Sprintf("REPLAY %.2fs", m.history[m.playHead].Time))
	case !m.snap.Started:
		return StatusPaused.Render("READY  (s to start)")
	case m.snap.AllStopped:
		return StatusRunning.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m Model) View() string {
	m.draw()
	snap := m.current()
	canvasView := canvasStyle.Render(m.canvas.Render())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.label)) + "\n")
	s.WriteString(m.status() + "\n\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", snap.Time)) + "\n")
	s.WriteString(labelStyle.Render("Platform") + valueStyle.Render(fmt.Sprintf("x=%.2f", snap.PlatformX)) + "\n\n")

	for i, b := range snap.Bodies {
		dot := lipgloss.NewStyle().Foreground(m.colors[b.Name]).Render("●")
		name := fmt.Sprintf("%-9s", b.Name)
		if i == m.selected {
			name = activeStyle.Render(name)
		}
		s.WriteString(fmt.Sprintf("%s %s %s %6.2f m/s  %s\n", dot, name, ProgressBar(b.T, 10, b.Phase), b.Velocity, b.Phase))
		detail := fmt.Sprintf("   m=%.2f  rebounds=%d", b.Mass, b.Rebounds)
		if b.FirstImpact != nil {
			detail += fmt.Sprintf("  hit %.2fs", *b.FirstImpact)
		}
		s.WriteString(labelStyle.Width(0).Render(detail) + "\n")
	}

	if snap.AllStopped {
		s.WriteString("\nSTANDINGS\n")
		for _, st := range m.scenario.Standings() {
			line := fmt.Sprintf("%d. %s", st.Rank, st.Name)
			if st.FirstImpact != nil {
				line += fmt.Sprintf("  %.3fs", *st.FirstImpact)
			}
			s.WriteString(valueStyle.Render(line) + "\n")
		}
	}

	series := make([][]float64, 0, len(snap.Bodies))
	for _, b := range snap.Bodies {
		if h := m.speeds[b.Name]; len(h) > 1 {
			series = append(series, h)
		}
	}
	if len(series) > 0 {
		chart := asciigraph.PlotMany(series, asciigraph.Height(5), asciigraph.Width(40), asciigraph.Caption("|v| (m/s)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.message != "" {
		s.WriteString(valueStyle.Render(m.message) + "\n")
	}
	s.WriteString(helpStyle.Render("S:Start SP:Pause R:Reset Q:Quit\nTab:Body ↑↓:Mass f/F:Friction\nV:View T:Theme G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  S/Enter  - Start the race           ║
║  Space    - Pause/Resume             ║
║  R        - Back to the platform     ║
║  Q        - Quit                     ║
║  Tab      - Select body              ║
║  Up/K     - Mass +5%                 ║
║  Down/J   - Mass -5%                 ║
║  f / F    - Friction up / down       ║
║  V        - Side / oblique view      ║
║  H / L    - Rotate view              ║
║  + / -    - Zoom                     ║
║  [ / ]    - Rewind / forward         ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.width*charW, m.height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for row := 0; row < m.height; row++ {
		for col := 0; col < m.width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !m.canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					baseX, baseY := col*charW+dx*dotW, row*charH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+px, baseY+py, 1)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(m.label + ".gif")
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
