package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
	"github.com/san-kum/brachisim/internal/sim"
)

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Fatal("pixel not set")
	}
	if c.Grid[1][1] == blank {
		t.Error("cell should not be blank")
	}
	c.Unset(3, 5)
	if c.IsSet(3, 5) || c.Grid[1][1] != blank {
		t.Error("pixel still set after Unset")
	}

	c.Set(-1, 0)
	c.Set(100, 100)
	if c.IsSet(-1, 0) || c.IsSet(100, 100) {
		t.Error("out of range pixels must be ignored")
	}
}

func TestCanvasLineAndColour(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Pen("#ff0000")
	c.DrawLine(0, 0, 19, 0)
	for x := 0; x < 20; x++ {
		if !c.IsSet(x, 0) {
			t.Fatalf("pixel %d not on line", x)
		}
	}
	if c.Colors[0][0] != "#ff0000" {
		t.Errorf("expected pen colour, got %q", c.Colors[0][0])
	}
	if c.Colors[1][0] != "" {
		t.Error("untouched cell should have no colour")
	}

	c.Clear()
	if strings.Trim(c.String(), string(blank)+"\n") != "" {
		t.Error("canvas not cleared")
	}
}

func TestCanvasDisc(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawDisc(10, 10, 2)
	if !c.IsSet(10, 10) || !c.IsSet(12, 10) || !c.IsSet(10, 8) {
		t.Error("disc missing pixels")
	}
	if c.IsSet(12, 12) {
		t.Error("corner outside the disc is set")
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	cfg := ramp.DefaultConfig()
	cam.Fit(cfg, 160, 96)

	x, y := cam.Project(cam.Center, 160, 96)
	if x != 80 || y != 48 {
		t.Errorf("centre should land mid-canvas, got (%d, %d)", x, y)
	}

	ax, ay := cam.Project(cfg.A, 160, 96)
	bx, by := cam.Project(cfg.B, 160, 96)
	if ax >= bx {
		t.Errorf("A should be left of B: %d vs %d", ax, bx)
	}
	if ay >= by {
		t.Errorf("A should be above B: %d vs %d", ay, by)
	}
	for _, p := range [][2]int{{ax, ay}, {bx, by}} {
		if p[0] < 0 || p[0] > 160 || p[1] < 0 || p[1] > 96 {
			t.Errorf("point %v outside canvas", p)
		}
	}
}

func TestCameraSideIgnoresDepth(t *testing.T) {
	cam := NewCamera()
	cam.Fit(ramp.DefaultConfig(), 160, 96)

	x0, y0 := cam.Project(dynamo.Vec3{2, 3, -1}, 160, 96)
	x1, y1 := cam.Project(dynamo.Vec3{2, 3, 1}, 160, 96)
	if x0 != x1 || y0 != y1 {
		t.Error("side view should flatten z")
	}

	cam.Oblique()
	x0, _ = cam.Project(dynamo.Vec3{2, 3, -1}, 160, 96)
	x1, _ = cam.Project(dynamo.Vec3{2, 3, 1}, 160, 96)
	if x0 == x1 {
		t.Error("oblique view should separate lanes")
	}
}

func TestCameraZoomBounds(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 50; i++ {
		cam.ZoomIn()
	}
	if cam.Zoom != 10 {
		t.Errorf("zoom should clamp at 10, got %v", cam.Zoom)
	}
	cam.Side()
	if cam.Zoom != 1 {
		t.Error("Side should reset zoom")
	}
}

func TestBodyColor(t *testing.T) {
	if got := BodyColor(physics.Yellow); got != "#ffff00" {
		t.Errorf("expected #ffff00, got %s", got)
	}
	if got := BodyColor(physics.Color{2, -1, 0.5}); got != "#ff0080" {
		t.Errorf("expected clamped #ff0080, got %s", got)
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme("night")

	SetTheme("chalk")
	if CurrentTheme.Name != "chalk" {
		t.Fatalf("expected chalk, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "retro" {
		t.Errorf("expected retro, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "night" {
		t.Errorf("expected wrap to night, got %s", CurrentTheme.Name)
	}
	if GetTheme("missing").Name != "night" {
		t.Error("unknown theme should fall back to night")
	}
}

func TestDownsample(t *testing.T) {
	values := make([]float64, 101)
	for i := range values {
		values[i] = float64(i)
	}
	out := Downsample(values, 11)
	if len(out) != 11 || out[0] != 0 || out[10] != 100 || out[5] != 50 {
		t.Errorf("unexpected downsample %v", out)
	}
	if len(Downsample(values[:5], 10)) != 5 {
		t.Error("short input should pass through")
	}
}

func TestPlot(t *testing.T) {
	if Plot(nil, "x", 20, 5) != "" {
		t.Error("empty plot should render nothing")
	}
	out := Plot([]Series{{Name: "Cycloid", Values: []float64{0, 1, 2, 3}}, {Name: "Line"}}, "speed", 20, 5)
	if !strings.Contains(out, "Cycloid") || !strings.Contains(out, "speed") {
		t.Errorf("plot missing legend or caption:\n%s", out)
	}
	if strings.Contains(out, "Line") {
		t.Error("empty series should be left out of the legend")
	}
}

type recorder struct{ hits []string }

func (r *recorder) Trigger(body string, speed float64) { r.hits = append(r.hits, body) }

func newRace(t *testing.T) Model {
	t.Helper()
	s, err := sim.New(sim.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, 0.016, "classic")
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func tickN(m Model, n int) Model {
	for i := 0; i < n; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Model)
	}
	return m
}

func TestModelIdleUntilStart(t *testing.T) {
	m := tickN(newRace(t), 10)
	if m.snap.Started || m.snap.Time != 0 {
		t.Error("race should not advance before start")
	}
	if !strings.Contains(m.View(), "READY") {
		t.Error("expected ready status")
	}

	m = tickN(press(m, "s"), 10)
	if !m.snap.Started || m.snap.Time <= 0 {
		t.Error("race should advance after start")
	}
	if len(m.history) != 10 {
		t.Errorf("expected 10 history frames, got %d", len(m.history))
	}
}

func TestModelPauseAndReset(t *testing.T) {
	m := tickN(press(newRace(t), "s"), 5)
	m = press(m, " ")
	before := m.snap.Time
	m = tickN(m, 5)
	if m.snap.Time != before {
		t.Error("paused race advanced")
	}

	m = press(m, "r")
	if m.snap.Started || len(m.history) != 0 || len(m.speeds) != 0 {
		t.Error("reset should return to the platform")
	}
}

func TestModelScrub(t *testing.T) {
	m := tickN(press(newRace(t), "s"), 20)
	m = press(m, "[")
	if m.playHead != 18 || m.running {
		t.Errorf("expected paused replay at 18, got %d", m.playHead)
	}
	if got := m.current().Time; got != m.history[18].Time {
		t.Errorf("replay shows wrong frame: %v", got)
	}
	m = press(press(m, "]"), "]")
	if m.playHead != -1 {
		t.Error("scrubbing past the end should return to live")
	}
}

func TestModelAdjustSelected(t *testing.T) {
	m := press(newRace(t), "tab")
	name := m.snap.Bodies[1].Name
	m = press(m, "k")
	for _, b := range m.scenario.Settings().Bodies {
		if b.Name == name && b.Params.Mass <= 1 {
			t.Errorf("mass of %s not raised: %v", name, b.Params.Mass)
		}
	}
	if !strings.Contains(m.message, name) {
		t.Errorf("expected message naming %s, got %q", name, m.message)
	}
}

func TestModelSoundOnImpact(t *testing.T) {
	rec := &recorder{}
	m := press(newRace(t).WithSound(rec), "s")
	for i := 0; i < 5000 && !m.snap.AllStopped; i++ {
		m.step()
	}
	if !m.snap.AllStopped {
		t.Fatal("race did not finish")
	}
	if len(rec.hits) < 3 {
		t.Errorf("expected at least one click per body, got %d", len(rec.hits))
	}
	if !strings.Contains(m.View(), "STANDINGS") {
		t.Error("finished race should show standings")
	}
}

func TestMenuFlow(t *testing.T) {
	m := NewMenu()
	key := func(k string) {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Menu)
	}

	if !strings.Contains(m.View(), "classic") {
		t.Fatal("menu should list presets")
	}
	key("enter")
	if m.state != stateConfig || m.cfg == nil {
		t.Fatal("expected config screen")
	}

	// anchor y: replace the value with 7
	key("j")
	key("enter")
	for range m.editBuf {
		key("backspace")
	}
	key("7")
	key("enter")
	if m.cfg.Anchor.Y != 7 {
		t.Errorf("expected anchor y 7, got %v", m.cfg.Anchor.Y)
	}

	key("s")
	if m.state != stateRace {
		t.Fatalf("expected race to start, error %q", m.err)
	}
	if got := m.race.scenario.Ramps().A.Y(); got != 7 {
		t.Errorf("scenario anchor y = %v", got)
	}
}

func TestMenuRejectsDegenerateAnchor(t *testing.T) {
	m := NewMenu()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Menu)
	m.cfg.Anchor.Y = 0.2
	next, _ = m.start()
	m = next.(Menu)
	if m.state == stateRace || m.err == "" {
		t.Error("degenerate anchor should stay on the config screen with an error")
	}
}

func TestProgressBar(t *testing.T) {
	cases := []struct {
		t    float64
		full int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{1.4, 10},
		{-0.2, 0},
	}
	for _, c := range cases {
		bar := ProgressBar(c.t, 10, dynamo.PhaseRolling)
		if got := strings.Count(bar, "━"); got != c.full {
			t.Errorf("t=%v: expected %d filled, got %d", c.t, c.full, got)
		}
		if got := strings.Count(bar, "━") + strings.Count(bar, "─"); got != 10 {
			t.Errorf("t=%v: bar width %d", c.t, got)
		}
	}
}
