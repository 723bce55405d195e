package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
	"github.com/san-kum/brachisim/internal/viz"
)

// Braille dot-to-bit mapping
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasToSVG converts a Braille canvas to SVG, keeping each cell's pen
// colour. Uncoloured cells use fallback.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fallback string) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	sb.WriteString(header(width, height))

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			fill := string(canvas.Colors[row][col])
			if fill == "" {
				fill = fallback
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, dotRadius, fill))
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func header(w, h float64) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, w, h, w, h)
}

type view struct {
	minX, minY, scale, height float64
}

func (v view) point(p dynamo.Vec3) (float64, float64) {
	return (p.X() - v.minX) * v.scale, v.height - (p.Y()-v.minY)*v.scale
}

func (v view) path(points []dynamo.Vec3, stroke string, width float64) string {
	if len(points) < 2 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="%.1f" d="M`, stroke, width))
	for i, p := range points {
		x, y := v.point(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
	return sb.String()
}

// RaceSVG draws the side view of a race: the three centrelines, the far
// wall, and the path each body took over frames. colors maps body names to
// stroke colours; missing names are drawn white.
func RaceSVG(set *ramp.Set, frames []dynamo.Snapshot, colors map[string]string, width, height int) string {
	if set == nil {
		return ""
	}
	cfg := set.Config

	minX, maxX := cfg.A.X()-0.5, cfg.B.X()+0.5
	minY, maxY := cfg.B.Y()-0.5, cfg.PlatformHeight()+0.5
	for _, f := range frames {
		for _, b := range f.Bodies {
			minX = math.Min(minX, b.Position.X())
			maxX = math.Max(maxX, b.Position.X())
		}
	}
	v := view{minX: minX, minY: minY, height: float64(height)}
	v.scale = math.Min(float64(width)/(maxX-minX), float64(height)/(maxY-minY))

	var sb strings.Builder
	sb.WriteString(header(float64(width), float64(height)))

	for _, k := range ramp.Kinds() {
		if g := set.Render[k]; g != nil {
			sb.WriteString(v.path(g.Center, "#666688", 2))
		}
	}
	wall := []dynamo.Vec3{cfg.B, cfg.B.Add(dynamo.Vec3{0, cfg.Caps().FrontCapHeight + 0.4, 0})}
	sb.WriteString(v.path(wall, "#aaaaaa", 3))

	order := make([]string, 0, 3)
	trails := make(map[string][]dynamo.Vec3)
	for _, f := range frames {
		for _, b := range f.Bodies {
			if _, ok := trails[b.Name]; !ok {
				order = append(order, b.Name)
			}
			trails[b.Name] = append(trails[b.Name], b.Position)
		}
	}
	for _, name := range order {
		stroke := colors[name]
		if stroke == "" {
			stroke = "#ffffff"
		}
		sb.WriteString(v.path(trails[name], stroke, 1.5))
		last := trails[name][len(trails[name])-1]
		x, y := v.point(last)
		sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", x, y, math.Max(2, 0.15*v.scale), stroke))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
