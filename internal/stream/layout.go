package stream

import (
	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
)

// Track is one curve as a renderer needs it: the rails at render
// resolution and the lane colour.
type Track struct {
	Curve   string        `json:"curve"`
	ZOffset float64       `json:"z_offset"`
	Length  float64       `json:"length"`
	Left    []dynamo.Vec3 `json:"left"`
	Right   []dynamo.Vec3 `json:"right"`
	Color   physics.Color `json:"color"`
}

// Layout describes the static scene.
type Layout struct {
	Width  float64   `json:"width"`
	Caps   ramp.Caps `json:"caps"`
	Tracks []Track   `json:"tracks"`
}

func NewLayout(set *ramp.Set) Layout {
	l := Layout{
		Width: set.Config.Width,
		Caps:  set.Config.Caps(),
	}
	for _, k := range ramp.Kinds() {
		g, ok := set.Render[k]
		if !ok {
			continue
		}
		l.Tracks = append(l.Tracks, Track{
			Curve:   k.String(),
			ZOffset: g.ZOffset,
			Length:  g.Length,
			Left:    g.Left,
			Right:   g.Right,
			Color:   physics.DefaultColor(k),
		})
	}
	return l
}
