package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Series is one named trace for a static plot.
type Series struct {
	Name   string
	Values []float64
}

var seriesPalette = []asciigraph.AnsiColor{
	asciigraph.Yellow,
	asciigraph.Cyan,
	asciigraph.LightBlue,
	asciigraph.Magenta,
	asciigraph.Green,
}

// Downsample keeps at most n evenly spaced values.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	step := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = values[int(float64(i)*step+0.5)]
	}
	return out
}

// Plot draws all series on one chart with a colour legend underneath.
func Plot(series []Series, caption string, w, h int) string {
	data := make([][]float64, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	var legend strings.Builder
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		col := seriesPalette[i%len(seriesPalette)]
		data = append(data, Downsample(s.Values, w))
		colors = append(colors, col)
		legend.WriteString(fmt.Sprintf("  %s■%s %s", col, asciigraph.Default, s.Name))
	}
	if len(data) == 0 {
		return ""
	}
	chart := asciigraph.PlotMany(data,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
	return chart + "\n" + legend.String()
}
