package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = rune(0x2800)

// Canvas is a braille pixel grid. Each cell remembers the pen colour of
// the last pixel drawn into it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]lipgloss.Color

	pen lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]lipgloss.Color, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]lipgloss.Color, w)
	}
	c.Clear()
	return c
}

// SubSize is the canvas size in sub-pixels.
func (c *Canvas) SubSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Pen sets the colour used by later drawing calls. "" draws uncoloured.
func (c *Canvas) Pen(col lipgloss.Color) { c.pen = col }

// Set sets a pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if c.pen != "" {
		c.Colors[row][col] = c.pen
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] &= ^rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Colors[i][j] = ""
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a disc of radius r sub-pixels around (cx, cy).
func (c *Canvas) DrawDisc(cx, cy, r int) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

// String renders the grid without colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render renders the grid with each cell in its pen colour.
func (c *Canvas) Render() string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Colors[i][j] == c.Colors[i][start] {
				continue
			}
			run := string(row[start:j])
			if col := c.Colors[i][start]; col != "" {
				run = lipgloss.NewStyle().Foreground(col).Render(run)
			}
			b.WriteString(run)
			start = j
		}
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
