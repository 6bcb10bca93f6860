// Package viz renders particle states and diagnostic histories for the
// terminal.
package viz

import "strings"

// Braille patterns pack a 2x4 dot grid into one cell, so an WxH canvas
// addresses (W*2)x(H*4) dots.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		grid:   make([][]rune, h),
	}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = 0x2800
		}
	}
}

// Set marks the dot at sub-pixel coordinates (x, y). Out-of-range dots
// are dropped silently so callers can plot without clipping first.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Plot maps a world coordinate in [-scale, scale] onto the dot grid and
// marks it. The vertical axis is flipped so +y points up on screen.
func (c *Canvas) Plot(wx, wy, scale float64) {
	dw, dh := c.Width*2, c.Height*4
	x := int((wx/scale + 1) / 2 * float64(dw-1))
	y := int((1 - wy/scale) / 2 * float64(dh-1))
	c.Set(x, y)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}
