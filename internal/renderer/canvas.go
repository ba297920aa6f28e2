package renderer

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/ivlev/pulsedeck/internal/layout"
)

// canvas maps page coordinates to screen cells, clipping everything that
// falls under the nav bar or below the screen.
type canvas struct {
	s    tcell.Screen
	w, h int
	top  int
}

func (c canvas) set(x, y int, r rune, style tcell.Style) {
	sy := y - c.top
	if sy < layout.HeaderHeight || sy >= c.h || x < 0 || x >= c.w {
		return
	}
	c.s.SetContent(x, sy, r, nil, style)
}

// text draws s at page row y, truncated to maxW cells.
func (c canvas) text(x, y, maxW int, s string, style tcell.Style) {
	end := x + maxW
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > end {
			return
		}
		c.set(x, y, r, style)
		x += rw
	}
}

func (c canvas) box(x, y, w, h int, style tcell.Style) {
	if w < 2 || h < 2 {
		return
	}
	right, bottom := x+w-1, y+h-1
	for i := x + 1; i < right; i++ {
		c.set(i, y, '─', style)
		c.set(i, bottom, '─', style)
	}
	for j := y + 1; j < bottom; j++ {
		c.set(x, j, '│', style)
		c.set(right, j, '│', style)
	}
	c.set(x, y, '╭', style)
	c.set(right, y, '╮', style)
	c.set(x, bottom, '╰', style)
	c.set(right, bottom, '╯', style)
}

// qr draws a bitmap two modules per cell using half blocks.
func (c canvas) qr(x, y int, bitmap [][]bool, style tcell.Style) {
	for row := 0; row < len(bitmap); row += 2 {
		for col := range bitmap[row] {
			upper := bitmap[row][col]
			lower := row+1 < len(bitmap) && bitmap[row+1][col]
			r := ' '
			switch {
			case upper && lower:
				r = '█'
			case upper:
				r = '▀'
			case lower:
				r = '▄'
			}
			c.set(x+col, y+row/2, r, style)
		}
	}
}

// putString writes s on screen row y from x, stopping at maxX. It returns
// the column after the last cell written.
func putString(s tcell.Screen, x, y, maxX int, str string, style tcell.Style) int {
	for _, r := range str {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > maxX {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}
