// Package renderer draws a laid out report onto a tcell screen.
package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/ivlev/pulsedeck/internal/animator"
	"github.com/ivlev/pulsedeck/internal/layout"
	"github.com/ivlev/pulsedeck/internal/report"
)

// Source exposes the reveal state of regions. *reveal.Gate implements it.
type Source interface {
	Visible(id string) bool
	Frame(id string) (animator.Frame, bool)
}

// State is everything that changes between two draws.
type State struct {
	Top      int  // page row shown right below the nav bar
	Scrolled bool // nav bar gets its solid background
	Reveal   Source
}

// Theme holds the styles used by Draw.
type Theme struct {
	Base        tcell.Style
	Nav         tcell.Style
	NavScrolled tcell.Style
	NavActive   tcell.Style
	Border      tcell.Style
	Hidden      tcell.Style
	Title       tcell.Style
	Value       tcell.Style
	Label       tcell.Style
	Note        tcell.Style
	Bar         tcell.Style
	Low         tcell.Style
}

// DefaultTheme is the purple and pink report palette.
func DefaultTheme() Theme {
	purple := tcell.NewRGBColor(124, 58, 237)
	pink := tcell.NewRGBColor(236, 72, 153)
	gray := tcell.NewRGBColor(107, 114, 128)
	return Theme{
		Base:        tcell.StyleDefault,
		Nav:         tcell.StyleDefault.Foreground(gray),
		NavScrolled: tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack),
		NavActive:   tcell.StyleDefault.Foreground(purple).Bold(true).Underline(true),
		Border:      tcell.StyleDefault.Foreground(purple),
		Hidden:      tcell.StyleDefault.Foreground(tcell.ColorDarkGray).Dim(true),
		Title:       tcell.StyleDefault.Foreground(purple).Bold(true),
		Value:       tcell.StyleDefault.Foreground(pink).Bold(true),
		Label:       tcell.StyleDefault,
		Note:        tcell.StyleDefault.Foreground(gray),
		Bar:         tcell.StyleDefault.Foreground(purple),
		Low:         tcell.StyleDefault.Foreground(tcell.ColorOrange),
	}
}

// Renderer draws pages.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// Draw paints the visible part of page. It does not call Show.
func (r *Renderer) Draw(s tcell.Screen, page *layout.Page, st State) {
	w, h := s.Size()
	s.Fill(' ', r.Theme.Base)

	c := canvas{s: s, w: w, h: h, top: st.Top}
	for _, b := range page.Blocks {
		sy := b.Rect.Y - st.Top
		if sy+b.Rect.H <= layout.HeaderHeight || sy >= h {
			continue
		}
		r.drawBlock(c, b, st.Reveal)
	}

	r.drawNav(s, w, page, st)
}

// ActiveSection returns the last section whose anchor is at or above the
// first body row.
func ActiveSection(page *layout.Page, top int) string {
	active := ""
	best := -1
	if page.Report == nil {
		return ""
	}
	for _, n := range page.Report.Nav {
		y, ok := page.Section(n.Section)
		if !ok || y > top+layout.HeaderHeight || y <= best {
			continue
		}
		active, best = n.Section, y
	}
	return active
}

func (r *Renderer) drawNav(s tcell.Screen, w int, page *layout.Page, st State) {
	style := r.Theme.Nav
	if st.Scrolled {
		style = r.Theme.NavScrolled
	}
	for x := 0; x < w; x++ {
		s.SetContent(x, 0, ' ', nil, style)
	}
	if page.Report == nil {
		return
	}

	title := page.Report.Title
	x := putString(s, 1, 0, w-1, title, style.Bold(true))

	var items []string
	for i, n := range page.Report.Nav {
		items = append(items, fmt.Sprintf("%d %s", i+1, n.Label))
	}
	navWidth := runewidth.StringWidth(strings.Join(items, "  "))
	nx := w - navWidth - 1
	if nx <= x+1 {
		return // no room for the menu next to the title
	}

	active := ActiveSection(page, st.Top)
	for i, item := range items {
		is := style
		if page.Report.Nav[i].Section == active {
			is = r.Theme.NavActive
			if st.Scrolled {
				is = is.Background(tcell.ColorWhite)
			}
		}
		nx = putString(s, nx, 0, w, item, is) + 2
	}
}

func (r *Renderer) drawBlock(c canvas, b layout.Block, src Source) {
	revealed := src == nil || src.Visible(b.Region.ID)
	border := r.Theme.Border
	if !revealed {
		border = r.Theme.Hidden
	}
	c.box(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H, border)
	if !revealed {
		return
	}

	in := b.Inner()
	y := in.Y
	if b.Region.Title != "" {
		c.text(in.X, y, in.W, b.Region.Title, r.Theme.Title)
		y++
	}

	var values animator.Values
	if src != nil {
		if f, ok := src.Frame(b.Region.ID); ok {
			values = f.Values
		}
	}

	switch b.Region.Kind {
	case report.KindMetric:
		y = r.drawMetrics(c, in.X, y, in.W, b.Region.Metrics, values)
	case report.KindBars:
		y = r.drawBars(c, in.X, y, in.W, b.Region)
	case report.KindTrend:
		y = r.drawTrend(c, in.X, y, in.W, b.Region)
	}

	for _, line := range b.Lines {
		style := r.Theme.Label
		if b.Region.Kind != report.KindText {
			style = r.Theme.Note
		}
		c.text(in.X, y, in.W, line, style)
		y++
	}

	if len(b.QR) > 0 {
		qx := in.X + max((in.W-len(b.QR[0]))/2, 0)
		c.qr(qx, y, b.QR, r.Theme.Label)
	}
}

func (r *Renderer) drawMetrics(c canvas, x, y, w int, metrics []report.Metric, values animator.Values) int {
	for _, m := range metrics {
		c.text(x, y, w, report.FormatValue(m, values[m.Name]), r.Theme.Value)
		c.text(x, y+1, w, m.Label, r.Theme.Label)
		y += 2
		if m.Note != "" {
			c.text(x, y, w, m.Note, r.Theme.Note)
			y++
		}
	}
	return y
}

func (r *Renderer) drawBars(c canvas, x, y, w int, reg report.Region) int {
	labelWidth := 0
	for _, b := range reg.Bars {
		labelWidth = max(labelWidth, runewidth.StringWidth(b.Label))
	}
	labelWidth = min(labelWidth, w/3)
	barWidth := w - labelWidth - 7 // " " + bar + " 4.13"

	sc := chartScale(reg)
	for _, b := range reg.Bars {
		c.text(x, y, labelWidth, b.Label, r.Theme.Label)
		n := 0
		if barWidth > 0 {
			n = int(sc.fraction(b.Value)*float64(barWidth) + 0.5)
		}
		style := r.Theme.Bar
		if sc.fraction(b.Value) < 0.25 {
			style = r.Theme.Low
		}
		c.text(x+labelWidth+1, y, barWidth, strings.Repeat("█", n), style)
		c.text(x+labelWidth+2+max(barWidth, 0), y, 5, formatScore(b.Value), r.Theme.Note)
		y++
	}
	return y
}

var sparks = []rune("▁▂▃▄▅▆▇█")

func (r *Renderer) drawTrend(c canvas, x, y, w int, reg report.Region) int {
	nameWidth := 0
	for _, s := range reg.Series {
		nameWidth = max(nameWidth, runewidth.StringWidth(s.Name))
	}
	colWidth := 0
	if len(reg.Labels) > 0 {
		colWidth = max((w-nameWidth-1)/len(reg.Labels), 1)
	}

	for i, label := range reg.Labels {
		c.text(x+nameWidth+1+i*colWidth, y, colWidth-1, label, r.Theme.Note)
	}
	y++

	sc := chartScale(reg)
	for _, s := range reg.Series {
		c.text(x, y, nameWidth, s.Name, r.Theme.Label)
		for i, v := range s.Values {
			level := int(sc.fraction(v) * float64(len(sparks)-1))
			cell := string(sparks[level]) + " " + formatScore(v)
			c.text(x+nameWidth+1+i*colWidth, y, colWidth-1, cell, r.Theme.Bar)
		}
		y++
	}
	return y
}

type scale report.Scale

func chartScale(reg report.Region) scale {
	if reg.Scale != nil {
		return scale(*reg.Scale)
	}
	s := scale{Min: 0, Max: 1}
	for _, b := range reg.Bars {
		s.Max = max(s.Max, b.Value)
	}
	for _, ser := range reg.Series {
		for _, v := range ser.Values {
			s.Max = max(s.Max, v)
		}
	}
	return s
}

// fraction maps v into [0, 1] over the scale domain.
func (s scale) fraction(v float64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	f := (v - s.Min) / (s.Max - s.Min)
	return min(max(f, 0), 1)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
