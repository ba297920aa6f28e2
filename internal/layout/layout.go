// Package layout places report regions on a fixed-width character page.
package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/skip2/go-qrcode"

	"github.com/ivlev/pulsedeck/internal/report"
	"github.com/ivlev/pulsedeck/internal/viewport"
)

const (
	// HeaderHeight is the nav bar height; the page body starts below it.
	HeaderHeight = 1
	// MinWidth is the narrowest page Build accepts.
	MinWidth = 24
)

// Block is a placed region.
type Block struct {
	Region report.Region
	Rect   viewport.Rect
	Lines  []string // wrapped body text, without title and metrics
	QR     [][]bool // footer link bitmap, nil when the region has no link
}

// Inner returns the content area inside the block border.
func (b Block) Inner() viewport.Rect {
	return viewport.Rect{X: b.Rect.X + 1, Y: b.Rect.Y + 1, W: max(b.Rect.W-2, 0), H: max(b.Rect.H-2, 0)}
}

// Page is a laid out report.
type Page struct {
	Report *report.Report
	Width  int
	Height int
	Blocks []Block

	sections map[string]int
	index    map[string]int
}

// Layout holds the spacing rules.
type Layout struct {
	Width  int
	Gap    int // columns between side-by-side blocks
	Margin int // empty rows between rows of blocks
}

// NewLayout creates a layout with default spacing
func NewLayout(width int) *Layout {
	return &Layout{
		Width:  max(width, MinWidth),
		Gap:    1,
		Margin: 1,
	}
}

// Build lays out r at the given width with default spacing.
func Build(r *report.Report, width int) *Page {
	return NewLayout(width).Build(r)
}

// Build places regions in report order. Consecutive regions sharing a
// non-empty group form one row and split the width evenly.
func (l *Layout) Build(r *report.Report) *Page {
	p := &Page{
		Report:   r,
		Width:    l.Width,
		sections: make(map[string]int),
		index:    make(map[string]int),
	}

	y := HeaderHeight
	for _, row := range groupRows(r.Regions) {
		cols := len(row)
		colWidth := (l.Width - l.Gap*(cols-1)) / cols
		if colWidth < MinWidth/2 {
			// too narrow to share a row, stack instead
			for _, reg := range row {
				y = l.place(p, []report.Region{reg}, l.Width, y)
			}
			continue
		}
		y = l.place(p, row, colWidth, y)
	}
	p.Height = y
	return p
}

// place lays out one row of regions and returns the y of the next row.
func (l *Layout) place(p *Page, row []report.Region, colWidth, y int) int {
	blocks := make([]Block, len(row))
	rowHeight := 0
	for i, reg := range row {
		b := l.block(reg, colWidth)
		b.Rect.X = i * (colWidth + l.Gap)
		b.Rect.Y = y
		blocks[i] = b
		rowHeight = max(rowHeight, b.Rect.H)
	}
	for i := range blocks {
		// a row shares one height so side-by-side cards line up
		blocks[i].Rect.H = rowHeight
		reg := blocks[i].Region
		if reg.Section != "" {
			if _, ok := p.sections[reg.Section]; !ok {
				p.sections[reg.Section] = y
			}
		}
		p.index[reg.ID] = len(p.Blocks)
		p.Blocks = append(p.Blocks, blocks[i])
	}
	return y + rowHeight + l.Margin
}

func (l *Layout) block(reg report.Region, width int) Block {
	inner := max(width-2, 1)
	b := Block{Region: reg, Lines: Wrap(reg.Lines, inner)}

	h := len(b.Lines)
	if reg.Title != "" {
		h++
	}
	switch reg.Kind {
	case report.KindMetric:
		for _, m := range reg.Metrics {
			h += 2 // value, label
			if m.Note != "" {
				h++
			}
		}
	case report.KindBars:
		h += len(reg.Bars)
	case report.KindTrend:
		h += len(reg.Series) + 1 // header row with labels
	case report.KindFooter:
		if reg.Link != "" {
			if qr, err := QRBitmap(reg.Link); err == nil {
				b.QR = qr
				h += (len(qr) + 1) / 2
			}
		}
	}
	b.Rect = viewport.Rect{W: width, H: max(h, 1) + 2}
	return b
}

// groupRows splits regions into rows; a row is a run of consecutive regions
// with the same non-empty group.
func groupRows(regions []report.Region) [][]report.Region {
	var rows [][]report.Region
	for i := 0; i < len(regions); {
		j := i + 1
		if g := regions[i].Group; g != "" {
			for j < len(regions) && regions[j].Group == g {
				j++
			}
		}
		rows = append(rows, regions[i:j])
		i = j
	}
	return rows
}

// Block returns the placed block of a region.
func (p *Page) Block(id string) (Block, bool) {
	i, ok := p.index[id]
	if !ok {
		return Block{}, false
	}
	return p.Blocks[i], true
}

// Section returns the y of the first row of a section.
func (p *Page) Section(name string) (int, bool) {
	y, ok := p.sections[name]
	return y, ok
}

// Visibility reports, for every block, whether it intersects v by at least
// threshold of its height.
func (p *Page) Visibility(v viewport.Viewport, threshold float64) map[string]bool {
	out := make(map[string]bool, len(p.Blocks))
	for _, b := range p.Blocks {
		out[b.Region.ID] = v.Intersects(b.Rect, threshold)
	}
	return out
}

// QRBitmap encodes link at low recovery without the quiet zone border.
func QRBitmap(link string) ([][]bool, error) {
	q, err := qrcode.New(link, qrcode.Low)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}

// Wrap breaks lines into rows of at most width display cells.
func Wrap(lines []string, width int) []string {
	if width <= 0 {
		return nil
	}
	var out []string
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for runewidth.StringWidth(w) > width {
				// a single word wider than the row is hard split
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				head := runewidth.Truncate(w, width, "")
				if head == "" {
					head = string([]rune(w)[:1])
				}
				out = append(out, head)
				w = w[len(head):]
			}
			switch {
			case w == "":
			case cur == "":
				cur = w
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(w) <= width:
				cur += " " + w
			default:
				out = append(out, cur)
				cur = w
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return out
}
