package layout

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/ivlev/pulsedeck/internal/report"
	"github.com/ivlev/pulsedeck/internal/viewport"
)

func defaultPage(t *testing.T, width int) *Page {
	t.Helper()
	r, err := report.Default()
	if err != nil {
		t.Fatal(err)
	}
	return Build(r, width)
}

func TestBuildPlacesEveryRegion(t *testing.T) {
	p := defaultPage(t, 100)

	if len(p.Blocks) != len(p.Report.Regions) {
		t.Fatalf("Expected %d blocks, got %d", len(p.Report.Regions), len(p.Blocks))
	}
	for i, b := range p.Blocks {
		if b.Region.ID != p.Report.Regions[i].ID {
			t.Errorf("Block %d: expected %s, got %s", i, p.Report.Regions[i].ID, b.Region.ID)
		}
		if b.Rect.H < 3 {
			t.Errorf("%s: height %d is too small", b.Region.ID, b.Rect.H)
		}
		if b.Rect.X+b.Rect.W > p.Width {
			t.Errorf("%s overflows the page: %+v", b.Region.ID, b.Rect)
		}
		if b.Rect.Bottom() > p.Height {
			t.Errorf("%s ends below the page", b.Region.ID)
		}
	}
	if p.Blocks[0].Rect.Y != HeaderHeight {
		t.Errorf("First row should start below the header, got %d", p.Blocks[0].Rect.Y)
	}
}

func TestGroupsShareARow(t *testing.T) {
	p := defaultPage(t, 100)

	var cards []Block
	for _, id := range []string{"metric-card-1", "metric-card-2", "metric-card-3", "metric-card-4"} {
		b, ok := p.Block(id)
		if !ok {
			t.Fatalf("%s not placed", id)
		}
		cards = append(cards, b)
	}
	for i := 1; i < len(cards); i++ {
		if cards[i].Rect.Y != cards[0].Rect.Y || cards[i].Rect.H != cards[0].Rect.H {
			t.Errorf("Card %d not aligned: %+v vs %+v", i+1, cards[i].Rect, cards[0].Rect)
		}
		if cards[i].Rect.X <= cards[i-1].Rect.X {
			t.Errorf("Card %d should be right of card %d", i+1, i)
		}
	}

	trend, _ := p.Block("trend-chart")
	bu, _ := p.Block("bu-performance-chart")
	if bu.Rect.Y <= trend.Rect.Y {
		t.Error("Ungrouped regions should stack")
	}
}

func TestNarrowPageStacksGroups(t *testing.T) {
	p := defaultPage(t, MinWidth)

	a, _ := p.Block("metric-card-1")
	b, _ := p.Block("metric-card-2")
	if b.Rect.Y <= a.Rect.Y {
		t.Errorf("Expected stacked cards on a narrow page, got %+v and %+v", a.Rect, b.Rect)
	}
	if a.Rect.W != MinWidth {
		t.Errorf("Stacked card should take the full width, got %d", a.Rect.W)
	}
}

func TestSections(t *testing.T) {
	p := defaultPage(t, 100)

	prev := -1
	for _, n := range p.Report.Nav {
		y, ok := p.Section(n.Section)
		if !ok {
			t.Fatalf("Section %s has no anchor", n.Section)
		}
		if y <= prev {
			t.Errorf("Section %s at %d is not below the previous one at %d", n.Section, y, prev)
		}
		prev = y
	}
	if _, ok := p.Section("missing"); ok {
		t.Error("Unknown section should not resolve")
	}
}

func TestVisibility(t *testing.T) {
	p := defaultPage(t, 100)

	vis := p.Visibility(viewport.Viewport{Top: 0, Height: 20}, viewport.DefaultVisibility)
	if !vis["metric-card-1"] {
		t.Error("Hero cards should be visible at the top")
	}
	if vis["roi-card"] {
		t.Error("ROI card should be below the fold")
	}

	roi, _ := p.Block("roi-card")
	vis = p.Visibility(viewport.Viewport{Top: roi.Rect.Y, Height: 20}, viewport.DefaultVisibility)
	if !vis["roi-card"] {
		t.Error("ROI card should be visible once scrolled to")
	}
}

func TestFooterQR(t *testing.T) {
	r := &report.Report{Regions: []report.Region{
		{ID: "footer", Kind: report.KindFooter, Title: "MyPulse 9.0", Link: "https://example.com/mypulse"},
	}}
	p := Build(r, 60)

	b := p.Blocks[0]
	if len(b.QR) == 0 {
		t.Fatal("Expected a QR bitmap")
	}
	want := 2 + 1 + (len(b.QR)+1)/2
	if b.Rect.H != want {
		t.Errorf("Expected height %d, got %d", want, b.Rect.H)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		width int
		want  []string
	}{
		{"fits", []string{"Career Growth"}, 20, []string{"Career Growth"}},
		{"breaks on words", []string{"Career Pathing Program"}, 14, []string{"Career Pathing", "Program"}},
		{"empty line kept", []string{""}, 10, []string{""}},
		{"long word split", []string{"abcdefgh"}, 3, []string{"abc", "def", "gh"}},
		{"zero width", []string{"x"}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.lines, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Wrap() = %q, want %q", got, tt.want)
			}
			for _, row := range got {
				if runewidth.StringWidth(row) > tt.width {
					t.Errorf("Row %q exceeds width %d", row, tt.width)
				}
			}
		})
	}
}
