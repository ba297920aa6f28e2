package director

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/pulsedeck/internal/layout"
	"github.com/ivlev/pulsedeck/internal/report"
)

func defaultPage(t *testing.T) *layout.Page {
	t.Helper()
	r, err := report.Default()
	if err != nil {
		t.Fatal(err)
	}
	return layout.Build(r, 100)
}

func TestDirector(t *testing.T) {
	page := defaultPage(t)
	director := NewDirector(24)

	tour, err := director.GenerateTour(page, 30.0)
	if err != nil {
		t.Fatalf("GenerateTour failed: %v", err)
	}

	if tour.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", tour.Version)
	}
	if tour.Report != "MyPulse 9.0" {
		t.Errorf("Expected report title, got %q", tour.Report)
	}

	// top + insights, analysis, recommendations, roadmap, next-steps + bottom hold
	if len(tour.Stops) < 6 {
		t.Fatalf("Expected at least 6 stops, got %d", len(tour.Stops))
	}

	for i := 1; i < len(tour.Stops); i++ {
		prev, cur := tour.Stops[i-1], tour.Stops[i]
		if cur.Time <= prev.Time {
			t.Errorf("Stop %d: time %.1f is not after %.1f", i, cur.Time, prev.Time)
		}
		if cur.Top < prev.Top {
			t.Errorf("Stop %d scrolls back up: %d < %d", i, cur.Top, prev.Top)
		}
		if cur.Top > page.Height-24 {
			t.Errorf("Stop %d scrolls past the page end: %d", i, cur.Top)
		}
	}
	if tour.Duration != tour.Stops[len(tour.Stops)-1].Time {
		t.Errorf("Duration %.1f does not match the last stop", tour.Duration)
	}

	for i, s := range tour.Stops {
		t.Logf("Stop %d: time=%.1fs, focus=%s, top=%d", i, s.Time, s.Focus, s.Top)
	}
}

func TestDwellIsClamped(t *testing.T) {
	d := NewDirector(24)

	if got := d.calculateDwellTime(1000, 2); got != d.MaxDwell {
		t.Errorf("Expected max dwell %.1f, got %.1f", d.MaxDwell, got)
	}
	if got := d.calculateDwellTime(1, 10); got != d.MinDwell {
		t.Errorf("Expected min dwell %.1f, got %.1f", d.MinDwell, got)
	}
}

func TestPageWithoutSections(t *testing.T) {
	r := &report.Report{Regions: []report.Region{
		{ID: "a", Kind: report.KindText, Lines: make([]string, 20)},
		{ID: "b", Kind: report.KindText, Lines: make([]string, 20)},
	}}
	tour, err := NewDirector(10).GenerateTour(layout.Build(r, 40), 10)
	if err != nil {
		t.Fatal(err)
	}
	if tour.Stops[1].Focus != "b" {
		t.Errorf("Expected the second row as first stop, got %q", tour.Stops[1].Focus)
	}
}

func TestEmptyPage(t *testing.T) {
	if _, err := NewDirector(10).GenerateTour(layout.Build(&report.Report{}, 40), 10); err == nil {
		t.Error("Expected error for an empty page")
	}
}

func TestTourPosition(t *testing.T) {
	tour := &Tour{Stops: []Stop{
		{Time: 0, Top: 0},
		{Time: 2, Top: 100},
		{Time: 4, Top: 100},
	}}

	tests := []struct {
		time float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{1, 50},
		{2, 100},
		{3, 100},
		{10, 100},
	}
	for _, tt := range tests {
		if got := tour.Position(tt.time); abs(got-tt.want) > 0.01 {
			t.Errorf("Position(%.1f) = %.2f, want %.2f", tt.time, got, tt.want)
		}
	}

	if p := tour.Position(0.5); p <= 0 || p >= 50 {
		t.Errorf("Expected eased start below the midpoint, got %.2f", p)
	}
	if tour.Done(3.9) || !tour.Done(4) {
		t.Error("Done should flip at the last stop")
	}
}

func TestTourWriteRead(t *testing.T) {
	tour := &Tour{
		Version:  "1.0",
		Report:   "MyPulse 9.0",
		Height:   24,
		Duration: 5.0,
		Stops: []Stop{
			{Time: 0.0, Focus: "top", Top: 0},
			{Time: 2.5, Focus: "insights", Top: 17},
		},
	}

	path := GenerateTourPath(t.TempDir())
	if !strings.HasPrefix(filepath.Base(path), "tour_") {
		t.Errorf("Unexpected tour path %s", path)
	}

	if err := WriteTour(tour, path); err != nil {
		t.Fatalf("WriteTour failed: %v", err)
	}

	read, err := ReadTour(path)
	if err != nil {
		t.Fatalf("ReadTour failed: %v", err)
	}
	if read.Version != tour.Version || len(read.Stops) != len(tour.Stops) {
		t.Errorf("Tour mismatch: %+v", read)
	}
	if read.Stops[1].Top != 17 {
		t.Errorf("Expected top 17, got %d", read.Stops[1].Top)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
