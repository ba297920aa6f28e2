// Package director plans unattended scroll tours through a laid out report.
package director

import (
	"fmt"

	"github.com/ivlev/pulsedeck/internal/layout"
	"github.com/ivlev/pulsedeck/internal/viewport"
)

// Director generates scroll tours from a laid out page
type Director struct {
	ViewportHeight int
	MinDwell       float64 // Minimum time per stop (seconds)
	MaxDwell       float64 // Maximum time per stop (seconds)
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportHeight int) *Director {
	return &Director{
		ViewportHeight: viewportHeight,
		MinDwell:       2.5,
		MaxDwell:       6.0,
	}
}

// GenerateTour creates a tour that visits every section of the page. Pages
// without sections are toured row by row.
func (d *Director) GenerateTour(page *layout.Page, totalDuration float64) (*Tour, error) {
	if page == nil || len(page.Blocks) == 0 {
		return nil, fmt.Errorf("нет регионов для тура")
	}

	targets := d.collectTargets(page)
	dwellTime := d.calculateDwellTime(totalDuration, len(targets))
	stops := d.generateStops(page, targets, dwellTime)

	last := stops[len(stops)-1].Time
	tour := &Tour{
		Version:  "1.0",
		Height:   d.ViewportHeight,
		Duration: last,
		Stops:    stops,
	}
	if page.Report != nil {
		tour.Report = page.Report.Title
	}
	return tour, nil
}

type target struct {
	focus string
	y     int
}

// collectTargets returns the anchor rows to visit, top to bottom
func (d *Director) collectTargets(page *layout.Page) []target {
	var targets []target
	seen := make(map[string]bool)
	for _, b := range page.Blocks {
		s := b.Region.Section
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		y, _ := page.Section(s)
		targets = append(targets, target{focus: s, y: y})
	}
	if len(targets) > 0 {
		return targets
	}

	lastY := -1
	for _, b := range page.Blocks {
		if b.Rect.Y != lastY {
			targets = append(targets, target{focus: b.Region.ID, y: b.Rect.Y})
			lastY = b.Rect.Y
		}
	}
	return targets
}

// calculateDwellTime determines how long to stay at each stop
func (d *Director) calculateDwellTime(totalDuration float64, stopCount int) float64 {
	// Reserve time for the opening view
	introDuration := 1.0
	availableDuration := totalDuration - introDuration

	if availableDuration <= 0 {
		availableDuration = totalDuration
	}

	dwellTime := availableDuration / float64(stopCount)

	if dwellTime < d.MinDwell {
		dwellTime = d.MinDwell
	}
	if dwellTime > d.MaxDwell {
		dwellTime = d.MaxDwell
	}

	return dwellTime
}

// generateStops creates a stop per target; consecutive targets that clamp
// to the same offset collapse into one stop.
func (d *Director) generateStops(page *layout.Page, targets []target, dwellTime float64) []Stop {
	view := viewport.Viewport{Height: d.ViewportHeight}

	stops := []Stop{{Time: 0, Focus: "top", Top: 0}}
	currentTime := 1.0

	for _, t := range targets {
		// keep the nav bar clear of the section's first row
		top := view.Clamp(t.y-layout.HeaderHeight, page.Height)
		if top == stops[len(stops)-1].Top {
			continue
		}
		stops = append(stops, Stop{Time: currentTime, Focus: t.focus, Top: top})
		currentTime += dwellTime
	}

	bottom := view.Clamp(page.Height, page.Height)
	if bottom != stops[len(stops)-1].Top {
		stops = append(stops, Stop{Time: currentTime, Focus: "bottom", Top: bottom})
		currentTime += dwellTime
	}

	// hold the final view for one dwell before the tour ends
	final := stops[len(stops)-1]
	final.Time = currentTime
	stops = append(stops, final)
	return stops
}
