package director

import (
	"github.com/tanema/gween/ease"
)

// Tour is an unattended scroll path through a laid out report
type Tour struct {
	Version  string  `yaml:"version"`
	Report   string  `yaml:"report"`
	Height   int     `yaml:"height"`   // viewport rows the tour was generated for
	Duration float64 `yaml:"duration"` // Total duration in seconds
	Stops    []Stop  `yaml:"stops"`
}

// Stop is a scroll offset the tour reaches at a specific time
type Stop struct {
	Time  float64 `yaml:"time"`  // Time offset in seconds
	Focus string  `yaml:"focus"` // Section or region in view
	Top   int     `yaml:"top"`   // Viewport top row
}

// Position returns the scroll offset at currentTime, easing between stops
func (t *Tour) Position(currentTime float64) float64 {
	stops := t.Stops
	if len(stops) == 0 {
		return 0
	}

	if currentTime <= stops[0].Time {
		return float64(stops[0].Top)
	}
	last := stops[len(stops)-1]
	if currentTime >= last.Time {
		return float64(last.Top)
	}

	var prev, next Stop
	for i := 0; i < len(stops)-1; i++ {
		if currentTime >= stops[i].Time && currentTime < stops[i+1].Time {
			prev = stops[i]
			next = stops[i+1]
			break
		}
	}

	timeDelta := float32(next.Time - prev.Time)
	if timeDelta == 0 {
		return float64(next.Top)
	}
	elapsed := float32(currentTime - prev.Time)

	// smooth in-out between the two offsets
	return float64(ease.InOutCubic(elapsed, float32(prev.Top), float32(next.Top-prev.Top), timeDelta))
}

// Done reports whether currentTime is past the last stop
func (t *Tour) Done(currentTime float64) bool {
	return len(t.Stops) == 0 || currentTime >= t.Stops[len(t.Stops)-1].Time
}
