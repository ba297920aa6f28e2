package animator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tanema/gween/ease"
)

// Only curves that never move backwards are offered; back, elastic and
// bounce would break the monotonic count-up.
var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"in-expo":      ease.InExpo,
	"out-expo":     ease.OutExpo,
}

// Easing maps a step to animation progress in [0, 1]. The zero value is
// exact linear progress step/total.
type Easing struct {
	name string
	fn   ease.TweenFunc
}

// ParseEasing looks up a named curve. An empty name and "linear" select the
// exact step/total default.
func ParseEasing(name string) (Easing, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "linear" {
		return Easing{}, nil
	}
	fn, ok := easings[name]
	if !ok {
		return Easing{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownEasing, name, strings.Join(EasingNames(), ", "))
	}
	return Easing{name: name, fn: fn}, nil
}

// EasingNames lists the accepted curve names.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (e Easing) String() string {
	if e.name == "" {
		return "linear"
	}
	return e.name
}

// Progress returns the clamped progress for step of total.
func (e Easing) Progress(step, total int) float64 {
	if total <= 0 {
		return 1
	}
	var p float64
	if e.fn == nil {
		p = float64(step) / float64(total)
	} else {
		p = float64(e.fn(float32(step), 0, 1, float32(total)))
	}
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
