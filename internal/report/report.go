// Package report holds the literal data tables of a presentation page and
// the display rules applied to animated values.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/pulsedeck/internal/animator"
)

var ErrInvalidReport = errors.New("report: invalid")

// Kind is the visual form of a region.
type Kind string

const (
	KindMetric Kind = "metric"
	KindText   Kind = "text"
	KindBars   Kind = "bars"
	KindTrend  Kind = "trend"
	KindFooter Kind = "footer"
)

// Triggers accepted in Region.Trigger.
const (
	TriggerVisible = "visible"
	TriggerMount   = "mount"
)

// Report is a complete presentation page
type Report struct {
	Version  string    `yaml:"version"`
	Title    string    `yaml:"title"`
	Subtitle string    `yaml:"subtitle,omitempty"`
	Nav      []NavItem `yaml:"nav,omitempty"`
	Regions  []Region  `yaml:"regions"`
}

// NavItem is a navigation entry that scrolls to the first region of Section
type NavItem struct {
	Label   string `yaml:"label"`
	Section string `yaml:"section"`
}

// Region is a named block of the page that is revealed on first view
type Region struct {
	ID      string   `yaml:"id"`
	Section string   `yaml:"section,omitempty"`
	Group   string   `yaml:"group,omitempty"` // consecutive regions of one group share a row
	Kind    Kind     `yaml:"kind"`
	Title   string   `yaml:"title,omitempty"`
	Trigger string   `yaml:"trigger,omitempty"` // "visible" (default) or "mount"
	Lines   []string `yaml:"lines,omitempty"`
	Metrics []Metric `yaml:"metrics,omitempty"`
	Bars    []Bar    `yaml:"bars,omitempty"`
	Scale   *Scale   `yaml:"scale,omitempty"`
	Labels  []string `yaml:"labels,omitempty"`
	Series  []Series `yaml:"series,omitempty"`
	Link    string   `yaml:"link,omitempty"`
}

// Metric is an animated number on a card
type Metric struct {
	Name       string  `yaml:"name"`
	Label      string  `yaml:"label,omitempty"`
	Target     float64 `yaml:"target"`
	Rounding   string  `yaml:"rounding,omitempty"` // "floor" (default) or "fixed"
	Decimals   int     `yaml:"decimals,omitempty"`
	Prefix     string  `yaml:"prefix,omitempty"`
	Suffix     string  `yaml:"suffix,omitempty"`
	RangeStart float64 `yaml:"range_start,omitempty"` // values above it print as "start-value"
	Note       string  `yaml:"note,omitempty"`
}

// Bar is one bar of a bar chart
type Bar struct {
	Label string  `yaml:"label"`
	Value float64 `yaml:"value"`
}

// Scale is the value domain drawn by a chart
type Scale struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Series is one line of a trend chart, one value per label
type Series struct {
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values"`
}

// OnMount reports whether the region animates as soon as the page mounts.
func (r Region) OnMount() bool {
	return strings.EqualFold(r.Trigger, TriggerMount)
}

// Format returns the animator format of m.
func (m Metric) Format() (animator.Format, error) {
	rounding, err := animator.ParseRounding(m.Rounding)
	if err != nil {
		return animator.Format{}, err
	}
	return animator.Format{Rounding: rounding, Decimals: m.Decimals}, nil
}

// Targets converts the region's metrics into an animation target mapping.
// A region without metrics yields nil.
func (r Region) Targets() (animator.Targets, error) {
	if len(r.Metrics) == 0 {
		return nil, nil
	}
	targets := make(animator.Targets, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		f, err := m.Format()
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Name, err)
		}
		targets = append(targets, animator.Metric{Name: m.Name, Target: m.Target, Format: f})
	}
	if err := targets.Validate(); err != nil {
		return nil, err
	}
	return targets, nil
}

// FormatValue renders an animated value the way the page shows it,
// including the "start-value" range decoration.
func FormatValue(m Metric, v float64) string {
	s := formatNumber(v, m.Decimals)
	if m.RangeStart > 0 && v > m.RangeStart {
		s = formatNumber(m.RangeStart, m.Decimals) + "-" + s
	}
	return m.Prefix + s + m.Suffix
}

func formatNumber(v float64, decimals int) string {
	f := animator.Decimal(decimals)
	if decimals < 0 || decimals > animator.MaxDecimals {
		f = animator.Decimal(animator.MaxDecimals)
	}
	v = f.Apply(v)
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Region returns the region with the given id.
func (r *Report) Region(id string) (Region, bool) {
	for _, reg := range r.Regions {
		if reg.ID == id {
			return reg, true
		}
	}
	return Region{}, false
}

// Validate checks ids, kinds, triggers, metric formats and chart shapes.
func (r *Report) Validate() error {
	if len(r.Regions) == 0 {
		return fmt.Errorf("%w: no regions", ErrInvalidReport)
	}

	ids := make(map[string]struct{}, len(r.Regions))
	sections := make(map[string]struct{})
	for i, reg := range r.Regions {
		if reg.ID == "" {
			return fmt.Errorf("%w: region %d has no id", ErrInvalidReport, i)
		}
		if _, dup := ids[reg.ID]; dup {
			return fmt.Errorf("%w: duplicate region %q", ErrInvalidReport, reg.ID)
		}
		ids[reg.ID] = struct{}{}
		if reg.Section != "" {
			sections[reg.Section] = struct{}{}
		}

		switch reg.Kind {
		case KindMetric, KindText, KindBars, KindTrend, KindFooter:
		default:
			return fmt.Errorf("%w: region %q has unknown kind %q", ErrInvalidReport, reg.ID, reg.Kind)
		}

		switch strings.ToLower(reg.Trigger) {
		case "", TriggerVisible, TriggerMount:
		default:
			return fmt.Errorf("%w: region %q has unknown trigger %q", ErrInvalidReport, reg.ID, reg.Trigger)
		}

		if _, err := reg.Targets(); err != nil {
			return fmt.Errorf("%w: region %q: %v", ErrInvalidReport, reg.ID, err)
		}
		if reg.Kind == KindMetric && len(reg.Metrics) == 0 {
			return fmt.Errorf("%w: metric region %q has no metrics", ErrInvalidReport, reg.ID)
		}
		if reg.Kind == KindBars && len(reg.Bars) == 0 {
			return fmt.Errorf("%w: bar region %q has no bars", ErrInvalidReport, reg.ID)
		}
		if reg.Scale != nil && reg.Scale.Max <= reg.Scale.Min {
			return fmt.Errorf("%w: region %q has an empty scale", ErrInvalidReport, reg.ID)
		}
		for _, s := range reg.Series {
			if len(s.Values) != len(reg.Labels) {
				return fmt.Errorf("%w: series %q of %q has %d values for %d labels",
					ErrInvalidReport, s.Name, reg.ID, len(s.Values), len(reg.Labels))
			}
		}
	}

	for _, n := range r.Nav {
		if _, ok := sections[n.Section]; !ok {
			return fmt.Errorf("%w: nav %q points to unknown section %q", ErrInvalidReport, n.Label, n.Section)
		}
	}
	return nil
}
