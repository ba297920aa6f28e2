package animator

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidTarget   = errors.New("animator: invalid target")
	ErrInvalidFormat   = errors.New("animator: invalid format")
	ErrInvalidDuration = errors.New("animator: invalid duration")
	ErrUnknownEasing   = errors.New("animator: unknown easing")
)

// MaxDecimals is the largest number of decimal places a Fixed format accepts.
const MaxDecimals = 2

// Rounding selects how intermediate values are quantized.
type Rounding int

const (
	// Floor truncates to an integer.
	Floor Rounding = iota
	// Fixed rounds to Format.Decimals places.
	Fixed
)

func (r Rounding) String() string {
	switch r {
	case Floor:
		return "floor"
	case Fixed:
		return "fixed"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

// ParseRounding accepts "floor" (or "int", or empty) and "fixed".
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "floor", "int":
		return Floor, nil
	case "fixed":
		return Fixed, nil
	default:
		return Floor, fmt.Errorf("%w: unknown rounding %q", ErrInvalidFormat, s)
	}
}

// Format is the per-metric quantization rule.
type Format struct {
	Rounding Rounding
	Decimals int
}

// Integer is the floor-to-integer format.
var Integer = Format{Rounding: Floor}

// Decimal returns a fixed-decimal format with the given places.
func Decimal(places int) Format {
	return Format{Rounding: Fixed, Decimals: places}
}

// Apply quantizes v.
func (f Format) Apply(v float64) float64 {
	if f.Rounding == Fixed {
		p := math.Pow10(f.Decimals)
		return math.Round(v*p) / p
	}
	return math.Floor(v)
}

func (f Format) validate() error {
	if f.Rounding != Floor && f.Rounding != Fixed {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, f.Rounding)
	}
	if f.Decimals < 0 || f.Decimals > MaxDecimals {
		return fmt.Errorf("%w: %d decimals (allowed 0..%d)", ErrInvalidFormat, f.Decimals, MaxDecimals)
	}
	return nil
}

// Metric is one named value an animation converges to.
type Metric struct {
	Name   string
	Target float64
	Format Format
}

// Targets is the ordered target mapping of a single animation.
type Targets []Metric

// Validate checks names are present and unique, targets finite and formats
// within range.
func (t Targets) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no metrics", ErrInvalidTarget)
	}
	seen := make(map[string]struct{}, len(t))
	for _, m := range t {
		if m.Name == "" {
			return fmt.Errorf("%w: empty metric name", ErrInvalidTarget)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%w: duplicate metric %q", ErrInvalidTarget, m.Name)
		}
		seen[m.Name] = struct{}{}
		if math.IsNaN(m.Target) || math.IsInf(m.Target, 0) {
			return fmt.Errorf("%w: %q is not finite", ErrInvalidTarget, m.Name)
		}
		if err := m.Format.validate(); err != nil {
			return fmt.Errorf("metric %q: %w", m.Name, err)
		}
	}
	return nil
}

// Values returns the exact declared targets.
func (t Targets) Values() Values {
	v := make(Values, len(t))
	for _, m := range t {
		v[m.Name] = m.Target
	}
	return v
}

func (t Targets) zero() Values {
	v := make(Values, len(t))
	for _, m := range t {
		v[m.Name] = 0
	}
	return v
}

// Values maps metric names to display values.
type Values map[string]float64

// Clone returns an independent copy.
func (v Values) Clone() Values {
	c := make(Values, len(v))
	for k, x := range v {
		c[k] = x
	}
	return c
}

// Frame is the read-only snapshot emitted after every step.
type Frame struct {
	Step   int
	Total  int
	Values Values
	Final  bool
}
