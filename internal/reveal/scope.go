package reveal

import (
	"errors"
	"log"
	"time"

	"github.com/ivlev/pulsedeck/internal/animator"
	"github.com/ivlev/pulsedeck/internal/clock"
	"github.com/ivlev/pulsedeck/internal/viewport"
)

// Trigger selects when a region's animation starts.
type Trigger int

const (
	// OnVisible waits for the first visibility signal.
	OnVisible Trigger = iota
	// OnMount starts as soon as the scope is mounted.
	OnMount
)

// Region is a page region handed to Scope.Mount.
type Region struct {
	ID      string
	Targets animator.Targets
	Trigger Trigger
}

// Options configures a Scope.
type Options struct {
	Steps           int
	Duration        time.Duration
	Easing          animator.Easing
	ScrollThreshold float64
	Logger          *log.Logger
}

// Scope owns the reveal state of one mounted page: its animator, gate and
// scroll flag. Create it on mount and Dispose it on unmount.
type Scope struct {
	Animator *animator.Animator
	Gate     *Gate
	Scroll   viewport.ScrollFlag

	scrolled bool
	mounted  bool
	disposed bool
}

// NewScope builds a scope whose animations run on sched.
func NewScope(sched clock.Scheduler, opts Options) *Scope {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	threshold := opts.ScrollThreshold
	if threshold <= 0 {
		threshold = viewport.DefaultScrollThreshold
	}

	anim := animator.New(sched, animator.WithSteps(opts.Steps), animator.WithEasing(opts.Easing))
	return &Scope{
		Animator: anim,
		Gate:     NewGate(anim, WithDuration(duration), WithLogger(logger)),
		Scroll:   viewport.ScrollFlag{Threshold: threshold},
	}
}

// Mount binds every region with targets and starts the OnMount ones.
// Regions that fail to bind are reported in the returned error and left
// without animation; the rest of the page still mounts.
func (s *Scope) Mount(regions []Region) error {
	if s.disposed || s.mounted {
		return nil
	}
	s.mounted = true

	var errs []error
	for _, r := range regions {
		if len(r.Targets) == 0 {
			continue
		}
		if err := s.Gate.Bind(r.ID, r.Targets); err != nil {
			errs = append(errs, err)
		}
	}
	for _, r := range regions {
		if r.Trigger == OnMount {
			s.Gate.Start(r.ID)
		}
	}
	return errors.Join(errs...)
}

// Observe forwards a visibility signal to the gate.
func (s *Scope) Observe(id string, visible bool) bool {
	if s.disposed {
		return false
	}
	return s.Gate.Observe(id, visible)
}

// ScrollTo updates the scrolled flag from a scroll position and returns it.
func (s *Scope) ScrollTo(position float64) bool {
	if s.disposed {
		return s.scrolled
	}
	s.scrolled = s.Scroll.Update(position)
	return s.scrolled
}

// Scrolled returns the flag computed by the last ScrollTo.
func (s *Scope) Scrolled() bool { return s.scrolled }

// Disposed reports whether Dispose has run.
func (s *Scope) Disposed() bool { return s.disposed }

// Dispose stops every timer owned by the scope.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.Gate.Dispose()
	s.Animator.Dispose()
}
