// Package animator implements the count-up tween: a target mapping is
// approached in a fixed number of equal time slices and settles exactly on
// the declared values.
package animator

import (
	"fmt"
	"time"

	"github.com/ivlev/pulsedeck/internal/clock"
)

// DefaultSteps is the number of ticks an animation is divided into.
const DefaultSteps = 60

// State is the lifecycle position of an animation.
type State int

const (
	Untriggered State = iota
	Animating
	Settled
	Cancelled
)

func (s State) String() string {
	switch s {
	case Untriggered:
		return "untriggered"
	case Animating:
		return "animating"
	case Settled:
		return "settled"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures an Animator.
type Option func(*Animator)

// WithSteps overrides DefaultSteps. Values below 1 are ignored.
func WithSteps(n int) Option {
	return func(a *Animator) {
		if n > 0 {
			a.steps = n
		}
	}
}

// WithEasing replaces linear progress with a named curve.
func WithEasing(e Easing) Option {
	return func(a *Animator) { a.easing = e }
}

// Animator starts animations on a Scheduler. It is not safe for concurrent
// use: Start, Cancel, Dispose and every Handle method must be called from
// the goroutine that runs the scheduler's callbacks.
type Animator struct {
	sched  clock.Scheduler
	steps  int
	easing Easing
	live   map[*Handle]struct{}
}

// New creates an Animator. A nil scheduler never fires, so animations started
// on it stay at zero.
func New(sched clock.Scheduler, opts ...Option) *Animator {
	if sched == nil {
		sched = clock.Nop
	}
	a := &Animator{
		sched: sched,
		steps: DefaultSteps,
		live:  make(map[*Handle]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Steps returns the number of ticks per animation.
func (a *Animator) Steps() int { return a.steps }

// Start begins animating towards targets over duration. The targets are
// copied; later changes to the slice do not affect the run.
func (a *Animator) Start(targets Targets, duration time.Duration) (*Handle, error) {
	if err := targets.Validate(); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}

	period := duration / time.Duration(a.steps)
	if period <= 0 {
		period = time.Nanosecond
	}

	h := &Handle{
		anim:    a,
		targets: append(Targets(nil), targets...),
		total:   a.steps,
		period:  period,
		state:   Animating,
		current: targets.zero(),
	}
	h.timer = a.sched.Every(period, h.tick)
	a.live[h] = struct{}{}
	return h, nil
}

// Cancel stops h. It is equivalent to h.Cancel.
func (a *Animator) Cancel(h *Handle) {
	if h != nil {
		h.Cancel()
	}
}

// Active returns the number of animations still in flight.
func (a *Animator) Active() int { return len(a.live) }

// Dispose cancels every in-flight animation.
func (a *Animator) Dispose() {
	for h := range a.live {
		h.Cancel()
	}
}

func (a *Animator) interpolate(targets Targets, progress float64) Values {
	v := make(Values, len(targets))
	for _, m := range targets {
		x := m.Format.Apply(m.Target * progress)
		// rounding up must never carry a value past its target
		if m.Target >= 0 && x > m.Target {
			x = m.Target
		} else if m.Target < 0 && x < m.Target {
			x = m.Target
		}
		v[m.Name] = x
	}
	return v
}

// Observer receives frames. Frame.Values is shared between observers and
// must not be modified.
type Observer func(Frame)

type subscription struct {
	fn     Observer
	active bool
}

// Handle is one running animation.
type Handle struct {
	anim     *Animator
	targets  Targets
	total    int
	period   time.Duration
	timer    clock.Timer
	state    State
	step     int
	progress float64
	current  Values
	subs     []*subscription
}

// Subscribe registers obs for the frames emitted from now on and returns a
// function that removes it.
func (h *Handle) Subscribe(obs Observer) (unsubscribe func()) {
	if obs == nil {
		return func() {}
	}
	s := &subscription{fn: obs, active: true}
	h.subs = append(h.subs, s)
	return func() {
		s.active = false
		h.compact()
	}
}

// Cancel stops the animation. No frame is emitted after Cancel returns.
// Cancelling a settled or cancelled animation does nothing.
func (h *Handle) Cancel() {
	if h.state != Animating {
		return
	}
	h.state = Cancelled
	h.finish()
}

// State returns the lifecycle position.
func (h *Handle) State() State { return h.state }

// Step returns the number of ticks emitted so far.
func (h *Handle) Step() int { return h.step }

// Period returns the time between ticks.
func (h *Handle) Period() time.Duration { return h.period }

// Snapshot returns a copy of the latest values.
func (h *Handle) Snapshot() Frame {
	return Frame{
		Step:   h.step,
		Total:  h.total,
		Values: h.current.Clone(),
		Final:  h.state == Settled,
	}
}

func (h *Handle) tick() {
	if h.state != Animating {
		return
	}
	h.step++

	final := h.step >= h.total
	var values Values
	if final {
		values = h.targets.Values()
		h.state = Settled
		h.finish()
	} else {
		p := h.anim.easing.Progress(h.step, h.total)
		if p < h.progress {
			p = h.progress
		}
		h.progress = p
		values = h.anim.interpolate(h.targets, p)
	}
	h.current = values

	frame := Frame{Step: h.step, Total: h.total, Values: values, Final: final}
	for _, s := range append([]*subscription(nil), h.subs...) {
		if h.state == Cancelled {
			return
		}
		if s.active {
			s.fn(frame)
		}
	}
}

func (h *Handle) finish() {
	if h.timer != nil {
		h.timer.Stop()
	}
	delete(h.anim.live, h)
}

func (h *Handle) compact() {
	kept := h.subs[:0]
	for _, s := range h.subs {
		if s.active {
			kept = append(kept, s)
		}
	}
	h.subs = kept
}
