package clock

import "time"

// Manual is a logical clock. Time only moves when Advance or Step is called,
// and due callbacks run synchronously on the caller's goroutine.
// Manual is not safe for concurrent use.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	period  time.Duration
	next    time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() { t.stopped = true }

// NewManual returns a clock positioned at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the logical time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Every implements Scheduler.
func (m *Manual) Every(period time.Duration, fn func()) Timer {
	if period <= 0 || fn == nil {
		return nopTimer{}
	}
	m.seq++
	t := &manualTimer{
		period: period,
		next:   m.now + period,
		seq:    m.seq,
		fn:     fn,
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every tick that falls due on
// the way in deadline order. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := m.now + d
	fired := 0
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next += t.period
		t.fn()
		fired++
	}
	m.now = target
	return fired
}

// Step jumps to the next deadline and fires that single tick. It reports
// false when no timer is active.
func (m *Manual) Step() bool {
	t := m.nextDue(-1)
	if t == nil {
		return false
	}
	if t.next > m.now {
		m.now = t.next
	}
	t.next += t.period
	t.fn()
	return true
}

// Pending returns the number of timers that have not been stopped.
func (m *Manual) Pending() int {
	m.prune()
	return len(m.timers)
}

// nextDue picks the earliest active timer due at or before limit. A negative
// limit means no limit.
func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	m.prune()
	var best *manualTimer
	for _, t := range m.timers {
		if limit >= 0 && t.next > limit {
			continue
		}
		if best == nil || t.next < best.next || (t.next == best.next && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) prune() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(m.timers); i++ {
		m.timers[i] = nil
	}
	m.timers = kept
}
