package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a single-goroutine event loop. Tasks posted to it and ticks of its
// timers execute one at a time on the goroutine calling Run.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop with the given task queue capacity.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is cancelled. Tasks still queued when
// the loop exits are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post enqueues fn. It reports false if the loop has already stopped.
// Post blocks while the queue is full, so tasks must not post in bulk
// from inside the loop.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Every implements Scheduler. Ticks are coalesced: while one tick is queued
// on the loop, further ticks of the same timer are skipped.
func (l *Loop) Every(period time.Duration, fn func()) Timer {
	if period <= 0 || fn == nil {
		return nopTimer{}
	}
	t := &loopTimer{
		loop: l,
		fn:   fn,
		quit: make(chan struct{}),
	}
	go t.run(period)
	return t
}

type loopTimer struct {
	loop    *Loop
	fn      func()
	stopped atomic.Bool
	pending atomic.Bool
	quit    chan struct{}
	once    sync.Once
}

func (t *loopTimer) run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return
		case <-t.loop.done:
			return
		case <-ticker.C:
			if !t.pending.CompareAndSwap(false, true) {
				continue
			}
			if !t.loop.Post(t.fire) {
				return
			}
		}
	}
}

// fire runs on the loop goroutine, so a Stop issued from another task is
// always observed here.
func (t *loopTimer) fire() {
	t.pending.Store(false)
	if t.stopped.Load() {
		return
	}
	t.fn()
}

func (t *loopTimer) Stop() {
	t.stopped.Store(true)
	t.once.Do(func() { close(t.quit) })
}
