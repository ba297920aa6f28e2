// Package reveal triggers one-shot count-up animations when page regions
// first become visible.
package reveal

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ivlev/pulsedeck/internal/animator"
)

// DefaultDuration is the length of a reveal animation.
const DefaultDuration = 2 * time.Second

var (
	ErrEmptyRegion  = errors.New("reveal: empty region id")
	ErrAlreadyBound = errors.New("reveal: region already triggered")
)

// Gate keeps the set of regions that have entered the viewport at least
// once and starts each bound region's animation the first time it does.
// Like the Animator it drives, a Gate is confined to the scheduler goroutine.
type Gate struct {
	anim     *animator.Animator
	duration time.Duration
	logger   *log.Logger

	bound   map[string]animator.Targets
	seen    map[string]struct{}
	order   []string
	handles map[string]*animator.Handle
	subs    map[string][]*regionSub

	disposed bool
}

type regionSub struct {
	obs    animator.Observer
	unsub  func()
	active bool
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithDuration sets the animation length used for every region.
func WithDuration(d time.Duration) GateOption {
	return func(g *Gate) { g.duration = d }
}

// WithLogger redirects start failures. The default is log.Default().
func WithLogger(l *log.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a gate starting animations on anim.
func NewGate(anim *animator.Animator, opts ...GateOption) *Gate {
	g := &Gate{
		anim:     anim,
		duration: DefaultDuration,
		logger:   log.Default(),
		bound:    make(map[string]animator.Targets),
		seen:     make(map[string]struct{}),
		handles:  make(map[string]*animator.Handle),
		subs:     make(map[string][]*regionSub),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Bind associates targets with a region. Binding may be replaced until the
// region's animation has started.
func (g *Gate) Bind(id string, targets animator.Targets) error {
	if id == "" {
		return ErrEmptyRegion
	}
	if _, started := g.handles[id]; started {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, id)
	}
	if err := targets.Validate(); err != nil {
		return fmt.Errorf("region %s: %w", id, err)
	}
	g.bound[id] = append(animator.Targets(nil), targets...)
	return nil
}

// Observe records a visibility signal. The first visible signal for id adds
// it to the revealed set for good and starts its animation if one is bound;
// only that call returns true. Later signals, visible or not, do nothing.
func (g *Gate) Observe(id string, visible bool) bool {
	if g.disposed || !visible || id == "" {
		return false
	}
	if _, ok := g.seen[id]; ok {
		return false
	}
	g.seen[id] = struct{}{}
	g.order = append(g.order, id)
	g.start(id)
	return true
}

// Start runs a bound region's animation without waiting for visibility.
// It shares the one-shot guarantee with Observe: a region animates at most
// once whichever call comes first.
func (g *Gate) Start(id string) bool {
	if g.disposed {
		return false
	}
	return g.start(id)
}

func (g *Gate) start(id string) bool {
	targets, ok := g.bound[id]
	if !ok {
		return false
	}
	if _, started := g.handles[id]; started {
		return false
	}

	h, err := g.anim.Start(targets, g.duration)
	if err != nil {
		g.logger.Printf("[!] Анимация региона %s не запущена: %v", id, err)
		return false
	}
	g.handles[id] = h

	for _, s := range g.subs[id] {
		if s.active {
			s.unsub = h.Subscribe(s.obs)
		}
	}
	return true
}

// Subscribe delivers the frames of id's animation to obs. It may be called
// before the region is triggered.
func (g *Gate) Subscribe(id string, obs animator.Observer) (unsubscribe func()) {
	s := &regionSub{obs: obs, active: true}
	if h, ok := g.handles[id]; ok {
		s.unsub = h.Subscribe(obs)
	}
	g.subs[id] = append(g.subs[id], s)
	return func() {
		s.active = false
		if s.unsub != nil {
			s.unsub()
		}
	}
}

// Visible reports whether id has ever been observed as visible.
func (g *Gate) Visible(id string) bool {
	_, ok := g.seen[id]
	return ok
}

// Revealed lists regions in the order they first became visible.
func (g *Gate) Revealed() []string {
	return append([]string(nil), g.order...)
}

// Bound reports whether id has targets.
func (g *Gate) Bound(id string) bool {
	_, ok := g.bound[id]
	return ok
}

// State returns the animation state of id.
func (g *Gate) State(id string) animator.State {
	if h, ok := g.handles[id]; ok {
		return h.State()
	}
	return animator.Untriggered
}

// Frame returns the latest values of id. ok is false until its animation
// has started.
func (g *Gate) Frame(id string) (frame animator.Frame, ok bool) {
	h, ok := g.handles[id]
	if !ok {
		return animator.Frame{}, false
	}
	return h.Snapshot(), true
}

// Dispose cancels in-flight animations and turns further signals into no-ops.
func (g *Gate) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	for _, h := range g.handles {
		h.Cancel()
	}
}
