// Package engine runs an interactive presentation of a report in the terminal.
package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/pulsedeck/internal/animator"
	"github.com/ivlev/pulsedeck/internal/clock"
	"github.com/ivlev/pulsedeck/internal/config"
	"github.com/ivlev/pulsedeck/internal/director"
	"github.com/ivlev/pulsedeck/internal/layout"
	"github.com/ivlev/pulsedeck/internal/renderer"
	"github.com/ivlev/pulsedeck/internal/report"
	"github.com/ivlev/pulsedeck/internal/reveal"
	"github.com/ivlev/pulsedeck/internal/viewport"
)

// wheelRows is how far one mouse wheel notch scrolls.
const wheelRows = 3

// Presentation shows one report on one screen. All state below is owned by
// the loop goroutine once Run has started.
type Presentation struct {
	Config   *config.Config
	Report   *report.Report
	Screen   tcell.Screen
	Renderer *renderer.Renderer
	Tour     *director.Tour // optional unattended scroll path
	Logger   *log.Logger    // must not write to the terminal while the screen is up; nil discards

	Stats Stats

	page    *layout.Page
	scope   *reveal.Scope
	top     int
	height  int
	dirty   bool
	elapsed time.Duration
	quit    func()
}

// NewPresentation creates a presentation with the default renderer
func NewPresentation(cfg *config.Config, rep *report.Report, screen tcell.Screen) *Presentation {
	return &Presentation{
		Config:   cfg,
		Report:   rep,
		Screen:   screen,
		Renderer: renderer.NewRenderer(),
	}
}

// Run shows the report until the user quits, the tour ends or ctx is
// cancelled. The screen must already be initialised; Run does not call Fini.
func (p *Presentation) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.quit = cancel

	loop := clock.NewLoop(0)
	period := p.Config.FramePeriod()
	loop.Post(func() {
		p.mount(loop)
		loop.Every(period, func() { p.tick(period) })
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer p.dispose()
		return loop.Run(gctx)
	})
	g.Go(func() error {
		for {
			ev := p.Screen.PollEvent()
			if ev == nil {
				// screen finalised underneath us
				cancel()
				return nil
			}
			if gctx.Err() != nil {
				return nil
			}
			if _, ok := ev.(*tcell.EventInterrupt); ok {
				continue
			}
			if !loop.Post(func() { p.handle(ev) }) {
				return nil
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		// wake PollEvent so the input goroutine can exit
		p.Screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// mount lays the page out for the current screen and starts the reveal
// scope on sched.
func (p *Presentation) mount(sched clock.Scheduler) {
	p.Stats.Started = time.Now()

	easing, err := animator.ParseEasing(p.Config.Easing)
	if err != nil {
		p.logger().Printf("[!] %v, используется linear", err)
	}
	p.scope = reveal.NewScope(sched, reveal.Options{
		Steps:           p.Config.Steps,
		Duration:        p.Config.Duration,
		Easing:          easing,
		ScrollThreshold: p.Config.ScrollThreshold,
		Logger:          p.logger(),
	})

	p.relayout()

	var regions []reveal.Region
	for _, reg := range p.Report.Regions {
		targets, err := reg.Targets()
		if err != nil {
			p.logger().Printf("[!] Регион %s: %v", reg.ID, err)
			continue
		}
		r := reveal.Region{ID: reg.ID, Targets: targets}
		if reg.OnMount() {
			r.Trigger = reveal.OnMount
		}
		regions = append(regions, r)
	}
	p.Stats.Regions = len(p.Report.Regions)

	if err := p.scope.Mount(regions); err != nil {
		p.logger().Printf("[!] Не все регионы подключены: %v", err)
	}
	for _, r := range regions {
		if len(r.Targets) == 0 {
			continue
		}
		p.scope.Gate.Subscribe(r.ID, func(f animator.Frame) {
			p.dirty = true
			if f.Final {
				p.Stats.Settled++
			}
		})
	}

	p.scrollTo(0)
	p.draw()
}

// relayout rebuilds the page for the current screen size, keeping the
// scroll offset where possible.
func (p *Presentation) relayout() {
	width, height := p.Screen.Size()
	p.height = height
	if p.Config.PageWidth > 0 {
		width = min(p.Config.PageWidth, width)
	}
	p.page = layout.Build(p.Report, width)
	p.dirty = true
}

func (p *Presentation) view() viewport.Viewport {
	return viewport.Viewport{Height: p.height}
}

// scrollTo moves the viewport, updates the scrolled flag and reports newly
// visible regions.
func (p *Presentation) scrollTo(top int) {
	if p.scope == nil || p.scope.Disposed() {
		return
	}
	p.top = p.view().Clamp(top, p.page.Height)
	p.scope.ScrollTo(float64(p.top * p.Config.RowPixels))
	p.observe()
	p.dirty = true
}

func (p *Presentation) scrollBy(rows int) {
	p.scrollTo(p.top + rows)
}

// observe sends a visibility signal for every region in page order.
func (p *Presentation) observe() {
	body := viewport.Viewport{
		Top:    p.top + layout.HeaderHeight,
		Height: p.height - layout.HeaderHeight,
	}
	vis := p.page.Visibility(body, p.Config.Visibility)
	for _, b := range p.page.Blocks {
		if p.scope.Observe(b.Region.ID, vis[b.Region.ID]) {
			p.Stats.Revealed++
		}
	}
}

// jumpTo scrolls so that section sits right below the nav bar.
func (p *Presentation) jumpTo(section string) {
	y, ok := p.page.Section(section)
	if !ok {
		return
	}
	p.scrollTo(y - layout.HeaderHeight)
}

// handle applies one input event.
func (p *Presentation) handle(ev tcell.Event) {
	p.Stats.Events++
	page := max(p.height-layout.HeaderHeight-1, 1)

	switch ev := ev.(type) {
	case *tcell.EventResize:
		p.Screen.Sync()
		p.relayout()
		p.scrollTo(p.top)

	case *tcell.EventKey:
		// manual scrolling ends an unattended tour
		p.Tour = nil
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			p.stop()
		case tcell.KeyUp:
			p.scrollBy(-1)
		case tcell.KeyDown:
			p.scrollBy(1)
		case tcell.KeyPgUp:
			p.scrollBy(-page)
		case tcell.KeyPgDn:
			p.scrollBy(page)
		case tcell.KeyHome:
			p.scrollTo(0)
		case tcell.KeyEnd:
			p.scrollTo(p.page.Height)
		case tcell.KeyRune:
			p.handleRune(ev.Rune(), page)
		}

	case *tcell.EventMouse:
		switch {
		case ev.Buttons()&tcell.WheelUp != 0:
			p.Tour = nil
			p.scrollBy(-wheelRows)
		case ev.Buttons()&tcell.WheelDown != 0:
			p.Tour = nil
			p.scrollBy(wheelRows)
		}
	}
}

func (p *Presentation) handleRune(r rune, page int) {
	switch {
	case r == 'q' || r == 'Q':
		p.stop()
	case r == 'j':
		p.scrollBy(1)
	case r == 'k':
		p.scrollBy(-1)
	case r == ' ':
		p.scrollBy(page)
	case r == 'g':
		p.scrollTo(0)
	case r == 'G':
		p.scrollTo(p.page.Height)
	case r >= '1' && r <= '9':
		i := int(r - '1')
		if i < len(p.Report.Nav) {
			p.jumpTo(p.Report.Nav[i].Section)
		}
	}
}

// tick advances the tour and redraws when something changed.
func (p *Presentation) tick(period time.Duration) {
	if p.Tour != nil {
		p.elapsed += period
		secs := p.elapsed.Seconds()
		if top := int(p.Tour.Position(secs) + 0.5); top != p.top {
			p.scrollTo(top)
		}
		if p.Tour.Done(secs) && p.scope.Animator.Active() == 0 {
			p.logger().Printf("[*] Тур завершен за %.1fs", secs)
			p.stop()
			return
		}
	}
	if p.dirty {
		p.draw()
	}
}

func (p *Presentation) draw() {
	p.Renderer.Draw(p.Screen, p.page, renderer.State{
		Top:      p.top,
		Scrolled: p.scope.Scrolled(),
		Reveal:   p.scope.Gate,
	})
	p.Screen.Show()
	p.dirty = false
	p.Stats.Frames++
}

func (p *Presentation) stop() {
	if p.quit != nil {
		p.quit()
	}
}

// dispose cancels running animations; it runs on the loop goroutine after
// the loop has stopped.
func (p *Presentation) dispose() {
	if p.scope == nil || p.scope.Disposed() {
		return
	}
	for _, id := range p.scope.Gate.Revealed() {
		if p.scope.Gate.State(id) == animator.Animating {
			p.Stats.Cancelled++
		}
	}
	p.scope.Dispose()
	p.Stats.Elapsed = time.Since(p.Stats.Started)
}

func (p *Presentation) logger() *log.Logger {
	if p.Logger == nil {
		p.Logger = log.New(io.Discard, "", 0)
	}
	return p.Logger
}

// Page returns the current layout.
func (p *Presentation) Page() *layout.Page { return p.page }

// Top returns the current scroll offset in rows.
func (p *Presentation) Top() int { return p.top }
