package animator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ivlev/pulsedeck/internal/clock"
)

func record(h *Handle) *[]Frame {
	frames := &[]Frame{}
	h.Subscribe(func(f Frame) { *frames = append(*frames, f) })
	return frames
}

func TestHeroMetricsScenario(t *testing.T) {
	clk := clock.NewManual()
	anim := New(clk)

	h, err := anim.Start(Targets{
		{Name: "engagement", Target: 3.93, Format: Decimal(2)},
		{Name: "participation", Target: 89, Format: Integer},
	}, 2000*time.Millisecond)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	frames := record(h)

	clk.Advance(2 * time.Second)

	if len(*frames) != DefaultSteps {
		t.Fatalf("Expected %d frames, got %d", DefaultSteps, len(*frames))
	}

	first := (*frames)[0]
	if math.Abs(first.Values["engagement"]-0.07) > 0.011 {
		t.Errorf("Step 1 engagement: expected ~0.07, got %v", first.Values["engagement"])
	}
	if first.Values["participation"] != 1 {
		t.Errorf("Step 1 participation: expected 1, got %v", first.Values["participation"])
	}

	last := (*frames)[DefaultSteps-1]
	if !last.Final || last.Step != DefaultSteps {
		t.Errorf("Last frame should be final step %d, got step %d final=%v", DefaultSteps, last.Step, last.Final)
	}
	if last.Values["engagement"] != 3.93 || last.Values["participation"] != 89 {
		t.Errorf("Final values drifted: %v", last.Values)
	}
	if h.State() != Settled {
		t.Errorf("Expected settled, got %s", h.State())
	}

	for i, f := range (*frames)[:DefaultSteps-1] {
		if f.Final {
			t.Errorf("Frame %d marked final early", i+1)
		}
		if f.Step != i+1 {
			t.Errorf("Frame %d carries step %d", i+1, f.Step)
		}
	}
}

func TestFinalFrameIsExact(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
	}{
		{"floor", Metric{Name: "v", Target: 89, Format: Integer}},
		{"floor fractional target", Metric{Name: "v", Target: 12.7, Format: Integer}},
		{"fixed 1dp", Metric{Name: "v", Target: 5, Format: Decimal(1)}},
		{"fixed 2dp", Metric{Name: "v", Target: 4.13, Format: Decimal(2)}},
		{"fixed 2dp awkward", Metric{Name: "v", Target: 0.1 + 0.2, Format: Decimal(2)}},
		{"zero", Metric{Name: "v", Target: 0, Format: Decimal(2)}},
		{"negative", Metric{Name: "v", Target: -7.25, Format: Decimal(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewManual()
			h, err := New(clk).Start(Targets{tt.metric}, 500*time.Millisecond)
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			frames := record(h)
			clk.Advance(time.Second)

			got := (*frames)[len(*frames)-1].Values["v"]
			if got != tt.metric.Target {
				t.Errorf("Expected exact %v, got %v", tt.metric.Target, got)
			}
		})
	}
}

func TestMonotonicProgress(t *testing.T) {
	targets := Targets{
		{Name: "engagement", Target: 3.93, Format: Decimal(2)},
		{Name: "participation", Target: 89, Format: Integer},
		{Name: "multiple", Target: 5, Format: Decimal(1)},
		{Name: "tiny", Target: 0.029, Format: Decimal(2)},
		{Name: "value", Target: 50, Format: Integer},
	}

	for _, name := range append([]string{""}, EasingNames()...) {
		t.Run("easing="+name, func(t *testing.T) {
			e, err := ParseEasing(name)
			if err != nil {
				t.Fatalf("ParseEasing: %v", err)
			}
			clk := clock.NewManual()
			h, err := New(clk, WithEasing(e)).Start(targets, 2*time.Second)
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			frames := record(h)
			clk.Advance(3 * time.Second)

			prev := Values{}
			for i, f := range *frames {
				for _, m := range targets {
					v := f.Values[m.Name]
					if v < prev[m.Name] {
						t.Errorf("%s decreased at step %d: %v -> %v", m.Name, i+1, prev[m.Name], v)
					}
					if v > m.Target {
						t.Errorf("%s overshot at step %d: %v > %v", m.Name, i+1, v, m.Target)
					}
				}
				prev = f.Values
			}
			if prev["tiny"] != 0.029 {
				t.Errorf("Expected tiny to settle on 0.029, got %v", prev["tiny"])
			}
		})
	}
}

func TestCancelMidRun(t *testing.T) {
	clk := clock.NewManual()
	anim := New(clk)

	h, err := anim.Start(Targets{{Name: "v", Target: 100, Format: Integer}}, 2*time.Second)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	frames := record(h)

	for h.Step() < 30 {
		if !clk.Step() {
			t.Fatal("Clock ran out of timers before step 30")
		}
	}
	anim.Cancel(h)

	clk.Advance(5 * time.Second)

	if len(*frames) != 30 {
		t.Errorf("Expected emission count to stay at 30, got %d", len(*frames))
	}
	if h.State() != Cancelled {
		t.Errorf("Expected cancelled, got %s", h.State())
	}
	if clk.Pending() != 0 {
		t.Errorf("Cancelled animation left %d timers behind", clk.Pending())
	}
	if anim.Active() != 0 {
		t.Errorf("Expected no active animations, got %d", anim.Active())
	}

	// cancelling again is a no-op
	h.Cancel()
	if h.State() != Cancelled {
		t.Errorf("Second cancel changed state to %s", h.State())
	}
}

func TestCancelFromObserver(t *testing.T) {
	clk := clock.NewManual()
	h, err := New(clk).Start(Targets{{Name: "v", Target: 10, Format: Integer}}, time.Second)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var first, second int
	h.Subscribe(func(f Frame) {
		first++
		if f.Step == 5 {
			h.Cancel()
		}
	})
	h.Subscribe(func(Frame) { second++ })

	clk.Advance(2 * time.Second)

	if first != 5 {
		t.Errorf("Expected first observer to see 5 frames, got %d", first)
	}
	if second != 4 {
		t.Errorf("Expected second observer to miss the frame cancelled mid-emission, got %d", second)
	}
}

func TestCancelAfterSettleIsNoop(t *testing.T) {
	clk := clock.NewManual()
	h, _ := New(clk).Start(Targets{{Name: "v", Target: 1, Format: Integer}}, time.Second)
	clk.Advance(time.Second)

	h.Cancel()
	if h.State() != Settled {
		t.Errorf("Expected settled to survive Cancel, got %s", h.State())
	}
}

func TestUnsubscribe(t *testing.T) {
	clk := clock.NewManual()
	h, _ := New(clk).Start(Targets{{Name: "v", Target: 60, Format: Integer}}, 600*time.Millisecond)

	count := 0
	unsubscribe := h.Subscribe(func(Frame) { count++ })
	clk.Advance(100 * time.Millisecond)
	unsubscribe()
	clk.Advance(time.Second)

	if count != 10 {
		t.Errorf("Expected 10 frames before unsubscribe, got %d", count)
	}
	if h.State() != Settled {
		t.Errorf("Unsubscribing should not stop the run, got %s", h.State())
	}
}

func TestSnapshot(t *testing.T) {
	clk := clock.NewManual()
	h, _ := New(clk).Start(Targets{{Name: "value", Target: 50, Format: Integer}}, 600*time.Millisecond)

	snap := h.Snapshot()
	if snap.Step != 0 || snap.Values["value"] != 0 {
		t.Errorf("Expected zero snapshot before first tick, got %+v", snap)
	}

	clk.Advance(300 * time.Millisecond)
	snap = h.Snapshot()
	if snap.Step != 30 || snap.Values["value"] != 25 {
		t.Errorf("Expected step 30 value 25, got %+v", snap)
	}

	snap.Values["value"] = 999
	if h.Snapshot().Values["value"] == 999 {
		t.Error("Snapshot should be a copy")
	}
}

func TestDispose(t *testing.T) {
	clk := clock.NewManual()
	anim := New(clk)

	var handles []*Handle
	for _, name := range []string{"a", "b", "c"} {
		h, err := anim.Start(Targets{{Name: name, Target: 1, Format: Integer}}, time.Second)
		if err != nil {
			t.Fatalf("Start %s: %v", name, err)
		}
		handles = append(handles, h)
	}
	clk.Advance(100 * time.Millisecond)
	anim.Dispose()

	for i, h := range handles {
		if h.State() != Cancelled {
			t.Errorf("Handle %d: expected cancelled, got %s", i, h.State())
		}
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected all timers stopped, %d remain", clk.Pending())
	}
}

func TestStartValidation(t *testing.T) {
	tests := []struct {
		name     string
		targets  Targets
		duration time.Duration
		wantErr  error
	}{
		{"empty", Targets{}, time.Second, ErrInvalidTarget},
		{"nan", Targets{{Name: "v", Target: math.NaN()}}, time.Second, ErrInvalidTarget},
		{"inf", Targets{{Name: "v", Target: math.Inf(-1)}}, time.Second, ErrInvalidTarget},
		{"duplicate", Targets{{Name: "v", Target: 1}, {Name: "v", Target: 2}}, time.Second, ErrInvalidTarget},
		{"unnamed", Targets{{Target: 1}}, time.Second, ErrInvalidTarget},
		{"decimals", Targets{{Name: "v", Target: 1, Format: Decimal(3)}}, time.Second, ErrInvalidFormat},
		{"zero duration", Targets{{Name: "v", Target: 1}}, 0, ErrInvalidDuration},
		{"negative duration", Targets{{Name: "v", Target: 1}}, -time.Second, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewManual()
			h, err := New(clk).Start(tt.targets, tt.duration)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if h != nil {
				t.Error("Expected nil handle on error")
			}
			if clk.Pending() != 0 {
				t.Error("Rejected start must not schedule a timer")
			}
		})
	}
}

func TestTargetsCopiedOnStart(t *testing.T) {
	clk := clock.NewManual()
	targets := Targets{{Name: "v", Target: 10, Format: Integer}}
	h, _ := New(clk).Start(targets, time.Second)
	targets[0].Target = 1000

	clk.Advance(time.Second)
	if got := h.Snapshot().Values["v"]; got != 10 {
		t.Errorf("Expected the first target 10, got %v", got)
	}
}

func TestWithSteps(t *testing.T) {
	clk := clock.NewManual()
	h, _ := New(clk, WithSteps(4)).Start(Targets{{Name: "v", Target: 8, Format: Integer}}, 400*time.Millisecond)
	frames := record(h)
	clk.Advance(time.Second)

	want := []float64{2, 4, 6, 8}
	if len(*frames) != len(want) {
		t.Fatalf("Expected %d frames, got %d", len(want), len(*frames))
	}
	for i, w := range want {
		if got := (*frames)[i].Values["v"]; got != w {
			t.Errorf("Step %d: expected %v, got %v", i+1, w, got)
		}
	}
	if h.Period() != 100*time.Millisecond {
		t.Errorf("Expected 100ms period, got %v", h.Period())
	}
}

func TestNilSchedulerNeverEmits(t *testing.T) {
	h, err := New(nil).Start(Targets{{Name: "v", Target: 1}}, time.Second)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h.State() != Animating || h.Step() != 0 {
		t.Errorf("Expected idle animating handle, got %s step %d", h.State(), h.Step())
	}
}

func TestParseEasing(t *testing.T) {
	if _, err := ParseEasing("out-bounce"); !errors.Is(err, ErrUnknownEasing) {
		t.Errorf("Expected ErrUnknownEasing, got %v", err)
	}
	e, err := ParseEasing("")
	if err != nil || e.String() != "linear" {
		t.Errorf("Expected linear default, got %v (%v)", e, err)
	}
	if p := e.Progress(30, 60); p != 0.5 {
		t.Errorf("Expected exact linear 0.5, got %v", p)
	}
	named, err := ParseEasing("Linear")
	if err != nil || named.Progress(1, 60) != 1.0/60 {
		t.Errorf("Named linear should be exact, got %v (%v)", named.Progress(1, 60), err)
	}
}

func TestParseRounding(t *testing.T) {
	tests := []struct {
		in      string
		want    Rounding
		wantErr bool
	}{
		{"", Floor, false},
		{"floor", Floor, false},
		{"INT", Floor, false},
		{"fixed", Fixed, false},
		{"ceil", Floor, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRounding(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
