// Package frames exports the count-up animation of one region as a numbered
// PNG sequence with a YAML manifest.
package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/pulsedeck/internal/animator"
	"github.com/ivlev/pulsedeck/internal/clock"
	"github.com/ivlev/pulsedeck/internal/report"
	"github.com/ivlev/pulsedeck/internal/reveal"
	"github.com/ivlev/pulsedeck/internal/system"
)

const (
	// ManifestFile is written next to the frames.
	ManifestFile = "frames.yaml"
	FramePattern = "frame_%03d.png"
)

var (
	ErrUnknownRegion = errors.New("frames: unknown region")
	ErrNoTargets     = errors.New("frames: region has no animated metrics")
)

var (
	background = color.RGBA{0x1e, 0x1b, 0x4b, 0xff}
	titleColor = color.RGBA{0xc4, 0xb5, 0xfd, 0xff}
	valueColor = color.RGBA{0xf4, 0x72, 0xb6, 0xff}
	labelColor = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	trackColor = color.RGBA{0x31, 0x2e, 0x81, 0xff}
	barColor   = color.RGBA{0x7c, 0x3a, 0xed, 0xff}
)

// Manifest describes an exported sequence.
type Manifest struct {
	Version  string  `yaml:"version"`
	Report   string  `yaml:"report"`
	Region   string  `yaml:"region"`
	Steps    int     `yaml:"steps"`
	Duration float64 `yaml:"duration"` // seconds
	Frames   []Frame `yaml:"frames"`
}

// Frame is one exported image.
type Frame struct {
	Step   int                `yaml:"step"`
	Time   float64            `yaml:"time"` // seconds since the reveal
	File   string             `yaml:"file"`
	Final  bool               `yaml:"final,omitempty"`
	Values map[string]float64 `yaml:"values"`
	Text   map[string]string  `yaml:"text"`
}

// Exporter renders animation frames.
type Exporter struct {
	Width    int
	Height   int
	Steps    int
	Duration time.Duration
	Easing   animator.Easing
	Workers  int
	Logger   *log.Logger

	pool *system.ImagePool
}

// NewExporter creates an exporter with the given canvas size
func NewExporter(width, height, workers int) *Exporter {
	return &Exporter{
		Width:    width,
		Height:   height,
		Steps:    animator.DefaultSteps,
		Duration: reveal.DefaultDuration,
		Workers:  max(workers, 1),
		Logger:   log.Default(),
		pool:     system.NewImagePool(),
	}
}

// Export plays the reveal of regionID on a logical clock and writes every
// emitted frame, plus the opening zero frame, as frame_NNN.png into dir.
func (e *Exporter) Export(ctx context.Context, rep *report.Report, regionID, dir string) (*Manifest, error) {
	reg, ok := rep.Region(regionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, regionID)
	}
	targets, err := reg.Targets()
	if err != nil {
		return nil, fmt.Errorf("регион %s: %w", regionID, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoTargets, regionID)
	}

	frames, err := e.play(regionID, targets)
	if err != nil {
		return nil, err
	}

	if err := system.EnsureDirs(dir); err != nil {
		return nil, err
	}
	if e.pool == nil {
		e.pool = system.NewImagePool()
	}

	manifest := &Manifest{
		Version:  "1.0",
		Report:   rep.Title,
		Region:   regionID,
		Steps:    len(frames) - 1,
		Duration: e.Duration.Seconds(),
		Frames:   make([]Frame, len(frames)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Workers, 1))
	for i, f := range frames {
		name := fmt.Sprintf(FramePattern, f.Step)
		entry := Frame{
			Step:   f.Step,
			Time:   (e.Duration * time.Duration(f.Step) / time.Duration(f.Total)).Seconds(),
			File:   name,
			Final:  f.Final,
			Values: map[string]float64(f.Values),
			Text:   make(map[string]string, len(reg.Metrics)),
		}
		for _, m := range reg.Metrics {
			entry.Text[m.Name] = report.FormatValue(m, f.Values[m.Name])
		}
		manifest.Frames[i] = entry

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return e.writeFrame(filepath.Join(dir, name), reg, entry)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return nil, err
	}

	e.logger().Printf("[+++] Экспортировано кадров: %d (%s) -> %s", len(frames), regionID, dir)
	return manifest, nil
}

// play runs the animation to completion and returns the opening frame
// followed by every emitted frame.
func (e *Exporter) play(id string, targets animator.Targets) ([]animator.Frame, error) {
	clk := clock.NewManual()
	anim := animator.New(clk, animator.WithSteps(e.Steps), animator.WithEasing(e.Easing))
	gate := reveal.NewGate(anim, reveal.WithDuration(e.Duration), reveal.WithLogger(e.logger()))
	defer gate.Dispose()

	if err := gate.Bind(id, targets); err != nil {
		return nil, err
	}

	zero := make(animator.Values, len(targets))
	for _, m := range targets {
		zero[m.Name] = 0
	}
	frames := []animator.Frame{{Total: anim.Steps(), Values: zero}}
	gate.Subscribe(id, func(f animator.Frame) {
		f.Values = f.Values.Clone()
		frames = append(frames, f)
	})
	gate.Observe(id, true)
	if gate.State(id) != animator.Animating {
		return nil, fmt.Errorf("анимация региона %s не запущена", id)
	}

	for clk.Step() {
	}

	return frames, nil
}

func (e *Exporter) writeFrame(path string, reg report.Region, f Frame) error {
	img := e.pool.Get(e.Width, e.Height)
	defer e.pool.Put(img)

	e.paint(img, reg, f)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return out.Close()
}

// paint draws the card: title, then per metric its value, label and a
// progress track.
func (e *Exporter) paint(img *image.RGBA, reg report.Region, f Frame) {
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	margin := 24
	y := margin + lineHeight

	title := reg.Title
	if title == "" {
		title = reg.ID
	}
	drawText(img, face, titleColor, margin, y, title)
	y += lineHeight * 2

	trackWidth := e.Width - 2*margin
	for _, m := range reg.Metrics {
		drawText(img, face, valueColor, margin, y, f.Text[m.Name])
		label := m.Label
		if label == "" {
			label = m.Name
		}
		drawText(img, face, labelColor, margin+trackWidth/2, y, label)
		y += lineHeight / 2

		track := image.Rect(margin, y, margin+trackWidth, y+4)
		draw.Draw(img, track, image.NewUniform(trackColor), image.Point{}, draw.Src)
		if m.Target != 0 {
			frac := min(max(f.Values[m.Name]/m.Target, 0), 1)
			fill := track
			fill.Max.X = track.Min.X + int(frac*float64(trackWidth))
			draw.Draw(img, fill, image.NewUniform(barColor), image.Point{}, draw.Src)
		}
		y += lineHeight * 2
		if y > e.Height-margin {
			break
		}
	}
}

func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(asciiText(s))
}

// asciiText replaces symbols the built-in bitmap face cannot draw.
var asciiText = strings.NewReplacer("₹", "Rs ", "•", "*", "—", "-", "–", "-").Replace

func (e *Exporter) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}
