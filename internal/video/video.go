// Package video turns an exported frame sequence into an MP4 clip with ffmpeg.
package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Encoders known to accept the quality argument we build.
var Encoders = []string{"libx264", "h264_videotoolbox", "h264_nvenc"}

var ErrNoFrames = errors.New("video: no frames")

// Sequence is a numbered PNG sequence on disk.
type Sequence struct {
	Dir      string
	Pattern  string // printf pattern, e.g. frame_%03d.png
	Count    int
	Duration time.Duration // time from the first frame to the last
}

// Rate is the input frame rate that spreads Count frames over Duration.
func (s Sequence) Rate() float64 {
	if s.Count < 2 || s.Duration <= 0 {
		return 1
	}
	return float64(s.Count-1) / s.Duration.Seconds()
}

type VideoEncoder interface {
	Encode(ctx context.Context, seq Sequence, outPath string) error
}

type FFmpegEncoder struct {
	Binary  string // defaults to ffmpeg
	Codec   string
	Quality int
	FPS     int
}

func (e *FFmpegEncoder) Encode(ctx context.Context, seq Sequence, outPath string) error {
	if seq.Count == 0 {
		return ErrNoFrames
	}
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin, e.buildFFmpegArgs(seq, outPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, string(out))
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(seq Sequence, outPath string) []string {
	codec := e.Codec
	if codec == "" {
		codec = "libx264"
	}

	args := []string{
		"-y",
		"-framerate", strconv.FormatFloat(seq.Rate(), 'f', -1, 64),
		"-i", filepath.Join(seq.Dir, seq.Pattern),
	}
	if e.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(e.FPS))
	}
	// yuv420p needs even dimensions
	args = append(args,
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", codec,
	)

	switch codec {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", e.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", strconv.Itoa(e.Quality))
	default: // libx264
		args = append(args, "-crf", strconv.Itoa(e.Quality), "-preset", "medium")
	}

	return append(args, outPath)
}
