package video

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestSequenceRate(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
		want float64
	}{
		{"default reveal", Sequence{Count: 61, Duration: 2 * time.Second}, 30},
		{"single frame", Sequence{Count: 1, Duration: time.Second}, 1},
		{"no duration", Sequence{Count: 10}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seq.Rate(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	seq := Sequence{Dir: "out", Pattern: "frame_%03d.png", Count: 61, Duration: 2 * time.Second}

	tests := []struct {
		name    string
		enc     FFmpegEncoder
		quality []string
	}{
		{"libx264 default", FFmpegEncoder{Quality: 23}, []string{"-c:v", "libx264", "-crf", "23"}},
		{"videotoolbox", FFmpegEncoder{Codec: "h264_videotoolbox", Quality: 75}, []string{"-b:v", "7500k"}},
		{"nvenc", FFmpegEncoder{Codec: "h264_nvenc", Quality: 20}, []string{"-cq", "20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.enc.buildFFmpegArgs(seq, "clip.mp4")
			joined := strings.Join(args, " ")
			if !strings.Contains(joined, "-framerate 30 -i out/frame_%03d.png") {
				t.Errorf("Unexpected input args: %s", joined)
			}
			if !strings.Contains(joined, strings.Join(tt.quality, " ")) {
				t.Errorf("Expected %v in %s", tt.quality, joined)
			}
			if args[len(args)-1] != "clip.mp4" {
				t.Errorf("Output must come last, got %s", args[len(args)-1])
			}
			if slices.Contains(args, "-r") {
				t.Error("No output rate expected without FPS")
			}
		})
	}
}

func TestEncode(t *testing.T) {
	seq := Sequence{Dir: t.TempDir(), Pattern: "frame_%03d.png", Count: 2, Duration: time.Second}

	if err := (&FFmpegEncoder{}).Encode(context.Background(), Sequence{}, "x.mp4"); !errors.Is(err, ErrNoFrames) {
		t.Errorf("Expected ErrNoFrames, got %v", err)
	}
	if err := (&FFmpegEncoder{Binary: "true"}).Encode(context.Background(), seq, "x.mp4"); err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if err := (&FFmpegEncoder{Binary: "false"}).Encode(context.Background(), seq, "x.mp4"); err == nil {
		t.Error("Expected a failing binary to be reported")
	}
}
