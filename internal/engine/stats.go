package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Stats counts what happened during one presentation.
type Stats struct {
	Started   time.Time
	Elapsed   time.Duration
	Regions   int
	Revealed  int
	Settled   int
	Cancelled int
	Frames    int
	Events    int
}

// Report formats the session summary printed on exit.
func (s Stats) Report(build string) string {
	fps := 0.0
	if s.Elapsed > 0 {
		fps = float64(s.Frames) / s.Elapsed.Seconds()
	}
	return fmt.Sprintf(
		"--- [SESSION REPORT] ---\n"+
			"Build: %s\n"+
			"Session Time: %.2fs\n"+
			"Regions Revealed: %d/%d\n"+
			"Animations Settled: %d\n"+
			"Animations Cancelled: %d\n"+
			"Input Events: %d\n"+
			"Frames Drawn: %d (%.2f FPS)\n"+
			"------------------------\n",
		build, s.Elapsed.Seconds(), s.Revealed, s.Regions, s.Settled, s.Cancelled, s.Events, s.Frames, fps,
	)
}

// AppendLog appends a one-line summary to path.
func (s Stats) AppendLog(path, build, input string) error {
	logEntry := fmt.Sprintf("[%s] Build: %s | Report: %s | Revealed: %d/%d | Settled: %d | Cancelled: %d | Total: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(input),
		s.Revealed,
		s.Regions,
		s.Settled,
		s.Cancelled,
		s.Elapsed.Seconds(),
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(logEntry)
	return err
}
