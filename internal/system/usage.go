package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Usage is a snapshot of this process's resource use.
type Usage struct {
	RSS        uint64  // bytes
	CPUPercent float64 // since process start, summed over cores
	Threads    int32
}

// ProcessUsage samples the running process.
func ProcessUsage() (Usage, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Usage{}, fmt.Errorf("процесс %d: %w", os.Getpid(), err)
	}

	var u Usage
	mem, err := p.MemoryInfo()
	if err != nil {
		return Usage{}, fmt.Errorf("память процесса: %w", err)
	}
	u.RSS = mem.RSS

	if u.CPUPercent, err = p.CPUPercent(); err != nil {
		return Usage{}, fmt.Errorf("CPU процесса: %w", err)
	}
	// thread count is not available everywhere
	u.Threads, _ = p.NumThreads()
	return u, nil
}

// String formats the snapshot for the performance reports.
func (u Usage) String() string {
	return fmt.Sprintf("RSS %.1f MiB | CPU %.1f%% | Threads %d", float64(u.RSS)/(1<<20), u.CPUPercent, u.Threads)
}
