// Package util provides general utility functions shared across the shell,
// carried from the teacher's own internal/util.
package util

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcStat is a point-in-time CPU/memory reading for one running process,
// used by the jobs builtin to annotate a job's pids (spec §4.13).
type ProcStat struct {
	PID        int32
	CPUPercent float64
	RSSBytes   uint64
}

// ReadProcStat samples pid's CPU percentage and resident set size. A process
// that has already exited returns an error; callers treat that as "no longer
// worth displaying" rather than a fatal condition.
func ReadProcStat(pid int) (*ProcStat, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w", pid, err)
	}

	cpuPct, err := proc.CPUPercent()
	if err != nil {
		return nil, fmt.Errorf("pid %d: cpu percent: %w", pid, err)
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("pid %d: memory info: %w", pid, err)
	}

	return &ProcStat{PID: int32(pid), CPUPercent: cpuPct, RSSBytes: memInfo.RSS}, nil
}
