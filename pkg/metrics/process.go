package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessSource reads CPU% and RSS for a single process via gopsutil. CPU% is
// measured with Percent(interval), which blocks for the interval and reports
// usage averaged over it.
type ProcessSource struct {
	proc *process.Process
}

// NewProcessSource creates a source for the given pid.
func NewProcessSource(pid int32) (*ProcessSource, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("cannot open process %d: %w", pid, err)
	}
	return &ProcessSource{proc: proc}, nil
}

// Self creates a source for the current process, for in-process profiling.
func Self() (*ProcessSource, error) {
	return NewProcessSource(int32(os.Getpid()))
}

// PID returns the observed process id.
func (s *ProcessSource) PID() int32 {
	return s.proc.Pid
}

// Sample implements Source. A vanished or unreadable process yields
// ErrUnavailable rather than a hard error.
func (s *ProcessSource) Sample(ctx context.Context, interval time.Duration) (Reading, error) {
	running, err := s.proc.IsRunningWithContext(ctx)
	if err != nil || !running {
		return Reading{}, fmt.Errorf("%w: process %d has exited", ErrUnavailable, s.proc.Pid)
	}

	cpu, err := s.proc.PercentWithContext(ctx, interval)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: reading cpu for pid %d: %v", ErrUnavailable, s.proc.Pid, err)
	}

	info, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: reading memory for pid %d: %v", ErrUnavailable, s.proc.Pid, err)
	}

	return Reading{
		CPUPercent: cpu,
		MemoryMB:   float64(info.RSS) / (1024 * 1024),
	}, nil
}
