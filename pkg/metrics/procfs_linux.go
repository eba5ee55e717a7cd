//go:build linux

package metrics

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// clkTck is the kernel clock tick rate used to scale utime/stime from
// /proc/<pid>/stat. Linux has reported 100 via USER_HZ on every mainstream
// architecture for decades.
const clkTck = 100

// ProcfsSource is a Linux-only fallback that reads /proc directly, for
// environments where gopsutil cannot see the target (e.g. a foreign PID
// namespace mounted at a different procfs root). It uses the same
// interval-blocking discipline as ProcessSource: CPU time counters are read
// before and after an interval-long wait and the delta is averaged over it.
type ProcfsSource struct {
	pid  int
	root string
}

// NewProcfsSource creates a /proc-backed source for pid. An empty root
// defaults to "/proc".
func NewProcfsSource(pid int, root string) (*ProcfsSource, error) {
	if root == "" {
		root = "/proc"
	}
	src := &ProcfsSource{pid: pid, root: root}
	if _, err := src.cpuTicks(); err != nil {
		return nil, fmt.Errorf("cannot read %s/%d/stat: %w", root, pid, err)
	}
	return src, nil
}

// Sample implements Source.
func (s *ProcfsSource) Sample(ctx context.Context, interval time.Duration) (Reading, error) {
	if err := unix.Kill(s.pid, 0); err != nil {
		return Reading{}, fmt.Errorf("%w: process %d: %v", ErrUnavailable, s.pid, err)
	}

	before, err := s.cpuTicks()
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	case <-timer.C:
	}

	after, err := s.cpuTicks()
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rssMB, err := s.residentMB()
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	seconds := interval.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	busy := float64(after-before) / clkTck
	return Reading{
		CPUPercent: busy / seconds * 100,
		MemoryMB:   rssMB,
	}, nil
}

// cpuTicks returns utime+stime in clock ticks from /proc/<pid>/stat.
func (s *ProcfsSource) cpuTicks() (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/stat", s.root, s.pid))
	if err != nil {
		return 0, err
	}

	// comm may contain spaces and parentheses; fields are stable only after
	// the last ')'.
	raw := string(data)
	i := strings.LastIndexByte(raw, ')')
	if i < 0 || i+2 > len(raw) {
		return 0, fmt.Errorf("unexpected stat format for pid %d", s.pid)
	}
	fields := strings.Fields(raw[i+2:])
	// After comm: state is field 0, utime field 11, stime field 12.
	if len(fields) < 13 {
		return 0, fmt.Errorf("unexpected stat format for pid %d", s.pid)
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return 0, err
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return 0, err
	}
	return utime + stime, nil
}

// residentMB returns RSS in megabytes from /proc/<pid>/statm.
func (s *ProcfsSource) residentMB() (float64, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/statm", s.root, s.pid))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("unexpected statm format for pid %d", s.pid)
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(pages) * float64(os.Getpagesize()) / (1024 * 1024), nil
}
