//go:build !linux

package metrics

import (
	"context"
	"errors"
	"time"
)

// ProcfsSource is only available on Linux; other platforms use ProcessSource.
type ProcfsSource struct{}

// NewProcfsSource reports that the /proc fallback is unsupported here.
func NewProcfsSource(pid int, root string) (*ProcfsSource, error) {
	return nil, errors.New("procfs source is only supported on linux")
}

// Sample implements Source and always fails on non-Linux platforms.
func (s *ProcfsSource) Sample(ctx context.Context, interval time.Duration) (Reading, error) {
	return Reading{}, ErrUnavailable
}
