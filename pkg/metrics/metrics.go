// Package metrics provides process-wide resource readings for the sampler.
package metrics

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports that process metrics can no longer be read, usually
// because the target exited or access was denied. The sampler treats it as a
// stop condition, not a crash.
var ErrUnavailable = errors.New("process metrics unavailable")

// Reading is one process-wide measurement.
type Reading struct {
	// CPUPercent is the process CPU usage averaged over the measurement
	// window, where 100 means one full core.
	CPUPercent float64
	// MemoryMB is resident set size in megabytes.
	MemoryMB float64
}

// Source produces readings on demand.
//
// Sample blocks for up to interval and returns CPU% averaged over that
// blocking window (the interval-blocking discipline): the sampler's tick
// period is the measurement window itself, so short bursts inside a tick are
// amortized into the reading rather than missed. Implementations must not
// take an instantaneous reading after a plain sleep; the two disciplines are
// not interchangeable.
type Source interface {
	Sample(ctx context.Context, interval time.Duration) (Reading, error)
}
