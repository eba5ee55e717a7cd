package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfSample(t *testing.T) {
	src, err := Self()
	require.NoError(t, err)

	reading, err := src.Sample(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)

	// The test process certainly has a nonzero RSS; CPU% may legitimately
	// round to zero over a quiet window.
	assert.Greater(t, reading.MemoryMB, 0.0)
	assert.GreaterOrEqual(t, reading.CPUPercent, 0.0)
}

func TestVanishedProcessIsUnavailable(t *testing.T) {
	src, err := Self()
	require.NoError(t, err)

	// Swap in a pid that cannot exist so the liveness check fails.
	src.proc.Pid = 1 << 30

	_, err = src.Sample(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNewProcessSourceRejectsMissingPID(t *testing.T) {
	_, err := NewProcessSource(1 << 30)
	assert.Error(t, err)
}
