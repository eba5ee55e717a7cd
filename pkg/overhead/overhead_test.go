package overhead

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeasureAndSince(t *testing.T) {
	start := Measure()
	// Allocate something measurable.
	sink := make([][]byte, 0, 128)
	for i := 0; i < 128; i++ {
		sink = append(sink, make([]byte, 1024))
	}
	_ = sink

	delta := Measure().Since(start)
	assert.Greater(t, delta.AllocBytes, uint64(0))
	assert.Greater(t, delta.AllocCount, uint64(0))
}

func TestLatencies(t *testing.T) {
	assert.Zero(t, Latencies(nil))

	var in []time.Duration
	for i := 1; i <= 100; i++ {
		in = append(in, time.Duration(i)*time.Millisecond)
	}
	stats := Latencies(in)
	assert.Equal(t, 100, stats.Ticks)
	assert.Equal(t, 50*time.Millisecond, stats.P50)
	assert.Equal(t, 95*time.Millisecond, stats.P95)
	assert.Equal(t, 99*time.Millisecond, stats.P99)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Snapshot{AllocBytes: 2048, AllocCount: 10, GCPauses: 1}, LatencyStats{Ticks: 3, P50: time.Millisecond})
	out := buf.String()
	assert.Contains(t, out, "Profiler Overhead")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "p50/p95/p99")
}
