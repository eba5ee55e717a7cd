// Package overhead measures the profiler's own cost so an always-on
// deployment can be validated against its target's budget.
package overhead

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Snapshot holds the tool's own resource usage counters.
type Snapshot struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

// Measure reads the current allocation and GC counters.
func Measure() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Snapshot{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
	}
}

// Since returns the counter deltas accumulated after an earlier snapshot.
func (s Snapshot) Since(start Snapshot) Snapshot {
	return Snapshot{
		AllocBytes: s.AllocBytes - start.AllocBytes,
		AllocCount: s.AllocCount - start.AllocCount,
		GCPauses:   s.GCPauses - start.GCPauses,
	}
}

// LatencyStats summarizes per-tick processing latencies.
type LatencyStats struct {
	Ticks int
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Latencies computes percentiles over the sampler's tick processing times
// (snapshot and fold only; the blocking measurement window is excluded).
func Latencies(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyStats{
		Ticks: len(sorted),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
	}
}

var (
	ovTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	ovDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ovBold  = lipgloss.NewStyle().Bold(true)
)

// Render outputs a styled overhead section.
func Render(w io.Writer, usage Snapshot, ticks LatencyStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ovTitle.Render("Profiler Overhead"))
	fmt.Fprintln(w, ovDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", ovBold.Render(formatBytes(usage.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", ovBold.Render(fmt.Sprintf("%d", usage.AllocCount)))
	fmt.Fprintf(w, "  GC pauses:        %s\n", ovBold.Render(fmt.Sprintf("%d", usage.GCPauses)))
	if ticks.Ticks > 0 {
		fmt.Fprintf(w, "  Tick cost (p50/p95/p99 over %d ticks): %v / %v / %v\n",
			ticks.Ticks, ticks.P50, ticks.P95, ticks.P99)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
