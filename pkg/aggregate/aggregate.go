// Package aggregate reduces the raw sample series and call counters into
// per-function summaries once sampling has finished.
package aggregate

import (
	"sort"
	"time"

	"github.com/profwatch/profwatch/pkg/funcid"
	"github.com/profwatch/profwatch/pkg/sampler"
)

// Summary holds the aggregated statistics for one function.
//
// ActiveSpan measures wall-clock presence — the distance between the first
// and last tick in which the function was observed on the stack — not
// cumulative execution time. Samples are coarse; this is not a CPU-time
// attribution.
type Summary struct {
	ID         funcid.ID     `json:"id"`
	Calls      int           `json:"calls"`
	Samples    int           `json:"samples"`
	ActiveSpan time.Duration `json:"active_span_ns"`
	AvgCPU     float64       `json:"avg_cpu"`
	PeakCPU    float64       `json:"peak_cpu"`
	AvgMemory  float64       `json:"avg_mem"`
	PeakMemory float64       `json:"peak_mem"`
}

// Summarize computes one Summary per function over the union of the sample
// series and the call counters. A function that was called but never caught
// on any tick (it returned within one sampling period) still appears, with
// calls>0 and zero timing fields; it must not silently vanish.
//
// The inputs are treated as immutable, so Summarize is pure and idempotent.
func Summarize(series sampler.Series, counts map[funcid.ID]int) []Summary {
	ids := make(map[funcid.ID]struct{}, len(counts))
	for id := range series {
		ids[id] = struct{}{}
	}
	for id := range counts {
		ids[id] = struct{}{}
	}

	summaries := make([]Summary, 0, len(ids))
	for id := range ids {
		summaries = append(summaries, summarizeOne(id, series[id], counts[id]))
	}

	Sort(summaries)
	return summaries
}

func summarizeOne(id funcid.ID, points []sampler.Point, calls int) Summary {
	s := Summary{
		ID:      id,
		Calls:   calls,
		Samples: len(points),
	}
	if len(points) == 0 {
		return s
	}

	s.ActiveSpan = points[len(points)-1].Time.Sub(points[0].Time)

	var sumCPU, sumMem float64
	for _, p := range points {
		sumCPU += p.CPUPercent
		sumMem += p.MemoryMB
		if p.CPUPercent > s.PeakCPU {
			s.PeakCPU = p.CPUPercent
		}
		if p.MemoryMB > s.PeakMemory {
			s.PeakMemory = p.MemoryMB
		}
	}
	n := float64(len(points))
	s.AvgCPU = sumCPU / n
	s.AvgMemory = sumMem / n
	return s
}

// Sort orders summaries for presentation: ActiveSpan descending, ties broken
// by call count descending, then identifier ascending, so output is
// deterministic.
func Sort(summaries []Summary) {
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.ActiveSpan != b.ActiveSpan {
			return a.ActiveSpan > b.ActiveSpan
		}
		if a.Calls != b.Calls {
			return a.Calls > b.Calls
		}
		return a.ID.Less(b.ID)
	})
}
