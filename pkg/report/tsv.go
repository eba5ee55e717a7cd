package report

import (
	"fmt"
	"io"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/sampler"
)

// TSV writes tab-separated output for scripting. Tick lines carry the live
// readings; Final appends the function statistics block.
type TSV struct {
	w         io.Writer
	headerOut bool
}

// NewTSV creates a TSV reporter writing to w.
func NewTSV(w io.Writer) *TSV {
	return &TSV{w: w}
}

// Tick implements Reporter.
func (t *TSV) Tick(rec sampler.Record) {
	if !t.headerOut {
		fmt.Fprintln(t.w, "time\tcpu\tmem\tactive")
		t.headerOut = true
	}
	fmt.Fprintf(t.w, "%s\t%.1f\t%.1f\t%s\n",
		rec.Time.Format("15:04:05"), rec.CPUPercent, rec.MemoryMB, activeNames(rec))
}

// Final implements Reporter.
func (t *TSV) Final(log []sampler.Record, summaries []aggregate.Summary) {
	fmt.Fprintln(t.w, "function\tcalls\ttotal_time\tavg_cpu\tmax_cpu\tavg_mem\tmax_mem")
	for _, s := range summaries {
		fmt.Fprintf(t.w, "%s\t%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
			s.ID, s.Calls, s.ActiveSpan, s.AvgCPU, s.PeakCPU, s.AvgMemory, s.PeakMemory)
	}
}
