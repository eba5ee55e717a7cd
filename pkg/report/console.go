package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/sampler"
)

var (
	conTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	conHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	conCell   = lipgloss.NewStyle().Padding(0, 1)
	conDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	conHot    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// trailLen is the rolling window for the cpu and memory sparklines.
const trailLen = 40

// Console renders live tick lines while the run is in progress, then the
// per-tick table and function statistics once sampling ends.
type Console struct {
	w         io.Writer
	cpuTrail  trail
	memTrail  trail
	headerOut bool
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:        w,
		cpuTrail: trail{max: trailLen},
		memTrail: trail{max: trailLen},
	}
}

// Tick implements Reporter, printing one compact live line per sample.
func (c *Console) Tick(rec sampler.Record) {
	if !c.headerOut {
		fmt.Fprintln(c.w, conTitle.Render("Real-Time Resource Usage"))
		c.headerOut = true
	}
	c.cpuTrail.push(rec.CPUPercent)
	c.memTrail.push(rec.MemoryMB)
	fmt.Fprintf(c.w, "  %s  cpu %5.1f%%  mem %7.1fMB  %s\n",
		rec.Time.Format("15:04:05"), rec.CPUPercent, rec.MemoryMB, activeNames(rec))
}

// Final implements Reporter.
func (c *Console) Final(log []sampler.Record, summaries []aggregate.Summary) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, conTitle.Render("Per-Tick Resource Usage"))
	fmt.Fprintln(c.w, strings.Repeat("═", 60))
	if spark := c.cpuTrail.sparkline(); spark != "" {
		fmt.Fprintf(c.w, "cpu %s  mem %s\n", spark, c.memTrail.sparkline())
	}

	tickRows := make([][]string, len(log))
	for i, rec := range log {
		tickRows[i] = []string{
			rec.Time.Format("15:04:05"),
			fmt.Sprintf("%.1f", rec.CPUPercent),
			fmt.Sprintf("%.1f", rec.MemoryMB),
			activeNames(rec),
		}
	}
	fmt.Fprintln(c.w, buildTable(
		[]string{"TIME", "CPU%", "MEM(MB)", "ACTIVE FUNCTIONS"}, tickRows, nil))

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, conTitle.Render("Function Statistics"))
	fmt.Fprintln(c.w, strings.Repeat("═", 60))
	if len(summaries) == 0 {
		fmt.Fprintln(c.w, conDim.Render("no instrumented functions observed"))
		return
	}

	rows := make([][]string, len(summaries))
	rowStyles := make([]lipgloss.Style, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.ID.String(),
			strconv.Itoa(s.Calls),
			formatSpan(s.ActiveSpan),
			fmt.Sprintf("%.1f", s.AvgCPU),
			fmt.Sprintf("%.1f", s.PeakCPU),
			fmt.Sprintf("%.1f", s.AvgMemory),
			fmt.Sprintf("%.1f", s.PeakMemory),
		}
		switch {
		case s.Samples == 0:
			// Called but never caught on a tick; worth a dim row, not silence.
			rowStyles[i] = conDim.Padding(0, 1)
		case s.ActiveSpan > 0 && s.ActiveSpan == summaries[0].ActiveSpan:
			rowStyles[i] = conHot.Padding(0, 1)
		default:
			rowStyles[i] = conCell
		}
	}
	fmt.Fprintln(c.w, buildTable(
		[]string{"FUNCTION", "CALLS", "TOTAL TIME", "AVG CPU%", "MAX CPU%", "AVG MEM", "MAX MEM"},
		rows, rowStyles))
}

// buildTable constructs a bordered table with the shared header style and an
// optional per-row style override.
func buildTable(headers []string, rows [][]string, rowStyles []lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return conHeader
			}
			if row >= 0 && row < len(rowStyles) {
				return rowStyles[row]
			}
			return conCell
		}).
		Headers(headers...).
		Rows(rows...)
}

// formatSpan renders an active span with second precision that still shows
// sub-second spans from dense mode.
func formatSpan(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.Round(time.Millisecond).String()
}
