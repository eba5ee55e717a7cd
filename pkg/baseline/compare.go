package baseline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/funcid"
)

// Severity indicates the magnitude of a metric drift.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityRegress  Severity = "regression"
)

// Metric names compared between runs.
const (
	MetricSpan   = "active_span"
	MetricAvgCPU = "avg_cpu"
	MetricAvgMem = "avg_mem"
	MetricCalls  = "calls"
)

// Comparison holds the drift analysis for one function metric.
type Comparison struct {
	ID          funcid.ID
	Metric      string
	BaselineVal float64
	CurrentVal  float64
	DeltaPct    float64
	Severity    Severity
}

var (
	blTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	blHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	blDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	blWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blMinor  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Compare matches functions by identifier and calculates drift for each
// tracked metric. Functions present only on one side are skipped; drift only
// makes sense for call sites both runs observed.
func Compare(base *Baseline, current []aggregate.Summary) []Comparison {
	baseMap := make(map[funcid.ID]aggregate.Summary, len(base.Functions))
	for _, f := range base.Functions {
		baseMap[f.ID] = f
	}

	var comparisons []Comparison
	for _, cur := range current {
		prev, ok := baseMap[cur.ID]
		if !ok {
			continue
		}
		comparisons = append(comparisons,
			compareMetric(cur.ID, MetricSpan, prev.ActiveSpan.Seconds(), cur.ActiveSpan.Seconds()),
			compareMetric(cur.ID, MetricAvgCPU, prev.AvgCPU, cur.AvgCPU),
			compareMetric(cur.ID, MetricAvgMem, prev.AvgMemory, cur.AvgMemory),
			compareMetric(cur.ID, MetricCalls, float64(prev.Calls), float64(cur.Calls)),
		)
	}
	return comparisons
}

func compareMetric(id funcid.ID, metric string, base, cur float64) Comparison {
	var deltaPct float64
	if base != 0 {
		deltaPct = ((cur - base) / math.Abs(base)) * 100
	} else if cur != 0 {
		deltaPct = 100
	}

	return Comparison{
		ID:          id,
		Metric:      metric,
		BaselineVal: base,
		CurrentVal:  cur,
		DeltaPct:    deltaPct,
		Severity:    classifySeverity(deltaPct),
	}
}

func classifySeverity(deltaPct float64) Severity {
	absDelta := math.Abs(deltaPct)
	if absDelta < 5 {
		return SeverityNone
	}
	if absDelta < 15 {
		return SeverityMinor
	}
	if absDelta < 30 {
		return SeverityModerate
	}
	if deltaPct > 0 {
		return SeverityRegress
	}
	return SeverityMajor
}

// RenderComparison outputs a styled comparison table.
func RenderComparison(w io.Writer, base *Baseline, comparisons []Comparison) {
	fmt.Fprintln(w, blTitle.Render("Baseline Comparison"))
	fmt.Fprintln(w, blDim.Render(strings.Repeat("═", 95)))
	fmt.Fprintf(w, "Comparing against %s (from %s)\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", base.Name)),
		blDim.Render(base.Timestamp.Format("2006-01-02 15:04:05")))

	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		blHeader.Render("FUNCTION                      "),
		blHeader.Render("METRIC       "),
		blHeader.Render("BASELINE  "),
		blHeader.Render("CURRENT   "),
		blHeader.Render("DELTA    "),
		blHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+blDim.Render(strings.Repeat("─", 95)))

	regressions := 0
	for _, c := range comparisons {
		deltaStr := fmt.Sprintf("%+.1f%%", c.DeltaPct)
		var sevStr string
		switch c.Severity {
		case SeverityRegress:
			sevStr = blErr.Render("REGRESSION")
			regressions++
		case SeverityMajor:
			sevStr = blErr.Render("MAJOR")
			regressions++
		case SeverityModerate:
			sevStr = blWarn.Render("moderate")
		case SeverityMinor:
			sevStr = blMinor.Render("minor")
		default:
			sevStr = blOK.Render("none")
		}

		fmt.Fprintf(w, "  %-31s %-14s %-12.2f %-12.2f %-10s %s\n",
			c.ID, c.Metric, c.BaselineVal, c.CurrentVal, deltaStr, sevStr)
	}

	fmt.Fprintln(w)
	if regressions > 0 {
		fmt.Fprintf(w, "  %s\n", blErr.Render(fmt.Sprintf("%d potential regressions detected.", regressions)))
	} else {
		fmt.Fprintf(w, "  %s\n", blOK.Render("No significant regressions detected."))
	}
}
