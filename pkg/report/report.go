// Package report presents live ticks and the final per-function statistics.
package report

import (
	"fmt"
	"io"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/sampler"
)

// MainSentinel is displayed for ticks during which no instrumented function
// was active.
const MainSentinel = "<main>"

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatTSV   Format = "tsv"
)

// Reporter consumes the profiler's output: zero or more live ticks followed
// by exactly one terminal report. The engine serializes calls, so
// implementations need not be safe for concurrent use, and it guarantees
// Final is invoked exactly once, after the last Tick. One exception: if a
// Tick call blocks past the engine's join timeout, the engine gives up
// waiting and emits Final anyway, concurrently with the stuck Tick.
type Reporter interface {
	// Tick presents one live sample record.
	Tick(rec sampler.Record)
	// Final presents the full raw per-tick log and the sorted summaries.
	Final(log []sampler.Record, summaries []aggregate.Summary)
}

// New returns a reporter writing the given format to w.
func New(format Format, w io.Writer) (Reporter, error) {
	switch format {
	case FormatTable, "":
		return NewConsole(w), nil
	case FormatJSON:
		return NewJSON(w), nil
	case FormatTSV:
		return NewTSV(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// activeNames renders a record's active set for compact displays.
func activeNames(rec sampler.Record) string {
	if len(rec.Active) == 0 {
		return MainSentinel
	}
	out := ""
	for i, id := range rec.Active {
		if i > 0 {
			out += ", "
		}
		out += id.Name
	}
	return out
}
