package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/funcid"
	"github.com/profwatch/profwatch/pkg/sampler"
)

// JSON emits a machine-readable line protocol for a parent tool: one object
// per tick, then exactly one terminal object carrying the raw log and the
// sorted summaries.
type JSON struct {
	enc *json.Encoder
}

// NewJSON creates a JSON line-protocol reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

type tickMessage struct {
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	CPU             float64   `json:"cpu"`
	Mem             float64   `json:"mem"`
	ActiveFunctions []string  `json:"active_functions"`
}

type summaryMessage struct {
	Type      string              `json:"type"`
	Ticks     []sampler.Record    `json:"ticks"`
	Functions []aggregate.Summary `json:"functions"`
}

// Tick implements Reporter.
func (j *JSON) Tick(rec sampler.Record) {
	names := funcid.Names(rec.Active)
	if names == nil {
		names = []string{}
	}
	// Encoding a plain value struct cannot fail; a broken pipe just drops
	// live output, which the terminal message does not depend on.
	_ = j.enc.Encode(tickMessage{
		Type:            "tick",
		Timestamp:       rec.Time,
		CPU:             rec.CPUPercent,
		Mem:             rec.MemoryMB,
		ActiveFunctions: names,
	})
}

// Final implements Reporter.
func (j *JSON) Final(log []sampler.Record, summaries []aggregate.Summary) {
	if log == nil {
		log = []sampler.Record{}
	}
	if summaries == nil {
		summaries = []aggregate.Summary{}
	}
	_ = j.enc.Encode(summaryMessage{
		Type:      "summary",
		Ticks:     log,
		Functions: summaries,
	})
}
