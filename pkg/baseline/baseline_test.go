package baseline

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/funcid"
)

var fooID = funcid.ID{File: "main.go", Name: "foo", Line: 10}

func testSummaries() []aggregate.Summary {
	return []aggregate.Summary{
		{ID: fooID, Calls: 4, Samples: 8, ActiveSpan: 2 * time.Second, AvgCPU: 25, PeakCPU: 60, AvgMemory: 100, PeakMemory: 130},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	b := NewBaseline("release-1", time.Second, testSummaries())
	require.NoError(t, b.Save(dir))

	loaded, err := Load("release-1", dir)
	require.NoError(t, err)
	assert.Equal(t, b.Name, loaded.Name)
	assert.Equal(t, b.Interval, loaded.Interval)
	require.Len(t, loaded.Functions, 1)
	assert.Equal(t, fooID, loaded.Functions[0].ID)
	assert.Equal(t, 2*time.Second, loaded.Functions[0].ActiveSpan)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("nope", t.TempDir())
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	names, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, NewBaseline("a", time.Second, nil).Save(dir))
	require.NoError(t, NewBaseline("b", time.Second, nil).Save(dir))

	names, err = List(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestCompareDetectsDrift(t *testing.T) {
	base := NewBaseline("base", time.Second, testSummaries())

	current := []aggregate.Summary{
		{ID: fooID, Calls: 4, ActiveSpan: 3 * time.Second, AvgCPU: 25, AvgMemory: 100},
		{ID: funcid.ID{File: "new.go", Name: "newFn", Line: 1}, Calls: 1},
	}

	comparisons := Compare(base, current)
	// Only foo is on both sides: four metrics compared.
	require.Len(t, comparisons, 4)

	byMetric := map[string]Comparison{}
	for _, c := range comparisons {
		byMetric[c.Metric] = c
	}

	span := byMetric[MetricSpan]
	assert.InDelta(t, 50.0, span.DeltaPct, 0.01)
	assert.Equal(t, SeverityRegress, span.Severity)

	assert.Equal(t, SeverityNone, byMetric[MetricAvgCPU].Severity)
	assert.Equal(t, SeverityNone, byMetric[MetricCalls].Severity)
}

func TestCompareZeroBaselineValue(t *testing.T) {
	base := NewBaseline("base", time.Second, []aggregate.Summary{{ID: fooID}})
	current := []aggregate.Summary{{ID: fooID, AvgCPU: 10}}

	byMetric := map[string]Comparison{}
	for _, c := range Compare(base, current) {
		byMetric[c.Metric] = c
	}
	assert.InDelta(t, 100.0, byMetric[MetricAvgCPU].DeltaPct, 0.01)
}

func TestRenderComparison(t *testing.T) {
	base := NewBaseline("base", time.Second, testSummaries())
	current := []aggregate.Summary{
		{ID: fooID, Calls: 4, ActiveSpan: 3 * time.Second, AvgCPU: 25, AvgMemory: 100},
	}

	var buf bytes.Buffer
	RenderComparison(&buf, base, Compare(base, current))
	out := buf.String()
	assert.Contains(t, out, "Baseline Comparison")
	assert.Contains(t, out, "main.go:foo:10")
	assert.Contains(t, out, "regressions detected")
}
