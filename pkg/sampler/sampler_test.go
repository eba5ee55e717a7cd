package sampler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profwatch/profwatch/pkg/callstack"
	"github.com/profwatch/profwatch/pkg/funcid"
	"github.com/profwatch/profwatch/pkg/metrics"
)

// scriptedSource replays a fixed sequence of readings, then keeps returning
// the final error (ErrUnavailable by default). It respects context
// cancellation like a real blocking source.
type scriptedSource struct {
	mu       sync.Mutex
	readings []metrics.Reading
	err      error
	calls    int
}

func (s *scriptedSource) Sample(ctx context.Context, interval time.Duration) (metrics.Reading, error) {
	select {
	case <-ctx.Done():
		return metrics.Reading{}, ctx.Err()
	case <-time.After(interval):
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.readings) {
		err := s.err
		if err == nil {
			err = metrics.ErrUnavailable
		}
		return metrics.Reading{}, err
	}
	r := s.readings[s.calls]
	s.calls++
	return r, nil
}

func TestSamplerRecordsAndStopsOnUnavailable(t *testing.T) {
	src := &scriptedSource{readings: []metrics.Reading{
		{CPUPercent: 10, MemoryMB: 100},
		{CPUPercent: 20, MemoryMB: 110},
	}}
	stack := callstack.New()
	foo := funcid.New("main.go", "foo", 10)
	stack.Push(foo)

	var emitted []Record
	s := New(src, stack, func(r Record) { emitted = append(emitted, r) }, Options{
		Interval: time.Millisecond,
	})
	s.Start()

	// The third read raises ErrUnavailable; the loop must end on its own.
	require.True(t, s.Wait(2*time.Second), "sampler did not stop after metrics became unavailable")

	log := s.Log()
	require.Len(t, log, 2)
	assert.Equal(t, 10.0, log[0].CPUPercent)
	assert.Equal(t, 110.0, log[1].MemoryMB)
	assert.Equal(t, []funcid.ID{foo}, log[0].Active)

	// Both ticks were emitted, in order, matching the raw log.
	require.Len(t, emitted, 2)
	assert.Equal(t, log, emitted)

	series := s.Series()
	require.Len(t, series[foo], 2)
	assert.Equal(t, 20.0, series[foo][1].CPUPercent)

	assert.Len(t, s.TickLatencies(), 2)
}

func TestSamplerStopMidTick(t *testing.T) {
	// A long interval guarantees Stop arrives during the blocking window.
	src := &scriptedSource{readings: []metrics.Reading{{CPUPercent: 1}}}
	s := New(src, callstack.New(), nil, Options{Interval: time.Minute})
	s.Start()

	time.Sleep(10 * time.Millisecond)
	s.Stop()
	s.Stop() // idempotent

	require.True(t, s.Wait(time.Second), "sampler did not exit promptly after Stop")
	assert.Empty(t, s.Log(), "no snapshot may be taken after stop")
}

func TestSamplerIdleTickHasEmptyActiveSet(t *testing.T) {
	src := &scriptedSource{readings: []metrics.Reading{{CPUPercent: 5, MemoryMB: 50}}}
	s := New(src, callstack.New(), nil, Options{Interval: time.Millisecond})
	s.Start()
	require.True(t, s.Wait(2*time.Second))

	log := s.Log()
	require.Len(t, log, 1)
	assert.Empty(t, log[0].Active)
	assert.Empty(t, s.Series())
}
