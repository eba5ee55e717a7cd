// Package sampler runs the periodic measurement loop: one process-wide
// reading plus one call-stack snapshot per tick, folded into per-function
// sample series.
package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/profwatch/profwatch/pkg/callstack"
	"github.com/profwatch/profwatch/pkg/funcid"
	"github.com/profwatch/profwatch/pkg/metrics"
)

// DefaultInterval is the mature once-per-second sampling period.
const DefaultInterval = time.Second

// DenseInterval is the finer-grained 50ms mode.
const DenseInterval = 50 * time.Millisecond

// Point is one (time, cpu, mem) sample attributed to a function.
type Point struct {
	Time       time.Time `json:"timestamp"`
	CPUPercent float64   `json:"cpu"`
	MemoryMB   float64   `json:"mem"`
}

// Record is one tick: a process-wide reading plus the set of functions active
// when the reading completed. Records are immutable once appended.
type Record struct {
	Time       time.Time   `json:"timestamp"`
	CPUPercent float64     `json:"cpu"`
	MemoryMB   float64     `json:"mem"`
	Active     []funcid.ID `json:"active_functions"`
}

// Series maps each function to the ordered samples taken while it was active.
type Series map[funcid.ID][]Point

// Options configures a Sampler.
type Options struct {
	// Interval is the tick period; it is also the CPU measurement window,
	// since the metrics source blocks for the interval (see metrics.Source).
	Interval time.Duration
	Logger   *logrus.Logger
}

// Sampler drives the measurement loop on its own goroutine. The raw log and
// series are owned by that goroutine and must only be read after Wait has
// reported a successful join.
type Sampler struct {
	interval time.Duration
	source   metrics.Source
	stack    *callstack.Stack
	logger   *logrus.Logger
	emit     func(Record)

	log       []Record
	series    Series
	latencies []time.Duration

	cancel context.CancelFunc
	ctx    context.Context
	done   chan struct{}
}

// New creates a sampler reading from source and snapshotting stack. emit is
// invoked once per tick, synchronously from the sampling goroutine, and must
// not block; callers needing buffering wrap it (see pkg/profiler).
func New(source metrics.Source, stack *callstack.Stack, emit func(Record), opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetLevel(logrus.WarnLevel)
	}
	if emit == nil {
		emit = func(Record) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Sampler{
		interval: opts.Interval,
		source:   source,
		stack:    stack,
		logger:   opts.Logger,
		emit:     emit,
		series:   make(Series),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the sampling goroutine.
func (s *Sampler) Start() {
	go s.run()
}

// Stop signals the loop to finish. It is idempotent and returns immediately;
// the loop exits within one sampling period because the in-flight metrics
// read observes the cancelled context.
func (s *Sampler) Stop() {
	s.cancel()
}

// Wait blocks until the sampling goroutine has exited, up to timeout.
// It reports whether the join completed.
func (s *Sampler) Wait(timeout time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Log returns the raw per-tick log. Only valid after Wait succeeds.
func (s *Sampler) Log() []Record {
	return s.log
}

// Series returns the per-function sample series. Only valid after Wait
// succeeds.
func (s *Sampler) Series() Series {
	return s.series
}

// TickLatencies returns the per-tick processing cost (snapshot and fold,
// excluding the blocking measurement window). Only valid after Wait succeeds.
func (s *Sampler) TickLatencies() []time.Duration {
	return s.latencies
}

func (s *Sampler) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// The metrics read blocks for the interval and happens outside any
		// lock, so the hook never waits on slow instrumentation.
		reading, err := s.source.Sample(s.ctx, s.interval)
		if s.ctx.Err() != nil {
			// Stopped mid-tick: no further snapshots.
			return
		}
		if err != nil {
			if errors.Is(err, metrics.ErrUnavailable) {
				s.logger.WithError(err).Info("target no longer measurable, stopping sampler")
			} else {
				s.logger.WithError(err).Warn("metrics read failed, stopping sampler")
			}
			return
		}

		start := time.Now()
		active := s.stack.SnapshotActive()

		rec := Record{
			Time:       start,
			CPUPercent: reading.CPUPercent,
			MemoryMB:   reading.MemoryMB,
			Active:     active,
		}
		s.log = append(s.log, rec)
		for _, id := range active {
			s.series[id] = append(s.series[id], Point{
				Time:       rec.Time,
				CPUPercent: rec.CPUPercent,
				MemoryMB:   rec.MemoryMB,
			})
		}
		s.latencies = append(s.latencies, time.Since(start))

		s.emit(rec)
	}
}
