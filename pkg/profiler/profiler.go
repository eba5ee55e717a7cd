// Package profiler owns the profiling session: the shared call stack, the
// sampler, the hook adapter, and the report lifecycle. A session is an
// explicitly constructed object with a clear start/stop lifecycle; there is
// no ambient package-level state.
package profiler

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/profwatch/profwatch/pkg/aggregate"
	"github.com/profwatch/profwatch/pkg/callstack"
	"github.com/profwatch/profwatch/pkg/hook"
	"github.com/profwatch/profwatch/pkg/metrics"
	"github.com/profwatch/profwatch/pkg/overhead"
	"github.com/profwatch/profwatch/pkg/report"
	"github.com/profwatch/profwatch/pkg/sampler"
)

// Options configures a profiling session.
type Options struct {
	// SourceRoot is the target program's source tree; frames outside it are
	// not instrumented. Required.
	SourceRoot string
	// Source provides process metrics. Required.
	Source metrics.Source
	// Reporter consumes live ticks and the terminal report. Required.
	Reporter report.Reporter
	// Interval is the sampling period (default one second).
	Interval time.Duration
	// JoinTimeout bounds how long Stop waits for the sampling goroutine
	// before aggregating whatever was collected (default 2*Interval + 1s).
	JoinTimeout time.Duration
	Logger      *logrus.Logger
}

// Profiler is one profiling session. Construct with New, wire the hook into
// the instrumentation mechanism before the target starts, then Start; Stop
// ends sampling, aggregates, and emits the terminal report exactly once.
type Profiler struct {
	opts    Options
	logger  *logrus.Logger
	stack   *callstack.Stack
	adapter *hook.Adapter
	sampler *sampler.Sampler

	queue   *tickQueue
	drained chan struct{}

	mu        sync.Mutex
	started   bool
	stopOnce  sync.Once
	baseline  overhead.Snapshot
	summaries []aggregate.Summary
}

// New creates a session. The hook adapter is wired here, before the target
// can start, because installing it late would lose enter events and corrupt
// the counters; a session that cannot build its adapter is unusable and the
// run must abort.
func New(opts Options) (*Profiler, error) {
	if opts.Source == nil {
		return nil, errors.New("profiler: metrics source is required")
	}
	if opts.Reporter == nil {
		return nil, errors.New("profiler: reporter is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = sampler.DefaultInterval
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = 2*opts.Interval + time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetLevel(logrus.WarnLevel)
	}

	stack := callstack.New()
	adapter, err := hook.NewAdapter(opts.SourceRoot, stack)
	if err != nil {
		return nil, err
	}

	p := &Profiler{
		opts:    opts,
		logger:  opts.Logger,
		stack:   stack,
		adapter: adapter,
		queue:   newTickQueue(),
		drained: make(chan struct{}),
	}
	p.sampler = sampler.New(opts.Source, stack, p.queue.push, sampler.Options{
		Interval: opts.Interval,
		Logger:   opts.Logger,
	})
	return p, nil
}

// Hook returns the instrumentation callback. It must be installed in the
// host's hook mechanism before the target program starts executing and
// removed immediately after it finishes, even on failure.
func (p *Profiler) Hook() hook.Func {
	return p.adapter.Func()
}

// Trace instruments the calling function directly, for Go programs embedding
// the profiler: defer p.Trace()() at the top of a function body.
func (p *Profiler) Trace() func() {
	return p.adapter.Trace()
}

// Start begins sampling. The tick pump runs on its own goroutine so slow
// reporter consumption buffers instead of blocking the sampler; the queue
// grows rather than dropping ticks, so every record in the raw log also
// reaches the reporter.
func (p *Profiler) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("profiler: already started")
	}
	p.started = true
	p.mu.Unlock()

	p.baseline = overhead.Measure()

	p.logger.WithFields(logrus.Fields{
		"interval": p.opts.Interval,
		"root":     p.opts.SourceRoot,
	}).Debug("starting sampler")

	go p.pump()
	p.sampler.Start()
	return nil
}

// Stop ends the session: it signals the sampler (idempotently), joins it
// with a bounded timeout, aggregates, and emits the terminal report. Calling
// Stop again is a no-op; the terminal report is emitted exactly once even if
// the sampler already stopped itself because metrics became unavailable.
func (p *Profiler) Stop() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}

	p.stopOnce.Do(func() {
		p.sampler.Stop()
		if !p.sampler.Wait(p.opts.JoinTimeout) {
			// Proceed with whatever was collected rather than hanging; the
			// cancelled context keeps the stuck goroutine from taking any
			// further snapshot once it unblocks.
			p.logger.Warn("sampler did not stop in time, aggregating partial data")
		}

		p.queue.close()
		select {
		case <-p.drained:
		case <-time.After(p.opts.JoinTimeout):
			// Final will overlap the stuck Tick; report.Reporter documents
			// this as the one exception to the after-the-last-Tick ordering.
			p.logger.Warn("reporter did not drain in time")
		}

		p.summaries = aggregate.Summarize(p.sampler.Series(), p.stack.Counts())
		p.opts.Reporter.Final(p.sampler.Log(), p.summaries)
	})
}

// Run profiles fn: it starts the session, executes fn with the hook active,
// and stops the session when fn returns, panicking or not.
func (p *Profiler) Run(fn func()) error {
	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()
	fn()
	return nil
}

// Summaries returns the aggregated per-function statistics. Valid after Stop.
func (p *Profiler) Summaries() []aggregate.Summary {
	return p.summaries
}

// Log returns the raw per-tick log. Valid after Stop.
func (p *Profiler) Log() []sampler.Record {
	return p.sampler.Log()
}

// Overhead reports the profiler's own allocation cost and per-tick
// processing latencies. Valid after Stop.
func (p *Profiler) Overhead() (overhead.Snapshot, overhead.LatencyStats) {
	return overhead.Measure().Since(p.baseline), overhead.Latencies(p.sampler.TickLatencies())
}

// pump forwards buffered ticks to the reporter until the queue closes.
func (p *Profiler) pump() {
	defer close(p.drained)
	for {
		rec, ok := p.queue.pop()
		if !ok {
			return
		}
		p.opts.Reporter.Tick(rec)
	}
}
