package profiler

import (
	"sync"

	"github.com/profwatch/profwatch/pkg/sampler"
)

// tickQueue is the expand-buffer policy between the sampler and the
// reporter: push never blocks, so a slow reporter can never stall a tick or
// deadlock the stop path, and no tick recorded in the raw log is dropped
// from the live stream.
type tickQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []sampler.Record
	closed bool
}

func newTickQueue() *tickQueue {
	q := &tickQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a record. Pushes after close are ignored.
func (q *tickQueue) push(rec sampler.Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, rec)
	q.cond.Signal()
}

// pop blocks until a record is available or the queue is closed and empty.
func (q *tickQueue) pop() (sampler.Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return sampler.Record{}, false
	}
	rec := q.items[0]
	q.items = q.items[1:]
	return rec, true
}

// close wakes any blocked pop; remaining items are still delivered first.
func (q *tickQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
