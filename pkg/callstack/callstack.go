// Package callstack tracks which instrumented functions are currently active
// in the target program, together with cumulative call counts.
package callstack

import (
	"sync"

	"github.com/profwatch/profwatch/pkg/funcid"
)

// Stack is the shared structure mutated by the instrumentation hook on every
// function entry/exit and read by the sampler on every tick. All operations
// take the internal lock for the duration of a single operation only; the raw
// frame sequence never escapes the lock.
//
// The hook is the sole writer. Recursive or repeated calls to the same call
// site produce duplicate frames, which collapse to a single active marker at
// snapshot time.
type Stack struct {
	mu     sync.Mutex
	frames []funcid.ID
	counts map[funcid.ID]int
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{
		counts: make(map[funcid.ID]int),
	}
}

// Push records a function entry and increments the call counter for id.
// Counters only ever increase.
func (s *Stack) Push(id funcid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = append(s.frames, id)
	s.counts[id]++
}

// RemoveOne records a function exit by removing one occurrence of id,
// scanning from the tail so the most deeply nested occurrence goes first
// under recursion. An exit with no matching frame is a no-op: call-frame
// filtering can legitimately produce unmatched exits.
func (s *Stack) RemoveOne(id funcid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i] == id {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return
		}
	}
}

// SnapshotActive returns the deduplicated, sorted set of currently active
// identifiers. An empty slice means the target is idle at top level.
func (s *Stack) SnapshotActive() []funcid.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return nil
	}

	seen := make(map[funcid.ID]struct{}, len(s.frames))
	active := make([]funcid.ID, 0, len(s.frames))
	for _, id := range s.frames {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		active = append(active, id)
	}
	funcid.Sort(active)
	return active
}

// Counts returns a copy of the call counters.
func (s *Stack) Counts() map[funcid.ID]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[funcid.ID]int, len(s.counts))
	for id, n := range s.counts {
		counts[id] = n
	}
	return counts
}

// Depth returns the current number of frames, duplicates included.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}
