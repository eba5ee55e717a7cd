package hook

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profwatch/profwatch/pkg/callstack"
	"github.com/profwatch/profwatch/pkg/funcid"
)

func newTestAdapter(t *testing.T, root string) (*Adapter, *callstack.Stack) {
	t.Helper()
	stack := callstack.New()
	a, err := NewAdapter(root, stack)
	require.NoError(t, err)
	return a, stack
}

func TestParseEvent(t *testing.T) {
	assert.Equal(t, EventEnter, ParseEvent("call"))
	assert.Equal(t, EventEnter, ParseEvent("enter"))
	assert.Equal(t, EventExit, ParseEvent("return"))
	assert.Equal(t, EventExit, ParseEvent("exit"))
	assert.Equal(t, EventUnknown, ParseEvent("line"))
	assert.Equal(t, EventUnknown, ParseEvent(""))
}

func TestHandleFiltersForeignFrames(t *testing.T) {
	root := t.TempDir()
	a, stack := newTestAdapter(t, root)

	// Library frame outside the target tree.
	a.Handle("/usr/lib/runtime/sched.go", "schedule", 100, EventEnter)
	assert.Equal(t, 0, stack.Depth())

	// Module pseudo-frame inside the tree.
	a.Handle(filepath.Join(root, "main.go"), "<module>", 1, EventEnter)
	assert.Equal(t, 0, stack.Depth())

	// Nameless frame.
	a.Handle(filepath.Join(root, "main.go"), "", 1, EventEnter)
	assert.Equal(t, 0, stack.Depth())

	// Admitted frame.
	a.Handle(filepath.Join(root, "main.go"), "work", 12, EventEnter)
	assert.Equal(t, 1, stack.Depth())
}

func TestHandlePrefixMatchIsPathAware(t *testing.T) {
	root := t.TempDir()
	a, stack := newTestAdapter(t, root)

	// A sibling directory sharing the root as a string prefix must not match.
	a.Handle(root+"-vendor/lib.go", "helper", 3, EventEnter)
	assert.Equal(t, 0, stack.Depth())

	a.Handle(filepath.Join(root, "sub", "lib.go"), "helper", 3, EventEnter)
	assert.Equal(t, 1, stack.Depth())
}

func TestHandleUnknownEventDiscarded(t *testing.T) {
	root := t.TempDir()
	a, stack := newTestAdapter(t, root)

	a.Handle(filepath.Join(root, "main.go"), "work", 12, EventUnknown)
	assert.Equal(t, 0, stack.Depth())
	assert.Empty(t, stack.Counts())
}

func TestHandleUnmatchedExitTolerated(t *testing.T) {
	root := t.TempDir()
	a, stack := newTestAdapter(t, root)

	a.Handle(filepath.Join(root, "main.go"), "work", 12, EventExit)
	assert.Equal(t, 0, stack.Depth())
}

func TestHandleCountsEnterEventsOnly(t *testing.T) {
	root := t.TempDir()
	a, stack := newTestAdapter(t, root)
	main := filepath.Join(root, "main.go")

	// foo called twice, bar once; bar returns, foo's exits unmatched by one.
	a.Handle(main, "foo", 10, EventEnter)
	a.Handle(main, "foo", 10, EventEnter)
	a.Handle(main, "bar", 20, EventEnter)
	a.Handle(main, "bar", 20, EventExit)
	a.Handle(main, "foo", 10, EventExit)

	counts := stack.Counts()
	assert.Equal(t, 2, counts[funcid.New(main, "foo", 10)])
	assert.Equal(t, 1, counts[funcid.New(main, "bar", 20)])

	active := stack.SnapshotActive()
	require.Len(t, active, 1)
	assert.Equal(t, "foo", active[0].Name)
}

func TestTraceRecordsCallerAndExit(t *testing.T) {
	// Root the adapter at this package's source directory so the test file
	// itself passes the filter.
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)

	a, stack := newTestAdapter(t, filepath.Dir(file))

	done := a.Trace()
	require.Equal(t, 1, stack.Depth())

	active := stack.SnapshotActive()
	require.Len(t, active, 1)
	assert.Equal(t, "hook_test.go", active[0].File)

	done()
	assert.Equal(t, 0, stack.Depth())
	assert.Len(t, stack.Counts(), 1)
}
