// Package hook adapts raw function entry/exit notifications from an
// instrumentation feed into call-stack mutations.
package hook

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/profwatch/profwatch/pkg/callstack"
	"github.com/profwatch/profwatch/pkg/funcid"
)

// Event classifies one instrumentation notification.
type Event int

const (
	// EventUnknown marks a notification that cannot be classified. It is
	// discarded silently.
	EventUnknown Event = iota
	// EventEnter marks a function call.
	EventEnter
	// EventExit marks a function return.
	EventExit
)

// ParseEvent maps the wire names used by settrace-style feeds onto Event.
// Anything unrecognized is EventUnknown.
func ParseEvent(kind string) Event {
	switch kind {
	case "call", "enter":
		return EventEnter
	case "return", "exit":
		return EventExit
	default:
		return EventUnknown
	}
}

// moduleFrame is the pseudo-frame name settrace-style feeds report for
// top-level module code. It is never an instrumentable function.
const moduleFrame = "<module>"

// Func is the callback shape the instrumentation mechanism invokes for every
// call/return in the process. The adapter filters out frames that do not
// belong to the target program.
type Func func(file, function string, line int, event Event)

// Adapter filters instrumentation events down to the target program's own
// source tree and applies admitted events to the shared call stack. It is the
// sole writer of the stack and its counters.
type Adapter struct {
	root  string
	stack *callstack.Stack
}

// NewAdapter creates an adapter admitting only frames whose file path lies
// under root. Root is resolved to an absolute path once, up front.
func NewAdapter(root string, stack *callstack.Stack) (*Adapter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve source root %q: %w", root, err)
	}
	return &Adapter{root: abs, stack: stack}, nil
}

// Handle processes one instrumentation event. Frames outside the source root,
// module pseudo-frames, and unclassifiable events are dropped without
// touching the stack. An exit that matches no active frame is a no-op.
func (a *Adapter) Handle(file, function string, line int, event Event) {
	if !a.admit(file, function) {
		return
	}

	id := funcid.New(file, function, line)
	switch event {
	case EventEnter:
		a.stack.Push(id)
	case EventExit:
		a.stack.RemoveOne(id)
	}
}

// Func returns Handle as a plain callback for the instrumentation mechanism.
func (a *Adapter) Func() Func {
	return a.Handle
}

func (a *Adapter) admit(file, function string) bool {
	if function == "" || function == moduleFrame {
		return false
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	if abs == a.root {
		return true
	}
	return strings.HasPrefix(abs, a.root+string(filepath.Separator))
}
