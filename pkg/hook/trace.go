package hook

import (
	"runtime"
	"strings"
)

// Trace records entry of the calling function and returns a closure to defer
// for the matching exit. It is the in-process instrumentation feed for Go
// programs embedding the profiler:
//
//	func work() {
//		defer adapter.Trace()()
//		...
//	}
//
// The caller's file, function name, and line are resolved via the runtime;
// the usual source-root filter applies, so frames outside the target tree
// are ignored.
func (a *Adapter) Trace() func() {
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	name := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = shortFuncName(fn.Name())
	}

	a.Handle(file, name, line, EventEnter)
	return func() {
		a.Handle(file, name, line, EventExit)
	}
}

// shortFuncName strips the import path from a runtime function name,
// keeping the package-qualified form (e.g. "main.work" or "sampler.(*S).run").
func shortFuncName(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		return full[i+1:]
	}
	return full
}
