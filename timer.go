package etrc

import (
	"runtime"
	"strings"
	"sync"
	"time"
)

// Timer measures one execution of a function or region of code, and submits
// it to a session as a single event when finished. Timers are meant to be used
// once, typically via defer, which guarantees Finish is called on every return
// path, including panics.
//
//	func (s *Server) handle(req *Request) error {
//	    defer etrc.StartTimer(s.session, "handle").Finish()
//	    ...
//	}
type Timer struct {
	session *Session
	name    string
	started time.Time
	once    sync.Once
}

// StartTimer returns a running timer for the given signature. The event name is
// derived from the signature by [ExtractName], so a plain name like "handle"
// works as well as a full signature like "int pkg::handle(int a)".
func StartTimer(s *Session, signature string) *Timer {
	name := ExtractName(signature)
	return &Timer{
		session: s,
		name:    name,
		started: s.Now(),
	}
}

// StartFuncTimer returns a running timer named after the calling function, as
// reported by [FuncName].
func StartFuncTimer(s *Session) *Timer {
	name := unnamed
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = FuncName(fn.Name())
		}
	}
	return &Timer{
		session: s,
		name:    name,
		started: s.Now(),
	}
}

// Finish stops the timer and submits the event to the session. Only the first
// call has any effect.
func (t *Timer) Finish() {
	t.once.Do(func() {
		t.session.Submit(t.name, t.started, t.session.Now())
	})
}

// Name of the event the timer will submit.
func (t *Timer) Name() string {
	return t.name
}

// Started returns the time the timer was started.
func (t *Timer) Started() time.Time {
	return t.started
}

// Region is a convenience function that starts a timer with the given name,
// used as-is, and returns its Finish method.
//
//	finish := etrc.Region(session, "load config")
//	...
//	finish()
func Region(s *Session, name string) (finish func()) {
	t := &Timer{
		session: s,
		name:    name,
		started: s.Now(),
	}
	return t.Finish
}

// ExtractName derives a short event name from a function signature. It keeps
// the part before the first "(", then the part after the last space, which
// strips the parameter list and any return type. Finally, it keeps the part
// after the last "::", which strips namespace and class qualifiers.
//
//	"ReturnType Namespace::func(int a, char* b)" → "func"
//	"func()"                                      → "func"
func ExtractName(signature string) string {
	name := signature

	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}

	if i := strings.LastIndexByte(name, ' '); i >= 0 {
		name = name[i+1:]
	}

	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}

	return name
}

// FuncName shortens a fully-qualified Go function name, as reported by the
// runtime, to the final element of its package path, followed by the function
// or method name.
//
//	"github.com/peterbourgon/etrc_test.TestFoo"     → "etrc_test.TestFoo"
//	"example.com/pkg/server.(*Server).handle.func1" → "server.(*Server).handle.func1"
func FuncName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '/'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
