// Package etrc provides lightweight execution tracing to a file. It's meant
// for measuring how long functions and regions of code take, in a running
// program, with as little overhead as possible on the measured path.
//
// Everything starts with a [Session], which owns a single trace file. Events
// submitted to a session are queued in memory, and written by a background
// goroutine, so the code being measured never waits on disk I/O. Each event is
// one line in the trace file.
//
//	<name> <start_ns> <end_ns>
//
// Start and end are integer nanosecond offsets from the start of the session.
//
// There are two ways to produce events. A [Timer] measures a single call or
// region, and is usually used with defer.
//
//	func process(s *etrc.Session, job Job) error {
//	    defer etrc.StartFuncTimer(s).Finish()
//	    ...
//	}
//
// A [NamedTrace] measures an operation that starts in one place and ends in
// another, possibly on a different goroutine. Starts and ends are paired in
// first-in, first-out order. A [Registry] makes named traces available by
// identifier, so the start and end sites don't need to share a reference.
//
//	reg := etrc.NewRegistry()
//	reg.Register("frame", session)
//	...
//	reg.Start("frame") // in the producer
//	...
//	reg.End("frame") // in the consumer
//
// Stopping the session flushes every queued event and closes the file. Trace
// files can be analyzed with package [github.com/peterbourgon/etrc/etrcstat],
// or the etrc command.
package etrc
