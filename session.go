package etrc

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/peterbourgon/etrc/internal/etrcutil"
	"github.com/zoobzio/clockz"
)

// Session writes events to a single trace file. Events are submitted by any
// number of goroutines, queued in memory, and written in submission order by a
// single background goroutine, so producers never wait on file I/O.
//
// The queue is unbounded. A session that receives events faster than it can
// write them will grow without limit.
type Session struct {
	id     string
	clock  clockz.Clock
	logger *log.Logger
	begin  time.Time
	done   chan struct{}

	mtx       sync.Mutex
	cond      *sync.Cond
	queue     []Event
	running   bool
	submitted uint64
	rejected  uint64

	written   atomic.Uint64
	discarded atomic.Uint64
	err       etrcutil.Atomic[error]

	stopOnce sync.Once
}

// SessionConfig defines the configuration parameters for a session.
type SessionConfig struct {
	// Filename of the trace file. The file is created, or truncated if it
	// already exists. Exactly one of Filename or Writer is required.
	Filename string

	// Writer receives trace file lines. If it implements io.Closer, it's
	// closed when the session stops. Exactly one of Filename or Writer is
	// required.
	Writer io.Writer

	// Clock is the source of time for the session, and every timer and named
	// trace that reports to it. Optional. By default, the real clock is used.
	Clock clockz.Clock

	// Logger receives warnings, like dropped starts on a named trace, or sink
	// write errors. Optional. By default, warnings are written to stderr.
	Logger *log.Logger
}

// NewSession creates a session writing to the given filename. The file is
// created, or truncated if it already exists. An error is returned if the file
// can't be opened.
func NewSession(filename string) (*Session, error) {
	return NewSessionConfig(SessionConfig{Filename: filename})
}

// NewSessionWriter creates a session writing to the given writer. If the
// writer implements io.Closer, it's closed when the session stops.
func NewSessionWriter(w io.Writer) *Session {
	s, _ := NewSessionConfig(SessionConfig{Writer: w}) // can't fail with a writer
	return s
}

// NewSessionConfig creates a session based on the provided config.
func NewSessionConfig(cfg SessionConfig) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockz.RealClock
	}

	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "etrc: ", log.LstdFlags)
	}

	var sink io.Writer
	switch {
	case cfg.Filename != "" && cfg.Writer != nil:
		return nil, fmt.Errorf("filename and writer are mutually exclusive")
	case cfg.Writer != nil:
		sink = cfg.Writer
	case cfg.Filename != "":
		f, err := os.Create(cfg.Filename)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		sink = f
	default:
		return nil, fmt.Errorf("filename or writer is required")
	}

	begin := cfg.Clock.Now()

	s := &Session{
		id:      ulid.MustNew(ulid.Now(), sessionIDEntropy).String(), // wall clock, not cfg.Clock
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		begin:   begin,
		done:    make(chan struct{}),
		running: true,
	}
	s.cond = sync.NewCond(&s.mtx)

	go s.loop(sink)

	return s, nil
}

var sessionIDEntropy = ulid.DefaultEntropy()

// ID returns a unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Start returns the time the session was created. Event offsets are relative
// to this time.
func (s *Session) Start() time.Time {
	return s.begin
}

// Now returns the current time according to the session's clock.
func (s *Session) Now() time.Time {
	return s.clock.Now()
}

// Submit queues an event with the given name, start, and end time. Start and
// end are converted to offsets from the start of the session. Submit is safe
// for concurrent use, and never waits on the trace file.
//
// Events submitted after Stop are dropped.
func (s *Session) Submit(name string, start, end time.Time) {
	ev := Event{
		Name:  name,
		Start: start.Sub(s.begin),
		End:   end.Sub(s.begin),
	}

	s.mtx.Lock()
	if !s.running {
		s.rejected++
		first := s.rejected == 1
		s.mtx.Unlock()
		if first {
			s.logger.Printf("session %s: %s: dropping event %s", s.id, ErrSessionStopped, name)
		}
		return
	}
	s.queue = append(s.queue, ev)
	s.submitted++
	s.mtx.Unlock()

	s.cond.Signal()
}

// Stop the session, and wait for every queued event to be written, and the
// trace file to be closed. Stop returns the first error encountered by the
// trace file, if any. It's safe to call Stop multiple times, and from multiple
// goroutines; every call waits for the same shutdown and returns the same
// result.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.mtx.Lock()
		s.running = false
		s.mtx.Unlock()

		s.cond.Broadcast()

		<-s.done
	})

	return s.err.Get()
}

// Err returns the first error encountered by the trace file, or nil. Once the
// trace file has failed, subsequent events are discarded.
func (s *Session) Err() error {
	return s.err.Get()
}

// SessionStats are point-in-time counters for a session.
type SessionStats struct {
	Submitted uint64 // accepted into the queue
	Written   uint64 // handed to the trace file
	Discarded uint64 // dequeued but not written, due to a sink error
	Rejected  uint64 // submitted after stop
	Queued    int    // currently waiting to be written
}

// Stats returns current counters for the session.
func (s *Session) Stats() SessionStats {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return SessionStats{
		Submitted: s.submitted,
		Written:   s.written.Load(),
		Discarded: s.discarded.Load(),
		Rejected:  s.rejected,
		Queued:    len(s.queue),
	}
}

func (s *Session) loop(sink io.Writer) {
	defer close(s.done)

	var (
		bw    = bufio.NewWriter(sink)
		line  = make([]byte, 0, 128)
		batch []Event
	)

	for {
		s.mtx.Lock()
		for len(s.queue) <= 0 && s.running {
			s.cond.Wait()
		}
		batch, s.queue = s.queue, batch[:0]
		running := s.running
		s.mtx.Unlock()

		for _, ev := range batch {
			if s.err.Get() != nil {
				s.discarded.Add(1)
				continue
			}
			line = ev.AppendLine(line[:0])
			if _, err := bw.Write(line); err != nil {
				s.fail(fmt.Errorf("write event: %w", err))
				s.discarded.Add(1)
				continue
			}
			s.written.Add(1)
		}

		if err := bw.Flush(); err != nil {
			s.fail(fmt.Errorf("flush trace file: %w", err))
		}

		clear(batch) // don't pin names until the next batch

		// Producers can't enqueue once running is false, so the batch we just
		// wrote was the last one.
		if !running {
			break
		}
	}

	if c, ok := sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.fail(fmt.Errorf("close trace file: %w", err))
		}
	}
}

func (s *Session) fail(err error) {
	if s.err.SetIfZero(err, func(err error) bool { return err == nil }) {
		s.logger.Printf("session %s: %v; discarding further events", s.id, err)
	}
}
