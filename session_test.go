package etrc_test

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peterbourgon/etrc"
)

func TestSessionEmpty(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "empty.log")
	s, err := etrc.NewSession(filename)
	AssertNoError(t, err)

	// The file exists as soon as the session does.
	_, err = os.Stat(filename)
	AssertNoError(t, err)

	AssertNoError(t, s.Stop())

	fi, err := os.Stat(filename)
	AssertNoError(t, err)
	AssertEqual(t, int64(0), fi.Size())
}

func TestSessionTruncatesExistingFile(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "existing.log")
	AssertNoError(t, os.WriteFile(filename, []byte("old 1 2\nold 3 4\n"), 0o644))

	s, err := etrc.NewSession(filename)
	AssertNoError(t, err)
	now := s.Now()
	s.Submit("new", now, now)
	AssertNoError(t, s.Stop())

	events := readEvents(t, filename)
	AssertEqual(t, 1, len(events))
	AssertEqual(t, "new", events[0].Name)
}

func TestSessionWritesEventsInOrder(t *testing.T) {
	t.Parallel()

	ts := newTestSession(t)
	begin := ts.Start()

	const n = 1000
	for i := 0; i < n; i++ {
		var (
			start = begin.Add(time.Duration(i) * time.Microsecond)
			end   = start.Add(time.Duration(i%7) * time.Nanosecond)
		)
		ts.Submit(fmt.Sprintf("event%d", i%3), start, end)
	}

	events := ts.stopAndRead(t)
	AssertEqual(t, n, len(events))
	for i, ev := range events {
		ExpectEqual(t, fmt.Sprintf("event%d", i%3), ev.Name)
		ExpectEqual(t, time.Duration(i)*time.Microsecond, ev.Start)
		ExpectEqual(t, time.Duration(i%7)*time.Nanosecond, ev.Duration())
	}

	stats := ts.Stats()
	AssertEqual(t, uint64(n), stats.Submitted)
	AssertEqual(t, uint64(n), stats.Written)
	AssertEqual(t, 0, stats.Queued)
}

func TestSessionOffsetsRelativeToStart(t *testing.T) {
	t.Parallel()

	ts := newTestSession(t)

	ts.clock.Advance(250 * time.Millisecond)
	start := ts.Now()
	ts.clock.Advance(1500 * time.Nanosecond)
	end := ts.Now()
	ts.Submit("offset", start, end)

	events := ts.stopAndRead(t)
	AssertEqual(t, 1, len(events))
	AssertEqual(t, etrc.Event{Name: "offset", Start: 250 * time.Millisecond, End: 250*time.Millisecond + 1500}, events[0])

	// The raw line is exactly three fields, in nanoseconds.
	data, err := os.ReadFile(ts.filename)
	AssertNoError(t, err)
	AssertEqual(t, "offset 250000000 250001500\n", string(data))
}

func TestSessionConcurrentProducers(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "concurrent.log")
	s, err := etrc.NewSession(filename)
	AssertNoError(t, err)

	const (
		producers = 8
		each      = 500
	)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				start := s.Now()
				s.Submit(name, start, s.Now())
			}
		}(fmt.Sprintf("producer%d", p))
	}
	wg.Wait()

	AssertNoError(t, s.Stop())

	events := readEvents(t, filename)
	AssertEqual(t, producers*each, len(events))

	// Each producer's events arrive in the order it submitted them.
	last := map[string]time.Duration{}
	count := map[string]int{}
	for _, ev := range events {
		if ev.End < ev.Start {
			t.Errorf("%s: end %d before start %d", ev.Name, ev.End, ev.Start)
		}
		if prev, ok := last[ev.Name]; ok && ev.Start < prev {
			t.Errorf("%s: start %d after %d, out of order", ev.Name, ev.Start, prev)
		}
		last[ev.Name] = ev.Start
		count[ev.Name]++
	}
	for _, n := range count {
		ExpectEqual(t, each, n)
	}
	AssertEqual(t, producers, len(count))
}

func TestSessionStopIdempotent(t *testing.T) {
	t.Parallel()

	ts := newTestSession(t)
	now := ts.Now()
	ts.Submit("once", now, now)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ts.Stop(); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}()
	}
	wg.Wait()

	AssertNoError(t, ts.Stop())
	AssertEqual(t, 1, len(readEvents(t, ts.filename)))
}

func TestSessionSubmitAfterStop(t *testing.T) {
	t.Parallel()

	ts := newTestSession(t)
	events := ts.stopAndRead(t)
	AssertEqual(t, 0, len(events))

	now := ts.Now()
	ts.Submit("late", now, now)
	ts.Submit("later", now, now)

	AssertEqual(t, 0, len(readEvents(t, ts.filename)))
	AssertEqual(t, uint64(2), ts.Stats().Rejected)
	AssertEqual(t, uint64(0), ts.Stats().Submitted)

	// Only the first rejection is logged.
	warnings := ts.warnings.String()
	AssertEqual(t, 1, strings.Count(warnings, etrc.ErrSessionStopped.Error()))
	AssertEqual(t, true, strings.Contains(warnings, "late"))
}

func TestSessionOpenError(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "missing", "dir", "trace.log")
	s, err := etrc.NewSession(filename)
	if err == nil {
		s.Stop()
		t.Fatalf("want error, have none")
	}
	AssertEqual(t, true, errors.Is(err, fs.ErrNotExist))
}

func TestSessionConfigErrors(t *testing.T) {
	t.Parallel()

	if _, err := etrc.NewSessionConfig(etrc.SessionConfig{}); err == nil {
		t.Errorf("empty config: want error, have none")
	}

	if _, err := etrc.NewSessionConfig(etrc.SessionConfig{Filename: "x", Writer: &bytes.Buffer{}}); err == nil {
		t.Errorf("filename and writer: want error, have none")
	}
}

func TestSessionWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := etrc.NewSessionWriter(&buf)
	begin := s.Start()
	s.Submit("a", begin.Add(1), begin.Add(2))
	s.Submit("b", begin.Add(3), begin.Add(4))
	AssertNoError(t, s.Stop())

	AssertEqual(t, "a 1 2\nb 3 4\n", buf.String())
}

var errSink = errors.New("sink failure")

type failingWriter struct {
	closed bool
}

func (w *failingWriter) Write(p []byte) (int, error) { return 0, errSink }

func (w *failingWriter) Close() error {
	w.closed = true
	return nil
}

func TestSessionSinkError(t *testing.T) {
	t.Parallel()

	var (
		warnings bytes.Buffer
		sink     = &failingWriter{}
	)
	s, err := etrc.NewSessionConfig(etrc.SessionConfig{
		Writer: sink,
		Logger: newBufferLogger(&warnings),
	})
	AssertNoError(t, err)

	begin := s.Start()
	for i := 0; i < 10; i++ {
		s.Submit("doomed", begin, begin)
	}

	err = s.Stop()
	AssertEqual(t, true, errors.Is(err, errSink))
	AssertEqual(t, true, errors.Is(s.Err(), errSink))
	AssertEqual(t, true, errors.Is(s.Stop(), errSink))

	// Every submitted event is accounted for, and the sink is still closed.
	stats := s.Stats()
	AssertEqual(t, stats.Submitted, stats.Written+stats.Discarded)
	AssertEqual(t, true, sink.closed)
	AssertEqual(t, 1, strings.Count(warnings.String(), errSink.Error()))
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestSessionClosesWriter(t *testing.T) {
	t.Parallel()

	w := &closeRecorder{}
	s := etrc.NewSessionWriter(w)
	AssertNoError(t, s.Stop())
	AssertEqual(t, true, w.closed)
}

func TestSessionID(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		s := etrc.NewSessionWriter(&bytes.Buffer{})
		id := s.ID()
		AssertNoError(t, s.Stop())
		if id == "" {
			t.Fatalf("empty session ID")
		}
		if seen[id] {
			t.Fatalf("duplicate session ID %s", id)
		}
		seen[id] = true
	}
}
