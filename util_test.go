package etrc_test

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterbourgon/etrc"
	"github.com/zoobzio/clockz"
)

func AssertEqual[X comparable](t *testing.T, want, have X) {
	t.Helper()
	if want != have {
		t.Fatalf("want %v, have %v", want, have)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("error %v", err)
	}
}

func ExpectEqual[X comparable](t *testing.T, want, have X) {
	t.Helper()
	if want != have {
		t.Errorf("want %v, have %v", want, have)
	}
}

// testSession is a session writing to a file in a temporary directory, with a
// fake clock, and warnings captured in a buffer.
type testSession struct {
	*etrc.Session
	filename string
	clock    *clockz.FakeClock
	warnings *bytes.Buffer
}

func newTestSession(t *testing.T) *testSession {
	t.Helper()

	var (
		filename = filepath.Join(t.TempDir(), "trace.log")
		clock    = clockz.NewFakeClock()
		warnings = &bytes.Buffer{}
	)

	s, err := etrc.NewSessionConfig(etrc.SessionConfig{
		Filename: filename,
		Clock:    clock,
		Logger:   newBufferLogger(warnings),
	})
	AssertNoError(t, err)

	t.Cleanup(func() { s.Stop() })

	return &testSession{
		Session:  s,
		filename: filename,
		clock:    clock,
		warnings: warnings,
	}
}

func newBufferLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

// stopAndRead stops the session and returns every event in its trace file.
// Warnings may only be inspected after this returns.
func (ts *testSession) stopAndRead(t *testing.T) []etrc.Event {
	t.Helper()
	AssertNoError(t, ts.Stop())
	return readEvents(t, ts.filename)
}

func readEvents(t *testing.T, filename string) []etrc.Event {
	t.Helper()

	f, err := os.Open(filename)
	AssertNoError(t, err)
	defer f.Close()

	var events []etrc.Event
	s := bufio.NewScanner(f)
	for s.Scan() {
		ev, err := etrc.ParseEvent(s.Text())
		if err != nil {
			t.Fatalf("line %d: %v", len(events)+1, err)
		}
		events = append(events, ev)
	}
	AssertNoError(t, s.Err())

	return events
}
