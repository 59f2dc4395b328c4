package etrcstat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/etrc"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single trace file line. Names come from function
// signatures, which can be long, but not this long.
const maxLineSize = 1024 * 1024

// Read parses every event in the trace file data read from r. Blank lines are
// skipped. Any other line that isn't a valid event is an error, which reports
// the 1-based line number.
func Read(r io.Reader) ([]etrc.Event, error) {
	return ReadN(r, 0)
}

// ReadN is like Read, but stops after max lines have been considered. A max of
// zero or less reads the whole file.
func ReadN(r io.Reader, max int) ([]etrc.Event, error) {
	var (
		events []etrc.Event
		s      = bufio.NewScanner(r)
		lineno int
	)
	s.Buffer(make([]byte, 0, 4096), maxLineSize)
	for s.Scan() {
		lineno++
		if max > 0 && lineno > max {
			break
		}

		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		ev, err := etrc.ParseEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}

		events = append(events, ev)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineno+1, err)
	}

	return events, nil
}

// ReadFile opens and reads the named trace file, see ReadN.
func ReadFile(filename string, max int) ([]etrc.Event, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := ReadN(f, max)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return events, nil
}

// ReadFiles reads each of the named trace files concurrently, and returns
// their events in the same order as the filenames. The first error cancels
// the remaining reads.
//
// Offsets in different files are relative to different sessions, so the
// returned events are only comparable within a single file.
func ReadFiles(ctx context.Context, max int, filenames ...string) ([][]etrc.Event, error) {
	results := make([][]etrc.Event, len(filenames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, filename := range filenames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			events, err := ReadFile(filename, max)
			if err != nil {
				return err
			}
			results[i] = events // indexes are unique per goroutine
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
