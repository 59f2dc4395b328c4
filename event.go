package etrc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Event is a single timed execution, as written to a trace file. Start and End
// are offsets from the start of the session that recorded the event.
//
// Events are values, and are immutable once created.
type Event struct {
	Name  string
	Start time.Duration
	End   time.Duration
}

// Duration returns the elapsed time between start and end.
func (ev Event) Duration() time.Duration {
	return ev.End - ev.Start
}

// String returns the event in its trace file form, without a newline.
func (ev Event) String() string {
	return string(ev.appendTo(make([]byte, 0, len(ev.Name)+42)))
}

// AppendLine appends the trace file line for the event, including the
// trailing newline, to b, and returns the extended buffer.
func (ev Event) AppendLine(b []byte) []byte {
	return append(ev.appendTo(b), '\n')
}

func (ev Event) appendTo(b []byte) []byte {
	b = append(b, lineName(ev.Name)...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(ev.Start), 10)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(ev.End), 10)
	return b
}

const unnamed = "(unnamed)"

// lineName makes the name safe for the whitespace-separated line format.
func lineName(name string) string {
	switch {
	case name == "":
		return unnamed
	case strings.IndexFunc(name, unicode.IsSpace) < 0:
		return name
	default:
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return '_'
			}
			return r
		}, name)
	}
}

// ParseEvent parses a single trace file line, with or without its trailing
// newline, in the form "<name> <start_ns> <end_ns>".
func ParseEvent(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Event{}, fmt.Errorf("%w: want 3 fields, have %d", ErrInvalidLine, len(fields))
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: start: %w", ErrInvalidLine, err)
	}

	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: end: %w", ErrInvalidLine, err)
	}

	return Event{
		Name:  fields[0],
		Start: time.Duration(start),
		End:   time.Duration(end),
	}, nil
}
