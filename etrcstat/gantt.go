package etrcstat

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/peterbourgon/etrc"
	"github.com/peterbourgon/etrc/internal/etrcutil"
)

// Gantt is a timeline of events, with one lane per name.
type Gantt struct {
	Lanes []Lane
	Begin time.Duration
	End   time.Duration
}

// Lane is every event with a specific name, in file order.
type Lane struct {
	Name   string
	Events []etrc.Event
}

// NewGantt groups events into lanes. Lanes are ordered by the first appearance
// of their name in events. The timeline spans from the earliest start to the
// latest end of any event.
func NewGantt(events []etrc.Event) *Gantt {
	g := &Gantt{}
	if len(events) <= 0 {
		return g
	}

	g.Begin, g.End = events[0].Start, events[0].End
	index := map[string]int{}
	for _, ev := range events {
		i, ok := index[ev.Name]
		if !ok {
			i = len(g.Lanes)
			index[ev.Name] = i
			g.Lanes = append(g.Lanes, Lane{Name: ev.Name})
		}
		g.Lanes[i].Events = append(g.Lanes[i].Events, ev)
		g.Begin = minDuration(g.Begin, ev.Start)
		g.End = maxDuration(g.End, ev.End)
	}

	return g
}

// Span returns the length of the timeline.
func (g *Gantt) Span() time.Duration {
	return g.End - g.Begin
}

// Row returns the lane rendered into width cells, where '#' marks a cell
// during which at least one event was executing, and '.' marks an idle cell.
// Every event marks at least one cell, even if it took no time.
func (g *Gantt) Row(lane Lane, width int) string {
	cells := make([]byte, width)
	for i := range cells {
		cells[i] = '.'
	}
	for _, ev := range lane.Events {
		lo, hi := g.cells(ev, width)
		for i := lo; i <= hi; i++ {
			cells[i] = '#'
		}
	}
	return string(cells)
}

// cells returns the inclusive range of cells covered by the event. End
// offsets that land exactly on a cell boundary don't mark the next cell.
func (g *Gantt) cells(ev etrc.Event, width int) (lo, hi int) {
	span := float64(g.Span())
	if span <= 0 {
		return 0, 0
	}

	scale := float64(width) / span
	lo = clampCell(int(math.Floor(float64(ev.Start-g.Begin)*scale)), width)
	hi = clampCell(int(math.Ceil(float64(ev.End-g.Begin)*scale))-1, width)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clampCell(i, width int) int {
	switch {
	case i < 0:
		return 0
	case i >= width:
		return width - 1
	default:
		return i
	}
}

// WriteText renders the chart, one lane per line, with a timeline of width
// cells. Names qualified with "::" are shown by their last component, as the
// full qualifier rarely fits.
func (g *Gantt) WriteText(w io.Writer, width int) error {
	if width <= 0 {
		width = 80
	}

	var (
		labels   = make([]string, len(g.Lanes))
		labelLen int
	)
	for i, lane := range g.Lanes {
		labels[i] = shortLabel(lane.Name)
		if n := len([]rune(labels[i])); n > labelLen {
			labelLen = n
		}
	}

	for i, lane := range g.Lanes {
		pad := labelLen - len([]rune(labels[i]))
		if _, err := fmt.Fprintf(w, "%s%s |%s| %d\n", labels[i], strings.Repeat(" ", pad), g.Row(lane, width), len(lane.Events)); err != nil {
			return err
		}
	}

	var (
		begin = etrcutil.HumanizeDuration(g.Begin)
		end   = etrcutil.HumanizeDuration(g.End)
		gap   = width - len(begin) - len(end)
	)
	if gap < 1 {
		gap = 1
	}
	if _, err := fmt.Fprintf(w, "%s  %s%s%s\n", strings.Repeat(" ", labelLen), begin, strings.Repeat(" ", gap), end); err != nil {
		return err
	}

	return nil
}

func shortLabel(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 && i+2 < len(name) {
		return name[i+2:]
	}
	return name
}
