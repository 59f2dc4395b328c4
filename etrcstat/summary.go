package etrcstat

import (
	"math"
	"sort"
	"time"

	"github.com/peterbourgon/etrc"
)

// Summary is statistics over the execution times of every event with a
// specific name. Percentiles use the nearest-rank method, so each one is a
// duration that actually occurred.
type Summary struct {
	Name   string        `json:"name"`
	Count  int           `json:"count"`
	Total  time.Duration `json:"total"`
	Min    time.Duration `json:"min"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	P90    time.Duration `json:"p90"`
	P99    time.Duration `json:"p99"`
	Max    time.Duration `json:"max"`

	// First and Last are the earliest start and the latest end offsets of
	// any event with this name.
	First time.Duration `json:"first"`
	Last  time.Duration `json:"last"`
}

// Summarize groups events by name and returns a summary per name, ordered by
// name.
func Summarize(events []etrc.Event) []Summary {
	index := map[string]int{}
	var (
		durations [][]time.Duration
		summaries []Summary
	)
	for _, ev := range events {
		i, ok := index[ev.Name]
		if !ok {
			i = len(summaries)
			index[ev.Name] = i
			summaries = append(summaries, Summary{Name: ev.Name, First: ev.Start, Last: ev.End})
			durations = append(durations, nil)
		}
		durations[i] = append(durations[i], ev.Duration())
		summaries[i].First = minDuration(summaries[i].First, ev.Start)
		summaries[i].Last = maxDuration(summaries[i].Last, ev.End)
	}

	for i := range summaries {
		summaries[i].observe(durations[i])
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})

	return summaries
}

func (s *Summary) observe(durations []time.Duration) {
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	s.Count = len(durations)
	for _, d := range durations {
		s.Total += d
	}
	s.Min = durations[0]
	s.Max = durations[len(durations)-1]
	s.Mean = s.Total / time.Duration(s.Count)
	s.Median = Percentile(durations, 0.50)
	s.P90 = Percentile(durations, 0.90)
	s.P99 = Percentile(durations, 0.99)
}

// Percentile returns the nearest-rank q-quantile of the sorted durations,
// where q is in [0, 1]. It returns zero for an empty slice.
func Percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) <= 0 {
		return 0
	}
	rank := int(math.Ceil(q * float64(len(sorted))))
	switch {
	case rank < 1:
		rank = 1
	case rank > len(sorted):
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Durations returns the execution time of every event with the given name, in
// file order.
func Durations(events []etrc.Event, name string) []time.Duration {
	var durations []time.Duration
	for _, ev := range events {
		if ev.Name == name {
			durations = append(durations, ev.Duration())
		}
	}
	return durations
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
