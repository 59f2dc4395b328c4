package etrcstat

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/peterbourgon/etrc/internal/etrcutil"
)

// Histogram counts durations into equal-width buckets spanning the smallest
// to the largest observed duration. The last bucket includes its upper bound.
type Histogram struct {
	Min     time.Duration
	Max     time.Duration
	Buckets []Bucket
}

// Bucket is a single histogram bucket, covering [Lo, Hi).
type Bucket struct {
	Lo    time.Duration
	Hi    time.Duration
	Count int
}

// DefaultBins is the number of histogram buckets used when none is given.
const DefaultBins = 10

// NewHistogram buckets the given durations into the given number of bins. A
// bins of zero or less means DefaultBins. If every duration is the same, the
// histogram has a single bucket containing all of them.
func NewHistogram(durations []time.Duration, bins int) *Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}

	h := &Histogram{}
	if len(durations) <= 0 {
		return h
	}

	h.Min, h.Max = durations[0], durations[0]
	for _, d := range durations[1:] {
		h.Min = minDuration(h.Min, d)
		h.Max = maxDuration(h.Max, d)
	}

	if h.Min == h.Max {
		h.Buckets = []Bucket{{Lo: h.Min, Hi: h.Max, Count: len(durations)}}
		return h
	}

	width := float64(h.Max-h.Min) / float64(bins)
	h.Buckets = make([]Bucket, bins)
	for i := range h.Buckets {
		h.Buckets[i].Lo = h.Min + time.Duration(math.Round(float64(i)*width))
		h.Buckets[i].Hi = h.Min + time.Duration(math.Round(float64(i+1)*width))
	}
	h.Buckets[bins-1].Hi = h.Max

	for _, d := range durations {
		i := int(float64(d-h.Min) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Buckets[i].Count++
	}

	return h
}

// Count returns the total number of observed durations.
func (h *Histogram) Count() int {
	var n int
	for _, b := range h.Buckets {
		n += b.Count
	}
	return n
}

// WriteText renders the histogram as one line per bucket, with bars up to
// width characters long. Bar lengths are on a log scale, so that rare slow
// executions remain visible next to very common fast ones.
func (h *Histogram) WriteText(w io.Writer, width int) error {
	if width <= 0 {
		width = 50
	}

	var maxCount int
	for _, b := range h.Buckets {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	var (
		labels   = make([]string, len(h.Buckets))
		labelLen int
	)
	for i, b := range h.Buckets {
		labels[i] = fmt.Sprintf("%s - %s", etrcutil.HumanizeDuration(b.Lo), etrcutil.HumanizeDuration(b.Hi))
		if n := len([]rune(labels[i])); n > labelLen {
			labelLen = n
		}
	}

	for i, b := range h.Buckets {
		bar := 0
		if b.Count > 0 {
			bar = int(math.Ceil(float64(width) * math.Log1p(float64(b.Count)) / math.Log1p(float64(maxCount))))
		}
		pad := labelLen - len([]rune(labels[i]))
		if _, err := fmt.Fprintf(w, "%s%s | %-*s %d\n", labels[i], strings.Repeat(" ", pad), width, strings.Repeat("#", bar), b.Count); err != nil {
			return err
		}
	}

	return nil
}
