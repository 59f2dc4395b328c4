package etrcutil

import (
	"strings"
	"time"
)

// TruncateDuration truncates the provided duration to a more human-friendly
// form, depending on its magnitude. For example, a duration over 1s is
// truncated at 1ms, a duration over 1m is truncated at 1s, and so on. Trace
// files carry nanosecond offsets, so short durations keep more precision than
// they would in a request log.
func TruncateDuration(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return -TruncateDuration(-d)
	case d >= 24*time.Hour:
		return d.Truncate(time.Minute)
	case d >= time.Hour:
		return d.Truncate(time.Second)
	case d >= time.Minute:
		return d.Truncate(100 * time.Millisecond)
	case d >= time.Second:
		return d.Truncate(time.Millisecond)
	case d >= 10*time.Millisecond:
		return d.Truncate(10 * time.Microsecond)
	case d >= time.Millisecond:
		return d.Truncate(time.Microsecond)
	case d >= 10*time.Microsecond:
		return d.Truncate(10 * time.Nanosecond)
	default:
		return d
	}
}

// HumanizeDuration truncates the duration and returns a human-friendly string
// representation.
func HumanizeDuration(d time.Duration) string {
	dd := TruncateDuration(d)
	ds := dd.String()

	if dd >= time.Hour && strings.HasSuffix(ds, "0s") {
		ds = strings.TrimSuffix(ds, "0s")
	}

	return ds
}
