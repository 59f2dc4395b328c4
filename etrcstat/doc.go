// Package etrcstat reads trace files written by an etrc session, and computes
// statistics, histograms, and timelines over their events.
package etrcstat
