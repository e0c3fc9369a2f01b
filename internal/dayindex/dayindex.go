// Package dayindex maps calendar days to the events covering them.
//
// Building is O(events × average span). Spans are unbounded, so a
// multi-year event touches every day in its range; callers that rebuild on
// every mutation should rebuild only the index.
package dayindex

import (
	"slices"

	"evcal/internal/model"
)

// Index is a sparse day → events mapping. Days without events have no
// entry. Each bucket is in canonical (start, end, name) order.
type Index map[model.Day][]model.Event

// Build expands every event onto each day in [StartDay, EndDay].
func Build(events []model.Event) Index {
	ix := make(Index)
	for _, ev := range events {
		ev.Days(func(d model.Day) bool {
			ix[d] = append(ix[d], ev)
			return true
		})
	}
	for _, bucket := range ix {
		model.Sort(bucket)
	}
	return ix
}

// On returns the events covering d, or nil.
func (ix Index) On(d model.Day) []model.Event {
	return ix[d]
}

// IDsOn returns the ids of the events covering d, in bucket order.
func (ix Index) IDsOn(d model.Day) []string {
	bucket := ix[d]
	if len(bucket) == 0 {
		return nil
	}
	ids := make([]string, len(bucket))
	for i, ev := range bucket {
		ids[i] = ev.ID
	}
	return ids
}

// Days returns the populated days in ascending order.
func (ix Index) Days() []model.Day {
	days := make([]model.Day, 0, len(ix))
	for d := range ix {
		days = append(days, d)
	}
	slices.SortFunc(days, model.Day.Compare)
	return days
}

// Range returns the subset of the index for days in [from, to].
func (ix Index) Range(from, to model.Day) Index {
	out := make(Index)
	for d, bucket := range ix {
		if d.Before(from) || d.After(to) {
			continue
		}
		out[d] = bucket
	}
	return out
}
