package highlight

import (
	"fmt"
	"strings"
	"time"

	"evcal/internal/datetime"
	"evcal/internal/model"
)

// EarliestStart returns the start of the selected event with the smallest
// (start, end). It is used to pick the month to jump to after filtering.
func EarliestStart(selected []string, events []model.Event) (time.Time, bool) {
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}

	var best model.Event
	found := false
	for _, ev := range events {
		if !want[ev.ID] {
			continue
		}
		if !found || ev.Start.Before(best.Start) || (ev.Start.Equal(best.Start) && ev.End.Before(best.End)) {
			best = ev
			found = true
		}
	}
	return best.Start, found
}

// Span renders an event's range the way summaries and tooltips show it.
func Span(ev model.Event) string {
	if ev.End.Equal(ev.Start) {
		return datetime.Format(ev.Start)
	}
	return datetime.Format(ev.Start) + " ~ " + datetime.Format(ev.End)
}

// Summarize describes the selection, one line per event.
func Summarize(s State, events []model.Event) string {
	if s.Empty() {
		return "no events selected"
	}

	byID := make(map[string]model.Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d selected", len(s.Selected))
	for i, id := range s.Selected {
		ev, ok := byID[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%d. %s %s [%s]", i+1, s.ColorOf[id], ev.Name, Span(ev))
		if ev.Note != "" {
			fmt.Fprintf(&b, " (%s)", ev.Note)
		}
	}
	return b.String()
}
