package model

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Event is a single calendar entry. Start and End are wall-clock instants
// without timezone meaning; they are kept in UTC so that comparisons and
// day arithmetic never shift across DST boundaries.
//
// Invariant (maintained by the store): !End.Before(Start).
type Event struct {
	// ID is opaque and never reassigned once the event exists.
	ID string

	Name string
	Note string

	Start time.Time
	End   time.Time
}

// StartDay returns the calendar day of Start.
func (e Event) StartDay() Day { return DayOf(e.Start) }

// EndDay returns the calendar day of End.
func (e Event) EndDay() Day { return DayOf(e.End) }

// Overlaps reports whether the event touches any day in [from, to].
func (e Event) Overlaps(from, to Day) bool {
	return !e.EndDay().Before(from) && !e.StartDay().After(to)
}

// Days calls fn for every calendar day covered by the event, in order.
// Iteration stops early if fn returns false.
func (e Event) Days(fn func(Day) bool) {
	last := e.EndDay()
	for d := e.StartDay(); !d.After(last); d = d.AddDays(1) {
		if !fn(d) {
			return
		}
	}
}

// Compare orders events by (Start, End, Name) ascending. This is the
// canonical ordering used by storage, indexing and highlighting alike.
func Compare(a, b Event) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	if c := a.End.Compare(b.End); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// Sort sorts events in place by the canonical ordering. The sort is stable
// so events that tie on every key keep their relative order.
func Sort(events []Event) {
	slices.SortStableFunc(events, Compare)
}

// Day is a civil calendar date. It is comparable and usable as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

const dayLayout = "2006-01-02"

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// NewDay normalizes out-of-range components the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) AddDays(n int) Day {
	return NewDay(d.Year, d.Month, d.Day+n)
}

func (d Day) Compare(o Day) int {
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

func (d Day) Before(o Day) bool { return d.Compare(o) < 0 }
func (d Day) After(o Day) bool  { return d.Compare(o) > 0 }

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Day) String() string { return d.Time().Format(dayLayout) }

// MarshalText lets Day be used as a JSON object key.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
