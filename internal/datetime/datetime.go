package datetime

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// layouts are tried in order; the first match wins.
var layouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

var patterns = []string{
	"YYYY-MM-DD",
	"YYYY-MM-DD HH:MM",
	"YYYY-MM-DD HH:MM:SS",
}

// Patterns returns the accepted input forms in human-readable notation.
// The slice is a fresh copy.
func Patterns() []string {
	return slices.Clone(patterns)
}

const (
	dateLayout   = "2006-01-02"
	minuteLayout = "2006-01-02 15:04"
)

// ErrInvalidFormat is matched by every *InvalidFormatError via errors.Is.
var ErrInvalidFormat = errors.New("invalid date/time format")

// InvalidFormatError reports text that matched none of the accepted layouts.
type InvalidFormatError struct {
	Text     string
	Patterns []string
}

func (e *InvalidFormatError) Error() string {
	return "cannot parse date/time " + `"` + e.Text + `"` +
		" (accepted: " + strings.Join(e.Patterns, ", ") + ")"
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// Parse converts free-form date or date-time text into an instant. Leading
// and trailing whitespace is ignored. The returned time is in UTC and
// carries no zone meaning.
func Parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidFormatError{Text: text, Patterns: Patterns()}
}

// Format returns the shortest form for t: the bare date when the time of day
// is exactly midnight, otherwise the date with hours and minutes.
//
// Seconds are never written. An instant such as 00:00:30 formats as
// "YYYY-MM-DD 00:00", which parses back to midnight and is written date-only
// on the following save. This loss of precision is known and kept.
func Format(t time.Time) string {
	if IsMidnight(t) {
		return t.Format(dateLayout)
	}
	return t.Format(minuteLayout)
}

// IsMidnight reports whether hour, minute and second are all zero.
func IsMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0
}
