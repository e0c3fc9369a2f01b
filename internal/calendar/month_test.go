package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcal/internal/highlight"
	"evcal/internal/model"
)

func TestBuildMonth_MondayStart(t *testing.T) {
	c, _ := newLoaded(t, baseEvents())
	c.Filter([]string{"E2"})

	view := c.Month(2024, time.January, time.Monday)

	// 2024-01-01 is a Monday, so the grid starts on it
	first := view.Weeks[0][0]
	assert.Equal(t, "2024-01-01", first.Day.String())
	assert.True(t, first.InMonth)

	last := view.Weeks[GridWeeks-1][6]
	assert.Equal(t, "2024-02-11", last.Day.String())
	assert.False(t, last.InMonth)

	// 2024-01-10 is a Wednesday in the second row
	cell := view.Weeks[1][2]
	require.Equal(t, "2024-01-10", cell.Day.String())
	assert.Len(t, cell.Events, 2)
	assert.Equal(t, []string{"E2"}, cell.Hits)
	assert.Equal(t, []string{highlight.DefaultPalette[0]}, cell.Colors)

	assert.Equal(t, time.Monday, view.Weekdays()[0])
	assert.Equal(t, time.Sunday, view.Weekdays()[6])
}

func TestBuildMonth_SundayStart(t *testing.T) {
	view := BuildMonth(2024, time.March, time.Sunday, nil, highlight.Clear())

	// 2024-03-01 is a Friday; the Sunday before is 2024-02-25
	assert.Equal(t, "2024-02-25", view.Weeks[0][0].Day.String())
	assert.False(t, view.Weeks[0][0].InMonth)
	assert.Equal(t, "2024-03-01", view.Weeks[0][5].Day.String())
	assert.Equal(t, time.Sunday, view.Weekdays()[0])
}

func TestBuildMonth_CoversWholeMonth(t *testing.T) {
	view := BuildMonth(2026, time.August, time.Monday, nil, highlight.Clear())

	inMonth := 0
	for _, week := range view.Weeks {
		for _, cell := range week {
			if cell.InMonth {
				inMonth++
			}
		}
	}
	assert.Equal(t, 31, inMonth)
	assert.Equal(t, model.NewDay(2026, 8, 1).Weekday(), time.Saturday)
	assert.Equal(t, "2026-08-01", view.Weeks[0][5].Day.String())
}

func TestParseWeekStartAndMonth(t *testing.T) {
	assert.Equal(t, time.Sunday, ParseWeekStart("Sunday"))
	assert.Equal(t, time.Monday, ParseWeekStart("monday"))
	assert.Equal(t, time.Monday, ParseWeekStart(""))

	y, m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.February, m)

	_, _, err = ParseMonth("02/2024")
	assert.Error(t, err)
}
