package highlight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"evcal/internal/model"
)

func TestEarliestStart(t *testing.T) {
	events := fixture()

	got, ok := EarliestStart([]string{"E1", "E3", "E2"}, events)
	assert.True(t, ok)
	assert.True(t, got.Equal(day(2024, 1, 9)))

	got, ok = EarliestStart([]string{"E3"}, events)
	assert.True(t, ok)
	assert.Equal(t, time.February, got.Month())

	_, ok = EarliestStart([]string{"missing"}, events)
	assert.False(t, ok)
}

func TestEarliestStart_TieBrokenByEnd(t *testing.T) {
	events := []model.Event{
		{ID: "long", Start: day(2024, 3, 1), End: day(2024, 3, 9)},
		{ID: "short", Start: day(2024, 3, 1), End: day(2024, 3, 1)},
	}
	got, ok := EarliestStart([]string{"long", "short"}, events)
	assert.True(t, ok)
	assert.True(t, got.Equal(day(2024, 3, 1)))
}

func TestSpan(t *testing.T) {
	single := model.Event{Start: day(2024, 1, 1), End: day(2024, 1, 1)}
	multi := model.Event{Start: day(2024, 1, 1), End: time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC)}

	assert.Equal(t, "2024-01-01", Span(single))
	assert.Equal(t, "2024-01-01 ~ 2024-01-03 18:00", Span(multi))
}

func TestSummarize(t *testing.T) {
	a := NewAssigner(DefaultPalette, nil)
	events := fixture()
	events[0].Note = "bring slides"

	s := a.Apply(State{}, []string{"E1", "E2"}, events)
	out := Summarize(s, events)

	assert.Contains(t, out, "2 selected")
	assert.Contains(t, out, "1. "+DefaultPalette[0]+" two [2024-01-09 ~ 2024-01-12]")
	assert.Contains(t, out, "2. "+DefaultPalette[1]+" one [2024-01-10] (bring slides)")

	assert.Equal(t, "no events selected", Summarize(Clear(), events))
}
