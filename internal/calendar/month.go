package calendar

import (
	"strings"
	"time"

	"evcal/internal/dayindex"
	"evcal/internal/highlight"
	"evcal/internal/model"
)

// GridWeeks is fixed so every month renders with the same height.
const GridWeeks = 6

// Cell is one day slot of a month grid.
type Cell struct {
	Day     model.Day     `json:"day"`
	InMonth bool          `json:"in_month"`
	Events  []model.Event `json:"-"`
	// Hits are the highlighted ids on this day, Colors their colors.
	Hits   []string `json:"hits,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// MonthView is a 6×7 grid starting on WeekStart.
type MonthView struct {
	Year      int                `json:"year"`
	Month     time.Month         `json:"month"`
	WeekStart time.Weekday       `json:"week_start"`
	Weeks     [GridWeeks][7]Cell `json:"weeks"`
}

// Weekdays returns the column headers in display order.
func (v MonthView) Weekdays() [7]time.Weekday {
	var out [7]time.Weekday
	for i := range out {
		out[i] = (v.WeekStart + time.Weekday(i)) % 7
	}
	return out
}

// ParseWeekStart maps "sunday" to time.Sunday and anything else to Monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}

// Month lays out the given month using the current index and highlight.
func (c *Calendar) Month(year int, month time.Month, weekStart time.Weekday) MonthView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildMonth(year, month, weekStart, c.index, c.highlight)
}

// BuildMonth lays out a month grid from an index and a highlight state.
func BuildMonth(year int, month time.Month, weekStart time.Weekday, ix dayindex.Index, hl highlight.State) MonthView {
	first := model.NewDay(year, month, 1)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	cur := first.AddDays(-offset)

	view := MonthView{Year: first.Year, Month: first.Month, WeekStart: weekStart}
	for w := range GridWeeks {
		for d := range 7 {
			cell := Cell{
				Day:     cur,
				InMonth: cur.Month == first.Month && cur.Year == first.Year,
				Events:  ix.On(cur),
				Hits:    hl.DayHits[cur],
			}
			for _, id := range cell.Hits {
				cell.Colors = append(cell.Colors, hl.ColorOf[id])
			}
			view.Weeks[w][d] = cell
			cur = cur.AddDays(1)
		}
	}
	return view
}
