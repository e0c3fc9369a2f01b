// Package render draws calendar month views for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"evcal/internal/calendar"
	"evcal/internal/highlight"
	"evcal/internal/model"
)

const cellWidth = 5

// Styles used by Month; exported so callers can swap them.
type Styles struct {
	Header  lipgloss.Style
	Weekday lipgloss.Style
	Day     lipgloss.Style
	Outside lipgloss.Style
	Busy    lipgloss.Style
	Today   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220")),
		Weekday: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(cellWidth).
			Align(lipgloss.Center),
		Day: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(cellWidth).
			Align(lipgloss.Center),
		Outside: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Width(cellWidth).
			Align(lipgloss.Center),
		Busy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Width(cellWidth).
			Align(lipgloss.Center),
		Today: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Width(cellWidth).
			Align(lipgloss.Center),
	}
}

// Month renders the grid. Days with events get a dot, highlighted days take
// the color of their first hit and today is bold and underlined.
func Month(v calendar.MonthView, today model.Day, st Styles) string {
	var b strings.Builder

	title := fmt.Sprintf("%s %d", v.Month, v.Year)
	b.WriteString(st.Header.Width(cellWidth * 7).Align(lipgloss.Center).Render(title))
	b.WriteString("\n")

	headers := make([]string, 0, 7)
	for _, wd := range v.Weekdays() {
		headers = append(headers, st.Weekday.Render(wd.String()[:2]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")

	for _, week := range v.Weeks {
		cells := make([]string, 0, 7)
		for _, cell := range week {
			cells = append(cells, renderCell(cell, today, st))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCell(c calendar.Cell, today model.Day, st Styles) string {
	text := fmt.Sprintf("%d", c.Day.Day)
	if len(c.Events) > 0 {
		text += "•"
	}

	style := st.Day
	switch {
	case !c.InMonth:
		style = st.Outside
	case len(c.Colors) > 0:
		style = st.Day.Foreground(lipgloss.Color(c.Colors[0])).Bold(true)
	case len(c.Events) > 0:
		style = st.Busy
	}
	if c.Day == today && c.InMonth {
		style = style.Inherit(st.Today).Bold(true).Underline(true)
	}
	return style.Render(text)
}

// Legend lists the highlighted events with a color swatch each.
func Legend(s highlight.State, events []model.Event) string {
	if s.Empty() {
		return ""
	}
	byID := make(map[string]model.Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	lines := make([]string, 0, len(s.Selected))
	for _, id := range s.Selected {
		ev, ok := byID[id]
		if !ok {
			continue
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ColorOf[id])).Render("■")
		lines = append(lines, fmt.Sprintf("%s %s  [%s]", swatch, ev.Name, highlight.Span(ev)))
	}
	return strings.Join(lines, "\n")
}

// DayDetail lists the events of one day, numbered, the way a tooltip would.
func DayDetail(d model.Day, events []model.Event) string {
	if len(events) == 0 {
		return ""
	}
	lines := []string{d.String() + ":"}
	for i, ev := range events {
		line := fmt.Sprintf("%d. %s  [%s]", i+1, ev.Name, highlight.Span(ev))
		if ev.Note != "" {
			line += " (" + ev.Note + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Today returns the local calendar day.
func Today() model.Day {
	return model.DayOf(time.Now())
}
