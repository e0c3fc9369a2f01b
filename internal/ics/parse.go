package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// Import parses an iCalendar payload into events.
//
//   - UID becomes the event id, SUMMARY the name, DESCRIPTION the note.
//   - DTSTART/DTEND are read as wall-clock values; TZID and the UTC marker
//     are not converted.
//   - All-day events (VALUE=DATE or no 'T' in the value) have an exclusive
//     DTEND in iCalendar and are mapped back to the inclusive last day.
//   - An inverted DTSTART/DTEND pair is returned as is.
//   - RRULE is not expanded; only the first occurrence is imported.
//
// A VEVENT without a usable DTSTART fails the whole import.
func Import(r io.Reader) ([]model.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	vevents := cal.Events()
	events := make([]model.Event, 0, len(vevents))
	for i, ve := range vevents {
		ev, err := parseVEvent(ve)
		if err != nil {
			return nil, fmt.Errorf("vevent #%d: %w", i, err)
		}
		events = append(events, ev)
	}

	appLog.Info("ics import parsed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.ID = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Name = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Note = p.Value
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || strings.TrimSpace(startProp.Value) == "" {
		return out, fmt.Errorf("uid %q: missing DTSTART", out.ID)
	}
	start, err := parseICSTime(startProp.Value)
	if err != nil {
		return out, fmt.Errorf("uid %q: DTSTART: %w", out.ID, err)
	}
	allDay := isDateValue(startProp)
	out.Start = start
	out.End = start

	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil && strings.TrimSpace(endProp.Value) != "" {
		end, err := parseICSTime(endProp.Value)
		if err != nil {
			return out, fmt.Errorf("uid %q: DTEND: %w", out.ID, err)
		}
		// An all-day DTEND is exclusive. DTEND == DTSTART is a zero-length
		// all-day event and stays on its start day. Inverted ranges are kept
		// as given; the store swaps them.
		if allDay && isDateValue(endProp) && end.After(start) {
			end = end.AddDate(0, 0, -1)
		}
		out.End = end
	}

	if rr := ve.GetProperty(ical.ComponentPropertyRrule); rr != nil {
		appLog.Warn("ics recurrence not expanded; first occurrence only", "uid", out.ID, "rrule", rr.Value)
	}

	return out, nil
}

// isDateValue reports whether a DTSTART/DTEND property carries a bare date.
func isDateValue(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime parses a basic ICS date/date-time string into a wall-clock
// time in UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// 20250101T090000Z and 20250101T090000 are both taken at face value.
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", strings.TrimSuffix(v, "Z"))
	}

	// Date-only (all-day), e.g., 20250101
	return time.Parse("20060102", v)
}
