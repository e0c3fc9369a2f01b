package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"evcal/internal/datetime"
	"evcal/internal/model"
)

const productID = "-//evcal//event calendar//EN"

// Export writes events as an iCalendar document. Events whose start and end
// are both midnight are written as all-day events with an exclusive DTEND;
// everything else uses floating local date-times.
func Export(w io.Writer, events []model.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	sorted := append([]model.Event(nil), events...)
	model.Sort(sorted)

	for _, ev := range sorted {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Name)
		if ev.Note != "" {
			ve.SetDescription(ev.Note)
		}

		if datetime.IsMidnight(ev.Start) && datetime.IsMidnight(ev.End) {
			ve.SetAllDayStartAt(ev.Start)
			ve.SetAllDayEndAt(ev.End.AddDate(0, 0, 1))
			continue
		}
		ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start.Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End.Format(floatingLayout))
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

const floatingLayout = "20060102T150405"
