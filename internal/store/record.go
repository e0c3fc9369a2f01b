package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"evcal/internal/datetime"
	"evcal/internal/model"
)

// DefaultName replaces empty or whitespace-only event names.
const DefaultName = "Untitled event"

// ErrMalformedRecord is matched by every *MalformedRecordError via errors.Is.
var ErrMalformedRecord = errors.New("malformed event record")

// MalformedRecordError names the record that could not be turned into an
// event. Err, when set, is the underlying cause (usually a
// *datetime.InvalidFormatError).
type MalformedRecordError struct {
	Index  int
	ID     string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "event record #%d", e.Index)
	if e.ID != "" {
		fmt.Fprintf(&b, " (id %q)", e.ID)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Record is the persisted shape of an event. It accepts either the
// start/end form or the legacy single "date" form. Unknown fields are
// ignored by the decoder.
type Record struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Date  string `json:"date,omitempty"`
	Note  string `json:"note"`
}

// Document is the top-level persisted object.
type Document struct {
	Events []Record `json:"events"`
}

// Event resolves the record shape once and returns a normalized event. The
// ID is copied as-is and may be empty; the store fills it in.
func (r Record) Event() (model.Event, error) {
	var ev model.Event
	ev.ID = strings.TrimSpace(r.ID)
	ev.Name = r.Name
	ev.Note = r.Note

	switch {
	case strings.TrimSpace(r.Date) != "":
		day, err := datetime.Parse(r.Date)
		if err != nil {
			return model.Event{}, &MalformedRecordError{ID: ev.ID, Reason: "invalid date", Err: err}
		}
		ev.Start, ev.End = day, day

	case strings.TrimSpace(r.Start) != "":
		start, err := datetime.Parse(r.Start)
		if err != nil {
			return model.Event{}, &MalformedRecordError{ID: ev.ID, Reason: "invalid start", Err: err}
		}
		ev.Start, ev.End = start, start
		if strings.TrimSpace(r.End) != "" {
			end, err := datetime.Parse(r.End)
			if err != nil {
				return model.Event{}, &MalformedRecordError{ID: ev.ID, Reason: "invalid end", Err: err}
			}
			ev.End = end
		}

	default:
		return model.Event{}, &MalformedRecordError{ID: ev.ID, Reason: "missing start or date"}
	}

	return normalize(ev), nil
}

// RecordOf is the output shape of ev. It never uses the legacy date field.
func RecordOf(ev model.Event) Record {
	return Record{
		ID:    ev.ID,
		Name:  ev.Name,
		Start: datetime.Format(ev.Start),
		End:   datetime.Format(ev.End),
		Note:  ev.Note,
	}
}

// Decode reads a document and returns its events in canonical order. Events
// without an id get a fresh one. Any bad record fails the whole decode.
func Decode(r io.Reader, newID func() string) ([]model.Event, error) {
	// Records are decoded one by one so a badly typed field can be pinned
	// to its record.
	var doc struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("decode events document: %w", err)
	}

	events := make([]model.Event, 0, len(doc.Events))
	seen := make(map[string]int, len(doc.Events))

	for i, raw := range doc.Events {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &MalformedRecordError{Index: i, ID: rec.ID, Reason: "invalid field", Err: err}
		}
		ev, err := rec.Event()
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Index = i
			}
			return nil, err
		}
		if ev.ID == "" {
			ev.ID = newID()
		}
		if prev, dup := seen[ev.ID]; dup {
			return nil, &MalformedRecordError{
				Index:  i,
				ID:     ev.ID,
				Reason: fmt.Sprintf("duplicate id (first used by record #%d)", prev),
			}
		}
		seen[ev.ID] = i
		events = append(events, ev)
	}

	model.Sort(events)
	return events, nil
}

// Encode writes events as an indented document in canonical order. The
// input slice is not modified.
func Encode(w io.Writer, events []model.Event) error {
	sorted := append([]model.Event(nil), events...)
	model.Sort(sorted)

	doc := Document{Events: make([]Record, 0, len(sorted))}
	for _, ev := range sorted {
		doc.Events = append(doc.Events, RecordOf(ev))
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(&doc)
}

// normalize trims text fields, substitutes the default name and swaps an
// inverted range.
func normalize(ev model.Event) model.Event {
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Name == "" {
		ev.Name = DefaultName
	}
	ev.Note = strings.TrimSpace(ev.Note)
	if ev.End.Before(ev.Start) {
		ev.Start, ev.End = ev.End, ev.Start
	}
	return ev
}
