// Package store holds the in-memory event collection and its persisted
// document format.
//
// A Store has a single owner and is not safe for concurrent use. Every
// mutation keeps the events in canonical (start, end, name) order.
package store

import (
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"evcal/internal/model"
)

// ErrNotFound is returned by Update when the id is not in the store.
var ErrNotFound = errors.New("event not found")

// Store is an ordered collection of events keyed by id.
type Store struct {
	events []model.Event
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(opts ...Option) *Store {
	s := &Store{newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the contents of the store with the document read from r.
// On error the store is left untouched.
func (s *Store) Load(r io.Reader) ([]model.Event, error) {
	events, err := Decode(r, s.newID)
	if err != nil {
		return nil, err
	}
	s.events = events
	return s.All(), nil
}

// Replace swaps in an already decoded event list. Events are normalized and
// missing or duplicate ids are regenerated.
func (s *Store) Replace(events []model.Event) {
	out := make([]model.Event, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		ev = normalize(ev)
		for ev.ID == "" || seen[ev.ID] {
			ev.ID = s.newID()
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	model.Sort(out)
	s.events = out
}

// Persist re-sorts and writes the store to w.
func (s *Store) Persist(w io.Writer) error {
	model.Sort(s.events)
	return Encode(w, s.events)
}

// All returns a copy of the events in canonical order.
func (s *Store) All() []model.Event {
	return slices.Clone(s.events)
}

func (s *Store) Len() int { return len(s.events) }

// FindByID returns the event with the given id.
func (s *Store) FindByID(id string) (model.Event, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.events[i], true
	}
	return model.Event{}, false
}

// Add normalizes ev and inserts it. A new id is assigned when ev has none or
// when its id is already taken. The stored event is returned.
func (s *Store) Add(ev model.Event) model.Event {
	ev = normalize(ev)
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" || s.indexOf(ev.ID) >= 0 {
		ev.ID = s.uniqueID()
	}
	s.events = append(s.events, ev)
	model.Sort(s.events)
	return ev
}

// Patch lists the fields an update may change. Nil fields are kept.
type Patch struct {
	Name  *string
	Start *time.Time
	End   *time.Time
	Note  *string
}

// Update applies p to the event with the given id and re-validates it
// exactly as Load does.
func (s *Store) Update(id string, p Patch) (model.Event, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, ErrNotFound
	}

	ev := s.events[i]
	if p.Name != nil {
		ev.Name = *p.Name
	}
	if p.Note != nil {
		ev.Note = *p.Note
	}
	if p.Start != nil {
		ev.Start = *p.Start
	}
	if p.End != nil {
		ev.End = *p.End
	}
	ev = normalize(ev)

	s.events[i] = ev
	model.Sort(s.events)
	return ev, nil
}

// Remove deletes the event with the given id. A missing id is not an error;
// the return value reports whether anything was removed.
func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.events = slices.Delete(s.events, i, i+1)
	return true
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.events, func(ev model.Event) bool { return ev.ID == id })
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
