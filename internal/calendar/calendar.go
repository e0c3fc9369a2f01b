// Package calendar is the single owner of the event store and everything
// derived from it. Every mutation runs the same pipeline: change the store,
// rebuild the day index, re-apply the current highlight selection, persist,
// then notify subscribers.
//
// Calendar methods are safe for concurrent use; the packages it drives are
// not and are only ever touched under its lock.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"evcal/internal/dayindex"
	"evcal/internal/highlight"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/store"
)

// ErrNotFound is returned when an operation names an id that is gone.
var ErrNotFound = store.ErrNotFound

// Persister loads and saves the full event document.
type Persister interface {
	Load() ([]model.Event, error)
	Save(events []model.Event) error
}

// Snapshot is handed to subscribers after every change.
type Snapshot struct {
	Events    []model.Event
	Index     dayindex.Index
	Highlight highlight.State
}

// Calendar ties the store, day index and highlight state together.
type Calendar struct {
	mu sync.Mutex

	persister Persister
	assigner  *highlight.Assigner
	store     *store.Store

	index     dayindex.Index
	highlight highlight.State

	subscribers []func(Snapshot)
}

// New returns an empty calendar. Call Reload to read persisted events.
func New(p Persister, a *highlight.Assigner, opts ...store.Option) *Calendar {
	if a == nil {
		a = highlight.NewAssigner(highlight.DefaultPalette, nil)
	}
	return &Calendar{
		persister: p,
		assigner:  a,
		store:     store.New(opts...),
		index:     dayindex.Index{},
		highlight: highlight.Clear(),
	}
}

// Subscribe registers fn to be called after every change. fn runs with the
// calendar lock held and must not call back into the calendar.
func (c *Calendar) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Reload replaces the in-memory events with the persisted document. The
// current filter survives; ids that disappeared are dropped from it. On
// error the previous state is kept.
func (c *Calendar) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	events, err := c.persister.Load()
	if err != nil {
		return fmt.Errorf("reload events: %w", err)
	}
	c.store.Replace(events)
	c.refresh()
	appLog.Info("events reloaded", "event_count", c.store.Len(), "selected", len(c.highlight.Selected))
	c.notify()
	return nil
}

// Events returns all events in canonical order.
func (c *Calendar) Events() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.All()
}

// Event returns the event with the given id.
func (c *Calendar) Event(id string) (model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.FindByID(id)
}

// DayIndex returns the current index. Callers must treat it as read-only.
func (c *Calendar) DayIndex() dayindex.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Highlight returns the current highlight state. Callers must treat it as
// read-only.
func (c *Calendar) Highlight() highlight.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlight
}

// Add stores ev and returns it with its assigned id. A non-nil error means
// the event was added in memory but could not be persisted.
func (c *Calendar) Add(ev model.Event) (model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := c.store.Add(ev)
	appLog.Info("event added", "id", stored.ID, "name", stored.Name)
	return stored, c.commit()
}

// Import adds several events in one pass and persists once.
func (c *Calendar) Import(events []model.Event) ([]model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, c.store.Add(ev))
	}
	appLog.Info("events imported", "count", len(out))
	return out, c.commit()
}

// Update changes the event with the given id. ErrNotFound is returned, and
// nothing is persisted, when the id is gone.
func (c *Calendar) Update(id string, p store.Patch) (model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := c.store.Update(id, p)
	if err != nil {
		return model.Event{}, err
	}
	appLog.Info("event updated", "id", id)
	return updated, c.commit()
}

// Remove deletes the event with the given id. Removing a missing id is a
// no-op that reports false and touches nothing.
func (c *Calendar) Remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.Remove(id) {
		appLog.Debug("remove of unknown id ignored", "id", id)
		return false, nil
	}
	appLog.Info("event removed", "id", id)
	return true, c.commit()
}

// Filter highlights the given ids, keeping colors of ids already selected.
func (c *Calendar) Filter(ids []string) highlight.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.highlight = c.assigner.Apply(c.highlight, ids, c.store.All())
	c.notify()
	return c.highlight
}

// ClearFilter drops the selection and resets the overflow sequence.
func (c *Calendar) ClearFilter() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.highlight = highlight.Clear()
	c.notify()
}

// JumpTarget returns the month holding the earliest selected event.
func (c *Calendar) JumpTarget() (int, time.Month, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start, ok := highlight.EarliestStart(c.highlight.Selected, c.store.All())
	if !ok {
		return 0, 0, false
	}
	return start.Year(), start.Month(), true
}

// Palette returns the fixed colors handed out before overflow colors.
func (c *Calendar) Palette() []string {
	return c.assigner.Palette()
}

// Summary describes the current selection.
func (c *Calendar) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return highlight.Summarize(c.highlight, c.store.All())
}

// commit rebuilds derived state, persists and notifies. Persist failures are
// returned but the in-memory change stays.
func (c *Calendar) commit() error {
	c.refresh()

	var persistErr error
	if c.persister != nil {
		if err := c.persister.Save(c.store.All()); err != nil {
			appLog.Error("persist failed; in-memory state kept", err)
			persistErr = fmt.Errorf("persist events: %w", err)
		}
	}

	c.notify()
	return persistErr
}

func (c *Calendar) refresh() {
	events := c.store.All()
	c.index = dayindex.Build(events)
	c.highlight = c.assigner.Apply(c.highlight, c.highlight.Selected, events)
}

func (c *Calendar) notify() {
	if len(c.subscribers) == 0 {
		return
	}
	snap := Snapshot{
		Events:    c.store.All(),
		Index:     c.index,
		Highlight: c.highlight,
	}
	for _, fn := range slices.Clone(c.subscribers) {
		fn(snap)
	}
}

// IsNotFound reports whether err means the id no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
