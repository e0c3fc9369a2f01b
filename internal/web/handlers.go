package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"evcal/internal/calendar"
	"evcal/internal/datetime"
	"evcal/internal/highlight"
	"evcal/internal/ics"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/store"
)

const maxBodyBytes = 1 << 20

// eventPatch is the PUT /api/events/{id} body. Absent fields are kept.
type eventPatch struct {
	Name  *string `json:"name"`
	Start *string `json:"start"`
	End   *string `json:"end"`
	Note  *string `json:"note"`
}

type highlightRequest struct {
	IDs  []string `json:"ids"`
	Jump bool     `json:"jump"`
}

type highlightResponse struct {
	highlight.State
	Summary string   `json:"summary"`
	Palette []string `json:"palette,omitempty"`
	Jump    string   `json:"jump,omitempty"` // YYYY-MM of the earliest selected event
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, store.Document{Events: records(s.cal.Events())})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.cal.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, store.RecordOf(ev))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var rec store.Record
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := rec.Event()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	stored, err := s.cal.Add(ev)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, store.RecordOf(stored))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var body eventPatch
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := body.toPatch()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	updated, err := s.cal.Update(r.PathValue("id"), patch)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, store.RecordOf(updated))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	removed, err := s.cal.Remove(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDays returns the events per day for the requested month.
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	first := model.NewDay(year, month, 1)
	last := model.NewDay(year, month+1, 0)

	out := make(map[model.Day][]store.Record)
	for d, bucket := range s.cal.DayIndex().Range(first, last) {
		out[d] = records(bucket)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.cal.Month(year, month, calendar.ParseWeekStart(s.cfg.WeekStart)))
}

func (s *Server) handleGetHighlight(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, highlightResponse{
		State:   s.cal.Highlight(),
		Summary: s.cal.Summary(),
		Palette: s.cal.Palette(),
	})
}

func (s *Server) handlePutHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := highlightResponse{State: s.cal.Filter(req.IDs)}
	resp.Summary = s.cal.Summary()
	if req.Jump {
		if y, m, ok := s.cal.JumpTarget(); ok {
			resp.Jump = fmt.Sprintf("%04d-%02d", y, int(m))
		}
	}
	appLog.Debug("highlight applied", "requested", len(req.IDs), "selected", len(resp.Selected))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearHighlight(w http.ResponseWriter, _ *http.Request) {
	s.cal.ClearFilter()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.cal.Reload(); err != nil {
		appLog.Error("reload via API failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"event_count": len(s.cal.Events())})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="evcal.ics"`)
	if err := ics.Export(w, s.cal.Events(), s.now()); err != nil {
		appLog.Error("ics export failed", err)
	}
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month.
func (s *Server) monthParam(r *http.Request) (int, time.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		now := s.now()
		return now.Year(), now.Month(), nil
	}
	year, month, err := calendar.ParseMonth(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", raw)
	}
	return year, month, nil
}

func (p eventPatch) toPatch() (store.Patch, error) {
	patch := store.Patch{Name: p.Name, Note: p.Note}
	if p.Start != nil {
		t, err := datetime.Parse(*p.Start)
		if err != nil {
			return store.Patch{}, err
		}
		patch.Start = &t
	}
	if p.End != nil {
		t, err := datetime.Parse(*p.End)
		if err != nil {
			return store.Patch{}, err
		}
		patch.End = &t
	}
	return patch, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// statusFor maps calendar errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datetime.ErrInvalidFormat), errors.Is(err, store.ErrMalformedRecord):
		return http.StatusBadRequest
	case calendar.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func records(events []model.Event) []store.Record {
	out := make([]store.Record, len(events))
	for i, ev := range events {
		out[i] = store.RecordOf(ev)
	}
	return out
}
