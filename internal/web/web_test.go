package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcal/internal/calendar"
	"evcal/internal/config"
	"evcal/internal/store"
)

const seedDoc = `{
  "events": [
    {"id": "E1", "name": "one", "date": "2024-01-10", "note": "n"},
    {"id": "E2", "name": "two", "start": "2024-01-09", "end": "2024-01-12", "note": ""}
  ]
}`

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(seedDoc), 0o600))

	cfg := config.DefaultConfig()
	cfg.DataFile = path
	if mutate != nil {
		mutate(cfg)
	}

	n := 0
	cal := calendar.New(store.NewFile(path), cfg.Assigner(), store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}))
	require.NoError(t, cal.Reload())

	s := NewServer(cfg, cal)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return s, path
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListEvents(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc store.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Events, 2)
	assert.Equal(t, "E2", doc.Events[0].ID)
	assert.Equal(t, "2024-01-10", doc.Events[1].Start)
	assert.Empty(t, doc.Events[1].Date)
}

func TestCreateEvent_PersistsAndIndexes(t *testing.T) {
	s, path := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `{"name":"  launch ","start":"2024-01-11 09:30"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "new-1", got.ID)
	assert.Equal(t, "launch", got.Name)
	assert.Equal(t, "2024-01-11 09:30", got.End)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"new-1"`)

	rec = do(t, h, http.MethodGet, "/api/days?month=2024-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var days map[string][]store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	require.Len(t, days["2024-01-11"], 2)
	assert.Equal(t, "E2", days["2024-01-11"][0].ID)
	assert.Equal(t, "new-1", days["2024-01-11"][1].ID)
}

func TestCreateEvent_BadInput(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `{"name":"x","start":"01/02/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")

	rec = do(t, h, http.MethodPost, "/api/events", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/events", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPut, "/api/events/E1", `{"name":"renamed","end":"2024-01-08"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "2024-01-08", got.Start, "inverted range is swapped")
	assert.Equal(t, "2024-01-10", got.End)

	rec = do(t, h, http.MethodPut, "/api/events/nope", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/events/E1", `{"start":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/events/E1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/events/E1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/events/E1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHighlightLifecycle(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPut, "/api/highlight", `{"ids":["E1","E2","ghost"],"jump":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Selected []string            `json:"selected"`
		ColorOf  map[string]string   `json:"color_of"`
		DayHits  map[string][]string `json:"day_hits"`
		Summary  string              `json:"summary"`
		Jump     string              `json:"jump"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"E2", "E1"}, resp.Selected)
	assert.Equal(t, "#e6194b", resp.ColorOf["E2"])
	assert.Equal(t, "#3cb44b", resp.ColorOf["E1"])
	assert.Equal(t, []string{"E2", "E1"}, resp.DayHits["2024-01-10"])
	assert.Equal(t, "2024-01", resp.Jump)
	assert.True(t, strings.HasPrefix(resp.Summary, "2 selected"))

	rec = do(t, h, http.MethodGet, "/api/month?month=2024-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"#3cb44b"`)

	rec = do(t, h, http.MethodDelete, "/api/highlight", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/highlight", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no events selected")
	var cleared struct {
		Palette []string `json:"palette"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	require.NotEmpty(t, cleared.Palette)
	assert.Equal(t, "#e6194b", cleared.Palette[0])
}

func TestMonth_DefaultsToNowAndRejectsBadMonth(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.WeekStart = "sunday" })
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/month", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view calendar.MonthView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2024, view.Year)
	assert.Equal(t, time.January, view.Month)
	assert.Equal(t, time.Sunday, view.WeekStart)
	assert.Equal(t, "2023-12-31", view.Weeks[0][0].Day.String())

	rec = do(t, h, http.MethodGet, "/api/month?month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReload_PicksUpExternalEdits(t *testing.T) {
	s, path := newTestServer(t, nil)
	h := s.Handler()

	require.NoError(t, os.WriteFile(path, []byte(`{"events":[{"id":"X","name":"only","date":"2024-02-01","note":""}]}`), 0o600))

	rec := do(t, h, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"event_count":1}`, rec.Body.String())

	require.NoError(t, os.WriteFile(path, []byte(`{"events":[{"name":"bad"}]}`), 0o600))
	rec = do(t, h, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing start or date")

	rec = do(t, h, http.MethodGet, "/api/events/X", "")
	assert.Equal(t, http.StatusOK, rec.Code, "failed reload keeps previous state")
}

func TestExportICS(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/export.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "UID:E1")
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("admin", "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
