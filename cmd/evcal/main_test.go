package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhit/go-str2duration/v2"

	"evcal/internal/calendar"
	"evcal/internal/model"
	"evcal/internal/store"
)

type env struct {
	config string
	data   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	return env{
		config: filepath.Join(dir, "config.yaml"),
		data:   filepath.Join(dir, "schedule.json"),
	}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	full := append([]string{"evcal", "--config", e.config, "--data", e.data, "--log-level", "error"}, args...)
	err := app.Run(full)
	return out.String(), err
}

func TestAddListEditRemove(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "add", "--name", "Trip", "--start", "2024-01-09", "--end", "2024-01-12", "--note", "pack")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = os.Stat(e.config)
	require.NoError(t, err, "first run writes the default config")

	out, err = e.run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, id+"  Trip  [2024-01-09 ~ 2024-01-12] (pack)\n", out)

	out, err = e.run(t, "list", "--day", "2024-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-10:\n1. Trip")

	out, err = e.run(t, "edit", "--name", "Holiday", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Holiday")

	_, err = e.run(t, "edit", "--name", "x", "missing")
	assert.ErrorContains(t, err, `no event with id "missing"`)

	out, err = e.run(t, "rm", id, "missing")
	require.NoError(t, err)
	assert.Equal(t, "missing: not found\n", out)

	out, err = e.run(t, "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAdd_RejectsBadDate(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "add", "--name", "x", "--start", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")

	_, err = os.Stat(e.data)
	assert.True(t, os.IsNotExist(err), "nothing persisted")
}

func TestFilter_PrintsSummaryAndJumps(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "add", "--name", "Trip", "--start", "2024-03-09")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = e.run(t, "filter", id, "ghost")
	require.NoError(t, err)
	assert.Contains(t, out, "1 selected")
	assert.Contains(t, out, "Trip")
	assert.Contains(t, out, "March 2024")

	out, err = e.run(t, "filter", "--month", "2024-05", id)
	require.NoError(t, err)
	assert.Contains(t, out, "May 2024")
}

func TestExportImport(t *testing.T) {
	src := newEnv(t)
	_, err := src.run(t, "add", "--name", "Call", "--start", "2024-01-10 09:30", "--end", "2024-01-10 10:00")
	require.NoError(t, err)

	icsPath := filepath.Join(t.TempDir(), "out.ics")
	_, err = src.run(t, "export", icsPath)
	require.NoError(t, err)

	dst := newEnv(t)
	out, err := dst.run(t, "import", icsPath)
	require.NoError(t, err)
	assert.Equal(t, "imported 1 events\n", out)

	out, err = dst.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Call  [2024-01-10 09:30 ~ 2024-01-10 10:00]")
}

func TestStartReloadCron(t *testing.T) {
	cal := calendar.New(store.NewFile(filepath.Join(t.TempDir(), "x.json")), nil)

	sched, err := startReloadCron("", cal)
	require.NoError(t, err)
	assert.Nil(t, sched)

	_, err = startReloadCron("not a schedule", cal)
	assert.ErrorContains(t, err, "invalid reload schedule")

	sched, err = startReloadCron("*/5 * * * *", cal)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Len(t, sched.Entries(), 1)
	<-sched.Stop().Done()
}

func TestWithin(t *testing.T) {
	now := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	events := []model.Event{
		{ID: "past", Start: now.AddDate(0, 0, -5), End: now.AddDate(0, 0, -1)},
		{ID: "ongoing", Start: now.AddDate(0, 0, -2), End: now},
		{ID: "soon", Start: now.AddDate(0, 0, 6), End: now.AddDate(0, 0, 6)},
		{ID: "later", Start: now.AddDate(0, 0, 20), End: now.AddDate(0, 0, 21)},
	}
	span, err := str2duration.ParseDuration("1w")
	require.NoError(t, err)

	got := within(events, now, span)
	require.Len(t, got, 2)
	assert.Equal(t, "ongoing", got[0].ID)
	assert.Equal(t, "soon", got[1].ID)
	assert.Len(t, events, 4)
}

func TestList_WithinFlag(t *testing.T) {
	e := newEnv(t)
	today := time.Now().Format("2006-01-02")
	_, err := e.run(t, "add", "--name", "Now", "--start", today)
	require.NoError(t, err)
	_, err = e.run(t, "add", "--name", "Old", "--start", "2001-01-01")
	require.NoError(t, err)

	out, err := e.run(t, "list", "--within", "3d")
	require.NoError(t, err)
	assert.Contains(t, out, "Now")
	assert.NotContains(t, out, "Old")

	_, err = e.run(t, "list", "--within", "soon")
	assert.ErrorContains(t, err, "invalid --within")
}

func TestMonthArg(t *testing.T) {
	y, m, err := monthArg("2024-02")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, 2, int(m))

	_, _, err = monthArg("Feb 2024")
	assert.Error(t, err)
}
