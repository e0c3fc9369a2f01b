package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/xhit/go-str2duration/v2"

	"evcal/internal/calendar"
	"evcal/internal/config"
	"evcal/internal/datetime"
	"evcal/internal/highlight"
	"evcal/internal/ics"
	"evcal/internal/model"
	"evcal/internal/render"
	"evcal/internal/store"
)

func monthCommand() *cli.Command {
	return &cli.Command{
		Name:      "month",
		Usage:     "Print a month grid (default: the current month).",
		ArgsUsage: "[YYYY-MM]",
		Action: func(c *cli.Context) error {
			cfg, cal, err := openCalendar(c)
			if err != nil {
				return err
			}
			year, month, err := monthArg(c.Args().First())
			if err != nil {
				return err
			}
			printMonth(c.App.Writer, cfg, cal, year, month)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events in canonical order.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "only events covering YYYY-MM-DD"},
			&cli.StringFlag{Name: "within", Usage: "only events overlapping today and the next span, e.g. 10d or 2w"},
		},
		Action: func(c *cli.Context) error {
			_, cal, err := openCalendar(c)
			if err != nil {
				return err
			}
			w := c.App.Writer

			if v := c.String("day"); v != "" {
				d, err := model.ParseDay(v)
				if err != nil {
					return fmt.Errorf("invalid --day %q, expected YYYY-MM-DD", v)
				}
				if out := render.DayDetail(d, cal.DayIndex().On(d)); out != "" {
					fmt.Fprintln(w, out)
				}
				return nil
			}

			events := cal.Events()
			if v := c.String("within"); v != "" {
				span, err := str2duration.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid --within %q: %w", v, err)
				}
				events = within(events, time.Now(), span)
			}

			for _, ev := range events {
				line := fmt.Sprintf("%s  %s  [%s]", ev.ID, ev.Name, highlight.Span(ev))
				if ev.Note != "" {
					line += " (" + ev.Note + ")"
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add an event.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "event title"},
			&cli.StringFlag{Name: "start", Usage: "start, " + strings.Join(datetime.Patterns(), " | "), Required: true},
			&cli.StringFlag{Name: "end", Usage: "end (defaults to start)"},
			&cli.StringFlag{Name: "note", Usage: "free-form note"},
		},
		Action: func(c *cli.Context) error {
			_, cal, err := openCalendar(c)
			if err != nil {
				return err
			}
			ev, err := store.Record{
				Name:  c.String("name"),
				Start: c.String("start"),
				End:   c.String("end"),
				Note:  c.String("note"),
			}.Event()
			if err != nil {
				return err
			}

			stored, err := cal.Add(ev)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, stored.ID)
			return nil
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change fields of an event. Only the given flags are applied.",
		ArgsUsage: "[flags] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "start"},
			&cli.StringFlag{Name: "end"},
			&cli.StringFlag{Name: "note"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("edit needs an event id")
			}
			_, cal, err := openCalendar(c)
			if err != nil {
				return err
			}

			patch, err := patchFromFlags(c)
			if err != nil {
				return err
			}
			updated, err := cal.Update(id, patch)
			if err != nil {
				if calendar.IsNotFound(err) {
					return fmt.Errorf("no event with id %q", id)
				}
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s  %s  [%s]\n", updated.ID, updated.Name, highlight.Span(updated))
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove events by id. Unknown ids are ignored.",
		ArgsUsage: "<id>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("rm needs at least one event id")
			}
			_, cal, err := openCalendar(c)
			if err != nil {
				return err
			}
			for _, id := range c.Args().Slice() {
				removed, err := cal.Remove(id)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(c.App.Writer, "%s: not found\n", id)
				}
			}
			return nil
		},
	}
}

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "Highlight events by id and print the month holding the earliest one.",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "month", Usage: "show YYYY-MM instead of jumping"},
		},
		Action: func(c *cli.Context) error {
			cfg, cal, err := openCalendar(c)
			if err != nil {
				return err
			}
			w := c.App.Writer

			state := cal.Filter(c.Args().Slice())
			fmt.Fprintln(w, cal.Summary())
			if legend := render.Legend(state, cal.Events()); legend != "" {
				fmt.Fprintln(w, legend)
			}

			year, month, err := monthArg(c.String("month"))
			if err != nil {
				return err
			}
			if !c.IsSet("month") && cfg.AutoJump {
				if y, m, ok := cal.JumpTarget(); ok {
					year, month = y, m
				}
			}
			fmt.Fprintln(w)
			printMonth(w, cfg, cal, year, month)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import events from an .ics file or http(s) URL.",
		ArgsUsage: "<file|url>",
		Action: func(c *cli.Context) error {
			src := c.Args().First()
			if src == "" {
				return errors.New("import needs a file or URL")
			}
			_, cal, err := openCalendar(c)
			if err != nil {
				return err
			}

			var r io.Reader
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				body, err := ics.NewFetcher(icsCacheDir()).Fetch(c.Context, src)
				if err != nil {
					return err
				}
				r = bytes.NewReader(body)
			} else {
				f, err := os.Open(src)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			events, err := ics.Import(r)
			if err != nil {
				return err
			}
			added, err := cal.Import(events)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "imported %d events\n", len(added))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write all events as iCalendar to a file or stdout.",
		ArgsUsage: "[file]",
		Action: func(c *cli.Context) error {
			_, cal, err := openCalendar(c)
			if err != nil {
				return err
			}

			path := c.Args().First()
			if path == "" {
				return ics.Export(c.App.Writer, cal.Events(), time.Now())
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := ics.Export(f, cal.Events(), time.Now()); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func printMonth(w io.Writer, cfg *config.Config, cal *calendar.Calendar, year int, month time.Month) {
	view := cal.Month(year, month, calendar.ParseWeekStart(cfg.WeekStart))
	fmt.Fprint(w, render.Month(view, render.Today(), render.DefaultStyles()))
}

// monthArg parses YYYY-MM; empty means the current month.
func monthArg(s string) (int, time.Month, error) {
	if s == "" {
		now := time.Now()
		return now.Year(), now.Month(), nil
	}
	year, month, err := calendar.ParseMonth(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return year, month, nil
}

func patchFromFlags(c *cli.Context) (store.Patch, error) {
	var p store.Patch
	if c.IsSet("name") {
		v := c.String("name")
		p.Name = &v
	}
	if c.IsSet("note") {
		v := c.String("note")
		p.Note = &v
	}
	if c.IsSet("start") {
		t, err := datetime.Parse(c.String("start"))
		if err != nil {
			return store.Patch{}, err
		}
		p.Start = &t
	}
	if c.IsSet("end") {
		t, err := datetime.Parse(c.String("end"))
		if err != nil {
			return store.Patch{}, err
		}
		p.End = &t
	}
	return p, nil
}

// within keeps events overlapping the days from now to now+span.
func within(events []model.Event, now time.Time, span time.Duration) []model.Event {
	from, to := model.DayOf(now), model.DayOf(now.Add(span))
	out := events[:0:0]
	for _, ev := range events {
		if ev.Overlaps(from, to) {
			out = append(out, ev)
		}
	}
	return out
}

func icsCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "evcal", "ics")
}
