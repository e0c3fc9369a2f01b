package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"evcal/internal/calendar"
	appLog "evcal/internal/log"
	"evcal/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API until interrupted.",
		Action: func(c *cli.Context) error {
			cfg, cal, err := openCalendar(c)
			if err != nil {
				return err
			}

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			appLog.Info("evcal starting",
				"version", version,
				"listen", cfg.Listen,
				"data_file", cfg.DataFile,
				"event_count", len(cal.Events()),
			)

			sched, err := startReloadCron(cfg.ReloadCron, cal)
			if err != nil {
				return err
			}
			if sched != nil {
				defer func() {
					<-sched.Stop().Done()
				}()
			}

			if err := web.NewServer(cfg, cal).Run(ctx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			appLog.Info("evcal exiting")
			return nil
		},
	}
}

// startReloadCron re-reads the data file on schedule so external edits show up
// without a restart. An empty schedule disables it and returns nil.
func startReloadCron(schedule string, cal *calendar.Calendar) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := cal.Reload(); err != nil {
			appLog.Error("scheduled reload failed; keeping previous events", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}
	c.Start()
	appLog.Info("scheduled reload enabled", "reload", schedule)
	return c, nil
}
