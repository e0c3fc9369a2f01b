package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"evcal/internal/calendar"
	"evcal/internal/config"
	appLog "evcal/internal/log"
	"evcal/internal/store"
)

const version = "0.1.0"

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		appLog.Error("evcal failed", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "evcal",
		Usage:   "Keep a personal event calendar and highlight events on a month view.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML config file",
				Value:   config.DefaultPath(),
				EnvVars: []string{"EVCAL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "override the events JSON file",
				EnvVars: []string{"EVCAL_DATA"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "override the HTTP listen address",
				EnvVars: []string{"EVCAL_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "override the log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			monthCommand(),
			listCommand(),
			addCommand(),
			editCommand(),
			removeCommand(),
			filterCommand(),
			importCommand(),
			exportCommand(),
		},
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		// First run could not write the default file; carry on with defaults.
		appLog.Error("failed to save default config", err, "config_path", path)
	}

	if v := c.String("data"); v != "" {
		cfg.DataFile = v
	}
	if v := c.String("listen"); v != "" {
		cfg.Listen = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	appLog.Debug("effective config",
		"config_path", path,
		"data_file", cfg.DataFile,
		"listen", cfg.Listen,
		"week_start", cfg.WeekStart,
		"reload", cfg.ReloadCron,
		"auto_jump", cfg.AutoJump,
		"palette_size", len(cfg.Palette),
	)
	return cfg, nil
}

// openCalendar loads config and events. Every command starts here.
func openCalendar(c *cli.Context) (*config.Config, *calendar.Calendar, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cal := calendar.New(store.NewFile(cfg.DataFile), cfg.Assigner())
	if err := cal.Reload(); err != nil {
		return nil, nil, err
	}
	return cfg, cal, nil
}
