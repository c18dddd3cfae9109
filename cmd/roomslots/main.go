package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/urfave/cli/v2"

	"roomslots/internal/config"
	appLog "roomslots/internal/log"
	"roomslots/internal/model"
	"roomslots/internal/pipeline"
	"roomslots/internal/store"
)

const ExitGeneralError = 1

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		appLog.Error("roomslots failed", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "roomslots",
		Usage:   "Snapshot free room slots from the schedule export",
		Version: "0.1.0",
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default: built-in settings)",
				EnvVars: []string{"ROOMSLOTS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for dated feed and JSON files (overrides config)",
				EnvVars: []string{"ROOMSLOTS_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "DEBUG, INFO or ERROR (overrides config)",
				EnvVars: []string{"ROOMSLOTS_LOG_LEVEL"},
			},
			dateFlag(),
		},
		// No command behaves like "run".
		Action: runBoth,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Download the day's calendar export to <data-dir>/<date>.ics",
				Flags:  []cli.Flag{dateFlag()},
				Action: fetchFeed,
			},
			{
				Name:   "extract",
				Usage:  "Filter <data-dir>/<date>.ics into <data-dir>/<date>_filtered.json",
				Flags:  []cli.Flag{dateFlag()},
				Action: extractSlots,
			},
			{
				Name:   "run",
				Usage:  "Fetch, then extract",
				Flags:  []cli.Flag{dateFlag()},
				Action: runBoth,
			},
			{
				Name:   "url",
				Usage:  "Print the export and view URLs for the day",
				Flags:  []cli.Flag{dateFlag()},
				Action: printURLs,
			},
		},
	}
}

func dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   "Target day as YYYY-MM-DD (default: today)",
		EnvVars: []string{"ROOMSLOTS_DATE"},
	}
}

func fetchFeed(c *cli.Context) error {
	p, day, err := setup(c)
	if err != nil {
		return err
	}
	_, err = p.Fetch(c.Context, day)
	return err
}

func extractSlots(c *cli.Context) error {
	p, day, err := setup(c)
	if err != nil {
		return err
	}
	_, err = p.Extract(day)
	return err
}

func runBoth(c *cli.Context) error {
	p, day, err := setup(c)
	if err != nil {
		return err
	}
	return p.Run(c.Context, day)
}

func printURLs(c *cli.Context) error {
	p, day, err := setup(c)
	if err != nil {
		return err
	}
	return p.URLs(day)
}

// setup loads config, applies flag overrides and resolves the target day.
func setup(c *cli.Context) (*pipeline.Pipeline, time.Time, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, time.Time{}, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	level, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, time.Time{}, err
	}
	appLog.SetLevel(level)

	loc, err := cfg.Location()
	if err != nil {
		return nil, time.Time{}, err
	}
	day, err := resolveDay(dateValue(c), loc, time.Now())
	if err != nil {
		return nil, time.Time{}, err
	}

	appLog.Debug("effective config",
		"data_dir", cfg.DataDir,
		"timezone", cfg.Timezone,
		"resources", cfg.Source.Resources,
		"moment", cfg.Filter.Moment,
		"day", model.Day(day),
	)

	p, err := pipeline.New(cfg, store.NewDir(cfg.DataDir), c.App.Writer)
	if err != nil {
		return nil, time.Time{}, err
	}
	return p, day, nil
}

// dateValue returns the innermost non-empty --date so the flag works both
// before and after the command name.
func dateValue(c *cli.Context) string {
	for _, ctx := range c.Lineage() {
		if v := ctx.String("date"); v != "" {
			return v
		}
	}
	return ""
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveDay parses value as YYYY-MM-DD, or falls back to now's date.
// loc nil means the local zone.
func resolveDay(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if value == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation(model.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", value)
	}
	return day, nil
}
