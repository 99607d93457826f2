package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"tubedigest/internal/app"
	"tubedigest/internal/config"
	"tubedigest/internal/digest"
	"tubedigest/internal/list"
	"tubedigest/internal/logging"
	"tubedigest/internal/schedule"
	"tubedigest/internal/server"
	"tubedigest/internal/tubedb"
	"tubedigest/internal/tui"
)

// runner holds what the command actions share: the loaded config, the logger
// and whatever needs closing on exit.
type runner struct {
	cfg     config.AppConfig
	logger  *slog.Logger
	closers []func() error
}

func (r *runner) setup(c *cli.Command) error {
	if r.logger != nil {
		return nil
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	r.cfg = cfg

	opts := logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level, LogFile: c.String("log-file")}
	if v := c.String("log-format"); v != "" {
		opts.Format = v
	}
	if v := c.String("log-level"); v != "" {
		opts.Level = v
	}
	logger, closeLog, err := logging.New(opts)
	if err != nil {
		return err
	}
	r.logger = logger
	r.closers = append(r.closers, closeLog)
	return nil
}

func (r *runner) open(ctx context.Context, c *cli.Command) (*app.App, error) {
	if err := r.setup(c); err != nil {
		return nil, err
	}
	a, err := app.New(ctx, r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, a.Close)
	return a, nil
}

// openStore opens only the database, for read-only commands that must work
// without AI or YouTube credentials.
func (r *runner) openStore(ctx context.Context, c *cli.Command) (*tubedb.DB, error) {
	if err := r.setup(c); err != nil {
		return nil, err
	}
	db, err := app.OpenStore(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, db.Close)
	return db, nil
}

func (r *runner) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *runner) poll(ctx context.Context, c *cli.Command) error {
	a, err := r.open(ctx, c)
	if err != nil {
		return err
	}
	report, err := a.Pipeline.RunPollCycle(ctx)
	if c.Bool("json") {
		if jerr := printJSON(report); jerr != nil {
			return jerr
		}
	} else {
		printCycle(os.Stdout, report)
	}
	return err
}

func (r *runner) daily(ctx context.Context, c *cli.Command) error {
	a, err := r.open(ctx, c)
	if err != nil {
		return err
	}
	date, err := digest.ParseDate(c.String("date"), time.Now(), r.cfg.Location())
	if err != nil {
		return err
	}
	res, err := a.Digest.RunFor(ctx, date)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(res)
	}
	if res.Empty {
		fmt.Printf("No videos processed on %s; nothing to summarize.\n", res.Date)
		return nil
	}
	fmt.Printf("Daily summary %s (%d videos)\n\n%s\n", res.Date, res.Count, res.Summary)
	if res.MirrorErr != nil {
		fmt.Fprintf(os.Stderr, "warning: mirror failed: %v\n", res.MirrorErr)
	}
	return nil
}

func (r *runner) inspect(ctx context.Context, c *cli.Command) error {
	key := strings.TrimSpace(c.StringArg("channel"))
	if key == "" {
		return errors.New("usage: tubedigest inspect <channel>")
	}
	a, err := r.open(ctx, c)
	if err != nil {
		return err
	}
	report, err := a.Pipeline.Inspect(ctx, key)
	if err != nil {
		if errors.Is(err, config.ErrUnknownChannel) {
			return fmt.Errorf("%w; known channels: %s", err, channelKeys(r.cfg))
		}
		return err
	}
	if c.Bool("json") {
		return printJSON(report)
	}
	printInspect(os.Stdout, report)
	return nil
}

func (r *runner) list(ctx context.Context, c *cli.Command) error {
	db, err := r.openStore(ctx, c)
	if err != nil {
		return err
	}
	return list.Run(ctx, os.Stdout, db, list.Options{
		Limit:   c.Int("limit"),
		Digests: c.Bool("digests"),
		Wide:    c.Bool("wide"),
	})
}

func (r *runner) browse(ctx context.Context, c *cli.Command) error {
	db, err := r.openStore(ctx, c)
	if err != nil {
		return err
	}
	return tui.Run(ctx, db)
}

func (r *runner) server(ctx context.Context, c *cli.Command) error {
	a, err := r.open(ctx, c)
	if err != nil {
		return err
	}
	srv := server.New(a.DB, a.Pipeline, r.logger)
	if addr := c.String("http"); addr != "" {
		return srv.ServeHTTP(ctx, addr)
	}
	return srv.Run(ctx)
}

func (r *runner) check(ctx context.Context, c *cli.Command) error {
	a, err := r.open(ctx, c)
	if err != nil {
		return err
	}
	report := a.Check(ctx)
	if c.Bool("notify") {
		if err := a.Notifier.Test(ctx); err != nil {
			report.Healthy = false
			r.logger.Error("test notification failed", "backend", a.Notifier.Backend(), "error", err)
		}
	}
	if c.Bool("json") {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printCheck(os.Stdout, report)
	}
	if !report.Healthy {
		return errors.New("check failed")
	}
	return nil
}

func (r *runner) initConfig(c *cli.Command) error {
	path, err := config.WriteStarter(c.String("config"), config.Default())
	if err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	fmt.Println("Set youtube.api_key and ai.api_key (or YOUTUBE_API_KEY and GEMINI_API_KEY / OPENAI_API_KEY), then run 'tubedigest check'.")
	return nil
}

func (r *runner) scheduleOptions(c *cli.Command) (schedule.Options, []schedule.Job, error) {
	if err := r.setup(c); err != nil {
		return schedule.Options{}, nil, err
	}
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return schedule.Options{}, nil, fmt.Errorf("cannot discover program path: %v", err)
	}
	hour := c.Int("daily-hour")
	if hour < 0 {
		hour = r.cfg.Schedule.EndHour
	}
	opt := schedule.Options{
		Label:           c.String("label"),
		ProgramPath:     exe,
		ConfigPath:      c.String("config"),
		IntervalMinutes: c.Int("interval-minutes"),
		DailyHour:       hour,
		LogPath:         c.String("schedule-log"),
	}
	jobs, err := schedule.Jobs(opt)
	return opt, jobs, err
}

func (r *runner) scheduleInstall(ctx context.Context, c *cli.Command) error {
	opt, jobs, err := r.scheduleOptions(c)
	if err != nil {
		return err
	}
	paths, err := schedule.Install(opt, jobs)
	for _, p := range paths {
		fmt.Printf("launchd agent installed: %s\n", p)
	}
	return err
}

func (r *runner) scheduleUninstall(ctx context.Context, c *cli.Command) error {
	opt, jobs, err := r.scheduleOptions(c)
	if err != nil {
		return err
	}
	if err := schedule.Uninstall(opt, jobs); err != nil {
		return err
	}
	fmt.Println("launchd agents unloaded and removed")
	return nil
}

func (r *runner) scheduleStatus(ctx context.Context, c *cli.Command) error {
	opt, jobs, err := r.scheduleOptions(c)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		_, state := schedule.Status(opt.Label, j)
		fmt.Printf("%-6s %s\n", j.Name, state)
	}
	return nil
}

func (r *runner) scheduleCron(ctx context.Context, c *cli.Command) error {
	opt, jobs, err := r.scheduleOptions(c)
	if err != nil {
		return err
	}
	fmt.Print(schedule.Crontab(opt, jobs))
	return nil
}

func channelKeys(cfg config.AppConfig) string {
	keys := make([]string, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		keys = append(keys, ch.Key)
	}
	return strings.Join(keys, ", ")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
