package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"tubedigest/internal/list"
	"tubedigest/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{}
	app := &cli.Command{
		Name:    "tubedigest",
		Usage:   "Summarize new YouTube uploads and build a daily digest",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config file (yaml or toml)", Sources: cli.EnvVars("TUBEDIGEST_CONFIG")},
			&cli.StringFlag{Name: "log-format", Usage: "console, json or auto (overrides logging.format)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides logging.level)"},
			&cli.StringFlag{Name: "log-file", Usage: "also append log records to this file"},
		},
		After: func(ctx context.Context, c *cli.Command) error {
			return r.close()
		},
		Commands: []*cli.Command{
			{
				Name:  "poll",
				Usage: "Run one poll cycle over all configured channels",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print the cycle report as JSON"},
				},
				Action: r.poll,
			},
			{
				Name:  "daily",
				Usage: "Build the daily digest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "day to summarize as YYYY-MM-DD (default: today)"},
					&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
				},
				Action: r.daily,
			},
			{
				Name:  "inspect",
				Usage: "Show a channel's recent uploads and whether they were processed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "channel", UsageText: "channel key"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print the report as JSON"},
				},
				Action: r.inspect,
			},
			{
				Name:  "list",
				Usage: "List processed videos or digests",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "maximum rows", Value: list.DefaultLimit},
					&cli.BoolFlag{Name: "digests", Usage: "list daily digests instead of videos"},
					&cli.BoolFlag{Name: "wide", Usage: "include summary preview and URL"},
				},
				Action: r.list,
			},
			{
				Name:   "browse",
				Usage:  "Browse videos and digests in a terminal UI",
				Action: r.browse,
			},
			{
				Name:  "server",
				Usage: "Run the MCP server (stdio unless --http is given)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "http", Usage: "listen address for streamable HTTP, e.g. :8080"},
				},
				Action: r.server,
			},
			{
				Name:  "check",
				Usage: "Verify database, discovery and integrations without processing anything",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print the report as JSON"},
					&cli.BoolFlag{Name: "notify", Usage: "also send a test notification"},
				},
				Action: r.check,
			},
			{
				Name:  "init",
				Usage: "Write a starter config file",
				Action: func(ctx context.Context, c *cli.Command) error {
					return r.initConfig(c)
				},
			},
			{
				Name:  "schedule",
				Usage: "Install external timers for poll and daily",
				Commands: []*cli.Command{
					{
						Name:   "install",
						Usage:  "Install launchd agents (macOS)",
						Flags:  scheduleFlags(),
						Action: r.scheduleInstall,
					},
					{
						Name:   "uninstall",
						Usage:  "Remove launchd agents (macOS)",
						Flags:  scheduleFlags(),
						Action: r.scheduleUninstall,
					},
					{
						Name:   "status",
						Usage:  "Show launchd agent status (macOS)",
						Flags:  scheduleFlags(),
						Action: r.scheduleStatus,
					},
					{
						Name:   "cron",
						Usage:  "Print crontab lines",
						Flags:  scheduleFlags(),
						Action: r.scheduleCron,
					},
				},
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(ctx context.Context, c *cli.Command) error {
					fmt.Println(version.GetVersion())
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = r.close()
		os.Exit(1)
	}
}

func scheduleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "label", Usage: "launchd label prefix", Value: "com.tubedigest"},
		&cli.IntFlag{Name: "interval-minutes", Usage: "poll interval", Value: 30},
		&cli.IntFlag{Name: "daily-hour", Usage: "local hour for the daily digest (default: schedule.end_hour)", Value: -1},
		&cli.StringFlag{Name: "schedule-log", Usage: "file receiving the scheduled runs' output"},
	}
}
