// Package schedule installs external timers that run the poll and daily
// commands. tubedigest itself never schedules anything.
package schedule

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultLabel           = "com.tubedigest"
	DefaultIntervalMinutes = 30
	DefaultDailyHour       = 21
)

// Job is one recurring invocation of the binary. Exactly one of
// IntervalMinutes and Hour applies: a job with Hour >= 0 runs once a day.
type Job struct {
	Name            string
	Args            []string
	IntervalMinutes int
	Hour            int
	Minute          int
}

func (j Job) daily() bool { return j.Hour >= 0 }

// Options describe the binary and the cadence to install.
type Options struct {
	Label           string
	ProgramPath     string
	ConfigPath      string
	IntervalMinutes int
	DailyHour       int
	LogPath         string
}

// Jobs returns the poll job (every IntervalMinutes) and the daily digest job.
func Jobs(opt Options) ([]Job, error) {
	if strings.TrimSpace(opt.ProgramPath) == "" {
		return nil, errors.New("program path required")
	}
	if opt.IntervalMinutes <= 0 {
		opt.IntervalMinutes = DefaultIntervalMinutes
	}
	if opt.DailyHour < 0 || opt.DailyHour > 23 {
		return nil, fmt.Errorf("daily hour must be 0-23, got %d", opt.DailyHour)
	}
	var common []string
	if opt.ConfigPath != "" {
		common = append(common, "--config", opt.ConfigPath)
	}
	return []Job{
		{Name: "poll", Args: append(append([]string{}, common...), "poll"), IntervalMinutes: opt.IntervalMinutes, Hour: -1},
		{Name: "daily", Args: append(append([]string{}, common...), "daily"), Hour: opt.DailyHour},
	}, nil
}

func jobLabel(base string, j Job) string {
	if base == "" {
		base = DefaultLabel
	}
	return base + "." + j.Name
}

// Crontab renders crontab lines for the jobs. Cron uses the host's local time.
func Crontab(opt Options, jobs []Job) string {
	var b strings.Builder
	b.WriteString("# tubedigest\n")
	for _, j := range jobs {
		when := fmt.Sprintf("*/%d * * * *", j.IntervalMinutes)
		if j.daily() {
			when = fmt.Sprintf("%d %d * * *", j.Minute, j.Hour)
		}
		cmd := shellJoin(append([]string{opt.ProgramPath}, j.Args...))
		if opt.LogPath != "" {
			cmd += " >> " + shellQuote(opt.LogPath) + " 2>&1"
		}
		fmt.Fprintf(&b, "%s %s\n", when, cmd)
	}
	return b.String()
}

func shellJoin(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = shellQuote(a)
	}
	return strings.Join(out, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>*?()[]{}#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
