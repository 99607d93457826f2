package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJobs(t *testing.T, opt Options) []Job {
	t.Helper()
	jobs, err := Jobs(opt)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	return jobs
}

func TestJobs(t *testing.T) {
	jobs := testJobs(t, Options{ProgramPath: "/usr/local/bin/tubedigest", ConfigPath: "/etc/td.yaml", DailyHour: 21})
	assert.Equal(t, []string{"--config", "/etc/td.yaml", "poll"}, jobs[0].Args)
	assert.Equal(t, DefaultIntervalMinutes, jobs[0].IntervalMinutes)
	assert.False(t, jobs[0].daily())
	assert.Equal(t, []string{"--config", "/etc/td.yaml", "daily"}, jobs[1].Args)
	assert.True(t, jobs[1].daily())

	_, err := Jobs(Options{})
	assert.Error(t, err)
	_, err = Jobs(Options{ProgramPath: "x", DailyHour: 24})
	assert.Error(t, err)
}

func TestCrontab(t *testing.T) {
	opt := Options{ProgramPath: "/opt/tube digest/tubedigest", IntervalMinutes: 15, DailyHour: 21, LogPath: "/var/log/td.log"}
	out := Crontab(opt, testJobs(t, opt))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "*/15 * * * * '/opt/tube digest/tubedigest' poll >> /var/log/td.log 2>&1", lines[1])
	assert.Equal(t, "0 21 * * * '/opt/tube digest/tubedigest' daily >> /var/log/td.log 2>&1", lines[2])
}

func TestBuildPlist(t *testing.T) {
	opt := Options{ProgramPath: "/usr/local/bin/tubedigest", DailyHour: 21, LogPath: "/tmp/td.log"}
	jobs := testJobs(t, opt)

	poll, err := BuildPlist("com.tubedigest.poll", opt, jobs[0])
	require.NoError(t, err)
	s := string(poll)
	assert.Contains(t, s, "<string>com.tubedigest.poll</string>")
	assert.Contains(t, s, "<key>StartInterval</key>\n    <integer>1800</integer>")
	assert.Contains(t, s, "<string>poll</string>")
	assert.NotContains(t, s, "KeepAlive")

	daily, err := BuildPlist("com.tubedigest.daily", opt, jobs[1])
	require.NoError(t, err)
	s = string(daily)
	assert.Contains(t, s, "<key>StartCalendarInterval</key>")
	assert.Contains(t, s, "<key>Hour</key>\n      <integer>21</integer>")
	assert.NotContains(t, s, "StartInterval</key>\n    <integer>")

	_, err = BuildPlist("", opt, jobs[0])
	assert.Error(t, err)
}

func TestJobLabel(t *testing.T) {
	assert.Equal(t, "com.tubedigest.poll", jobLabel("", Job{Name: "poll"}))
	assert.Equal(t, "x.daily", jobLabel("x", Job{Name: "daily"}))
}
