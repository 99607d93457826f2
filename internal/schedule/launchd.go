package schedule

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

func DefaultAgentPath(label string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", label+".plist"), nil
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tubedigest.log")
	}
	return filepath.Join(home, "Library", "Logs", "tubedigest", "tubedigest.log")
}

// BuildPlist renders a launchd agent for one job. Interval jobs use
// StartInterval, daily jobs StartCalendarInterval in local time. The
// commands exit after one run, so there is no KeepAlive.
func BuildPlist(label string, opt Options, j Job) ([]byte, error) {
	if label == "" {
		return nil, errors.New("label required")
	}
	if opt.ProgramPath == "" {
		return nil, errors.New("program path required")
	}
	logPath := opt.LogPath
	if logPath == "" {
		logPath = defaultLogPath()
	}

	escape := func(s string) string {
		var b bytes.Buffer
		_ = xml.EscapeText(&b, []byte(s))
		return b.String()
	}
	str := func(buf *bytes.Buffer, key, val string) {
		fmt.Fprintf(buf, "    <key>%s</key>\n    <string>%s</string>\n", key, escape(val))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE plist PUBLIC \"-//Apple//DTD PLIST 1.0//EN\" \"http://www.apple.com/DTDs/PropertyList-1.0.dtd\">\n")
	buf.WriteString("<plist version=\"1.0\">\n  <dict>\n")
	str(&buf, "Label", label)

	buf.WriteString("    <key>ProgramArguments</key>\n    <array>\n")
	for _, a := range append([]string{opt.ProgramPath}, j.Args...) {
		fmt.Fprintf(&buf, "      <string>%s</string>\n", escape(a))
	}
	buf.WriteString("    </array>\n")

	if j.daily() {
		buf.WriteString("    <key>StartCalendarInterval</key>\n    <dict>\n")
		fmt.Fprintf(&buf, "      <key>Hour</key>\n      <integer>%d</integer>\n", j.Hour)
		fmt.Fprintf(&buf, "      <key>Minute</key>\n      <integer>%d</integer>\n", j.Minute)
		buf.WriteString("    </dict>\n")
	} else {
		buf.WriteString("    <key>StartInterval</key>\n    <integer>")
		buf.WriteString(strconv.Itoa(j.IntervalMinutes * 60))
		buf.WriteString("</integer>\n")
		buf.WriteString("    <key>RunAtLoad</key>\n    <true/>\n")
	}
	str(&buf, "StandardOutPath", logPath)
	str(&buf, "StandardErrorPath", logPath)
	buf.WriteString("  </dict>\n</plist>\n")
	return buf.Bytes(), nil
}

// Install writes one agent per job and loads it via launchctl. It returns
// the plist paths written.
func Install(opt Options, jobs []Job) ([]string, error) {
	if runtime.GOOS != "darwin" {
		return nil, errors.New("launchd is only available on macOS; use 'tubedigest schedule cron' instead")
	}
	lctl := launchctlPath()
	if lctl == "" {
		return nil, errors.New("launchctl not found in /bin, /usr/bin, or PATH")
	}
	logPath := opt.LogPath
	if logPath == "" {
		logPath = defaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}
	opt.LogPath = logPath

	domain := fmt.Sprintf("gui/%d", os.Getuid())
	var paths []string
	for _, j := range jobs {
		label := jobLabel(opt.Label, j)
		path, err := DefaultAgentPath(label)
		if err != nil {
			return paths, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return paths, err
		}
		data, err := BuildPlist(label, opt, j)
		if err != nil {
			return paths, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)

		if err := exec.Command(lctl, "bootstrap", domain, path).Run(); err != nil {
			if err2 := exec.Command(lctl, "load", "-w", path).Run(); err2 != nil {
				return paths, fmt.Errorf("launchctl bootstrap/load %s failed: %v / %v", label, err, err2)
			}
		} else {
			_ = exec.Command(lctl, "enable", domain+"/"+label).Run()
		}
	}
	return paths, nil
}

// Uninstall unloads and removes the agents for jobs.
func Uninstall(opt Options, jobs []Job) error {
	if runtime.GOOS != "darwin" {
		return errors.New("launchd is only available on macOS")
	}
	lctl := launchctlPath()
	if lctl == "" {
		return errors.New("launchctl not found")
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	for _, j := range jobs {
		path, err := DefaultAgentPath(jobLabel(opt.Label, j))
		if err != nil {
			return err
		}
		if err := exec.Command(lctl, "bootout", domain, path).Run(); err != nil {
			_ = exec.Command(lctl, "unload", "-w", path).Run()
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Status reports whether the agent for j is loaded, with launchctl's state line.
func Status(base string, j Job) (bool, string) {
	if runtime.GOOS != "darwin" {
		return false, "unsupported"
	}
	lctl := launchctlPath()
	if lctl == "" {
		return false, "launchctl not found"
	}
	out, err := exec.Command(lctl, "print", fmt.Sprintf("gui/%d/%s", os.Getuid(), jobLabel(base, j))).CombinedOutput()
	if err != nil {
		return false, "not loaded"
	}
	for _, ln := range strings.Split(string(out), "\n") {
		if strings.Contains(ln, "state = ") {
			return true, strings.TrimSpace(ln)
		}
	}
	return true, "loaded"
}

func launchctlPath() string {
	for _, c := range []string{"/bin/launchctl", "/usr/bin/launchctl"} {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	if p, err := exec.LookPath("launchctl"); err == nil {
		return p
	}
	return ""
}
