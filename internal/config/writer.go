package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WriteStarter writes a starter config to path. An existing file is backed up
// first and its database.path is carried over.
func WriteStarter(path string, cfg AppConfig) (string, error) {
	if strings.TrimSpace(path) == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("failed to resolve config path: %w", err)
		}
		path = p
	}
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if prev, err := loadExistingConfig(path); err == nil {
			if db, ok := prev["database"].(map[string]any); ok {
				if p, ok := db["path"].(string); ok && strings.TrimSpace(p) != "" {
					cfg.Database.Path = p
				}
			}
		}
		if err := BackupFile(path); err != nil {
			return "", fmt.Errorf("failed to back up existing config: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(renderYAML(cfg)), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// renderYAML renders by hand so channel entries carry their display name as a comment.
func renderYAML(cfg AppConfig) string {
	var sb strings.Builder
	sb.WriteString("# tubedigest configuration\n")

	sb.WriteString("channels:\n")
	for _, ch := range cfg.Channels {
		sb.WriteString(fmt.Sprintf("  - key: %s  # %s\n", ch.Key, ch.Name))
		sb.WriteString(fmt.Sprintf("    channel_id: %q\n", ch.ChannelID))
		sb.WriteString(fmt.Sprintf("    name: %q\n", ch.Name))
	}

	sb.WriteString("youtube:\n")
	sb.WriteString("  api_key: \"\"  # or YOUTUBE_API_KEY\n")
	sb.WriteString(fmt.Sprintf("  discovery: %s\n", cfg.YouTube.Discovery))
	sb.WriteString(fmt.Sprintf("  lookback_hours: %d\n", cfg.YouTube.LookbackHours))
	sb.WriteString(fmt.Sprintf("  inspect_lookback_hours: %d\n", cfg.YouTube.InspectLookbackHours))
	sb.WriteString(fmt.Sprintf("  languages: [%s]\n", strings.Join(cfg.YouTube.Languages, ", ")))

	sb.WriteString("schedule:\n")
	sb.WriteString(fmt.Sprintf("  start_hour: %d\n", cfg.Schedule.StartHour))
	sb.WriteString(fmt.Sprintf("  end_hour: %d\n", cfg.Schedule.EndHour))
	sb.WriteString(fmt.Sprintf("  timezone: %s\n", cfg.Schedule.Timezone))

	sb.WriteString("ai:\n")
	sb.WriteString(fmt.Sprintf("  provider: %s\n", cfg.AI.Provider))
	sb.WriteString(fmt.Sprintf("  base_url: %q\n", cfg.AI.BaseURL))
	sb.WriteString(fmt.Sprintf("  model: %q\n", cfg.AI.Model))
	sb.WriteString("  api_key: \"\"  # or GEMINI_API_KEY / OPENAI_API_KEY\n")
	sb.WriteString(fmt.Sprintf("  max_chunk_chars: %d\n", cfg.AI.MaxChunkChars))

	sb.WriteString("database:\n")
	sb.WriteString(fmt.Sprintf("  driver: %s\n", cfg.Database.Driver))
	sb.WriteString(fmt.Sprintf("  path: %q\n", cfg.Database.Path))

	sb.WriteString("drive:\n")
	sb.WriteString("  enabled: false\n")
	sb.WriteString("  credentials_file: \"\"\n")
	sb.WriteString("  folders:\n")
	sb.WriteString("    transcripts: \"\"\n")
	sb.WriteString("    summaries: \"\"\n")
	sb.WriteString("    digests: \"\"\n")

	sb.WriteString("notifications:\n")
	sb.WriteString("  webhook_url: \"\"  # or NOTIFICATION_WEBHOOK\n")
	sb.WriteString("  ntfy_topic: \"\"\n")

	sb.WriteString("logging:\n")
	sb.WriteString(fmt.Sprintf("  format: %s\n", cfg.Logging.Format))
	sb.WriteString(fmt.Sprintf("  level: %s\n", cfg.Logging.Level))
	return sb.String()
}

func loadExistingConfig(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// BackupFile creates a backup of the specified file with a timestamp
func BackupFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ts := time.Now().Format("20060102-150405")
	bak := path + ".bak-" + ts
	return os.WriteFile(bak, b, 0o600)
}
