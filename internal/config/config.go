package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownChannel = errors.New("unknown channel")

type ConfigLoad func(path string) (AppConfig, error)

func AppConfigLoader() ConfigLoad {
	return Load
}

// Channel is one monitored YouTube channel.
type Channel struct {
	Key       string `yaml:"key" toml:"key"`
	ChannelID string `yaml:"channel_id" toml:"channel_id"`
	Name      string `yaml:"name" toml:"name"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Discovery is "api", "feed" or "auto" (api when a key is present).
	Discovery            string   `yaml:"discovery" toml:"discovery"`
	LookbackHours        int      `yaml:"lookback_hours" toml:"lookback_hours"`
	InspectLookbackHours int      `yaml:"inspect_lookback_hours" toml:"inspect_lookback_hours"`
	MaxResults           int      `yaml:"max_results" toml:"max_results"`
	Languages            []string `yaml:"languages" toml:"languages"`
	RequestsPerSecond    float64  `yaml:"requests_per_second" toml:"requests_per_second"`
	TimeoutSec           int      `yaml:"timeout_sec" toml:"timeout_sec"`
}

type ScheduleConfig struct {
	StartHour int    `yaml:"start_hour" toml:"start_hour"`
	EndHour   int    `yaml:"end_hour" toml:"end_hour"`
	Timezone  string `yaml:"timezone" toml:"timezone"`
}

type AIConfig struct {
	Provider      string  `yaml:"provider" toml:"provider"`
	BaseURL       string  `yaml:"base_url" toml:"base_url"`
	APIKey        string  `yaml:"api_key" toml:"api_key"`
	Model         string  `yaml:"model" toml:"model"`
	MaxTokens     int     `yaml:"max_tokens" toml:"max_tokens"`
	Temperature   float64 `yaml:"temperature" toml:"temperature"`
	TimeoutSec    int     `yaml:"timeout_sec" toml:"timeout_sec"`
	MaxChunkChars int     `yaml:"max_chunk_chars" toml:"max_chunk_chars"`
	ItemPrompt    string  `yaml:"item_prompt" toml:"item_prompt"`
	ChunkPrompt   string  `yaml:"chunk_prompt" toml:"chunk_prompt"`
	DigestPrompt  string  `yaml:"digest_prompt" toml:"digest_prompt"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

type DriveFolders struct {
	Transcripts string `yaml:"transcripts" toml:"transcripts"`
	Summaries   string `yaml:"summaries" toml:"summaries"`
	Digests     string `yaml:"digests" toml:"digests"`
}

type DriveConfig struct {
	Enabled         bool         `yaml:"enabled" toml:"enabled"`
	CredentialsFile string       `yaml:"credentials_file" toml:"credentials_file"`
	Folders         DriveFolders `yaml:"folders" toml:"folders"`
}

type LocalMirrorConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

type NotificationsConfig struct {
	WebhookURL string `yaml:"webhook_url" toml:"webhook_url"`
	NtfyURL    string `yaml:"ntfy_url" toml:"ntfy_url"`
	NtfyTopic  string `yaml:"ntfy_topic" toml:"ntfy_topic"`
	TimeoutSec int    `yaml:"timeout_sec" toml:"timeout_sec"`
}

type LoggingConfig struct {
	Format string `yaml:"format" toml:"format"`
	Level  string `yaml:"level" toml:"level"`
}

// AppConfig is loaded once at startup and never mutated afterwards.
type AppConfig struct {
	Channels      []Channel           `yaml:"channels" toml:"channels"`
	YouTube       YouTubeConfig       `yaml:"youtube" toml:"youtube"`
	Schedule      ScheduleConfig      `yaml:"schedule" toml:"schedule"`
	AI            AIConfig            `yaml:"ai" toml:"ai"`
	Database      DatabaseConfig      `yaml:"database" toml:"database"`
	Drive         DriveConfig         `yaml:"drive" toml:"drive"`
	LocalMirror   LocalMirrorConfig   `yaml:"local_mirror" toml:"local_mirror"`
	Notifications NotificationsConfig `yaml:"notifications" toml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging" toml:"logging"`
	LockPath      string              `yaml:"lock_path" toml:"lock_path"`
}

func DefaultChannels() []Channel {
	return []Channel{
		{Key: "cryptoheroes", ChannelID: "UCN9Tn5k8KrW8rMwb-3HDGkg", Name: "CryptoHeroesYT"},
		{Key: "kryptowolf", ChannelID: "UC2D2CMWXMOVWx7giW1n3LIw", Name: "KryptoWolfDE"},
		{Key: "finanzwissen", ChannelID: "UC0dVE6xBGzENCi6U0DkpGQw", Name: "Finanzwissen"},
		{Key: "robynhd", ChannelID: "UC8T2-PPSdCR8oW_2rh5-F8Q", Name: "RobynHD"},
		{Key: "coincheck", ChannelID: "UCs7_R6w6S6t-qNf_bAaUO5w", Name: "CoinCheckTV"},
	}
}

// Default returns the configuration used when no file is present.
func Default() AppConfig {
	return AppConfig{
		Channels: DefaultChannels(),
		YouTube: YouTubeConfig{
			Discovery:            "auto",
			LookbackHours:        2,
			InspectLookbackHours: 168,
			MaxResults:           5,
			Languages:            []string{"de", "en"},
			RequestsPerSecond:    2,
			TimeoutSec:           30,
		},
		Schedule: ScheduleConfig{StartHour: 7, EndHour: 21, Timezone: "UTC"},
		AI: AIConfig{
			Provider:      "openai",
			BaseURL:       "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:         "gemini-1.5-flash",
			MaxTokens:     4000,
			Temperature:   0.7,
			TimeoutSec:    60,
			MaxChunkChars: 30000,
		},
		Database:      DatabaseConfig{Driver: "sqlite", Path: FallbackDBPath()},
		Notifications: NotificationsConfig{NtfyURL: "https://ntfy.sh", TimeoutSec: 10},
		Logging:       LoggingConfig{Format: "auto", Level: "info"},
	}
}

func FallbackDBPath() string {
	if runtime.GOOS == "darwin" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "tubedigest", "tubedigest.db")
	}
	return "tubedigest.db"
}

// DefaultConfigPath honours TUBEDIGEST_CONFIG, then ~/.config/tubedigest/config.yaml.
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("TUBEDIGEST_CONFIG")); p != "" {
		return ExpandPath(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tubedigest", "config.yaml"), nil
}

// Load reads the config file at path (or the default location when empty),
// applies defaults and environment overrides, then validates the result.
// A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	// list settings are filled after decoding so files replace them instead of merging
	cfg.Channels = nil
	cfg.YouTube.Languages = nil
	if strings.TrimSpace(path) == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	path = ExpandPath(path)

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(b, cfg)
	default:
		return yaml.Unmarshal(b, cfg)
	}
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY")); v != "" {
		c.YouTube.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		c.AI.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && c.AI.APIKey == "" {
		c.AI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTIFICATION_WEBHOOK")); v != "" {
		c.Notifications.WebhookURL = v
	}
}

func (c *AppConfig) normalize() {
	if len(c.Channels) == 0 {
		c.Channels = DefaultChannels()
	}
	if len(c.YouTube.Languages) == 0 {
		c.YouTube.Languages = []string{"de", "en"}
	}
	for i := range c.Channels {
		c.Channels[i].Key = strings.ToLower(strings.TrimSpace(c.Channels[i].Key))
		c.Channels[i].ChannelID = strings.TrimSpace(c.Channels[i].ChannelID)
		if strings.TrimSpace(c.Channels[i].Name) == "" {
			c.Channels[i].Name = c.Channels[i].Key
		}
	}
	c.YouTube.Discovery = strings.ToLower(strings.TrimSpace(c.YouTube.Discovery))
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Database.Path = ExpandPath(c.Database.Path)
	c.Drive.CredentialsFile = ExpandPath(c.Drive.CredentialsFile)
	c.LocalMirror.Dir = ExpandPath(c.LocalMirror.Dir)
	c.LockPath = ExpandPath(c.LockPath)
	if c.LockPath == "" && c.Database.Driver == "sqlite" {
		c.LockPath = c.Database.Path + ".lock"
	}
	if c.LockPath == "" {
		c.LockPath = filepath.Join(os.TempDir(), "tubedigest.lock")
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "UTC"
	}
}

// Validate reports the first invalid setting.
func (c AppConfig) Validate() error {
	if len(c.Channels) == 0 {
		return errors.New("config: at least one channel is required")
	}
	seen := make(map[string]struct{}, len(c.Channels))
	for _, ch := range c.Channels {
		if ch.Key == "" || ch.ChannelID == "" {
			return fmt.Errorf("config: channel %q needs key and channel_id", ch.Name)
		}
		if _, dup := seen[ch.Key]; dup {
			return fmt.Errorf("config: duplicate channel key %q", ch.Key)
		}
		seen[ch.Key] = struct{}{}
	}
	switch c.YouTube.Discovery {
	case "auto", "api", "feed":
	default:
		return fmt.Errorf("config: youtube.discovery must be auto, api or feed, got %q", c.YouTube.Discovery)
	}
	if c.YouTube.LookbackHours <= 0 || c.YouTube.InspectLookbackHours <= 0 {
		return errors.New("config: youtube lookback windows must be positive")
	}
	if c.YouTube.MaxResults <= 0 {
		return errors.New("config: youtube.max_results must be positive")
	}
	if len(c.YouTube.Languages) == 0 {
		return errors.New("config: youtube.languages needs at least one language")
	}
	if c.Schedule.StartHour < 0 || c.Schedule.EndHour > 23 || c.Schedule.StartHour > c.Schedule.EndHour {
		return fmt.Errorf("config: invalid polling hours %d-%d", c.Schedule.StartHour, c.Schedule.EndHour)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("config: schedule.timezone: %w", err)
	}
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("config: ai.provider must be openai or gemini, got %q", c.AI.Provider)
	}
	if c.AI.MaxChunkChars <= 0 {
		return errors.New("config: ai.max_chunk_chars must be positive")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Drive.Enabled && c.Drive.CredentialsFile == "" {
		return errors.New("config: drive.credentials_file is required when drive is enabled")
	}
	return nil
}

// Channel looks a channel up by key.
func (c AppConfig) Channel(key string) (Channel, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, ch := range c.Channels {
		if ch.Key == key {
			return ch, nil
		}
	}
	return Channel{}, fmt.Errorf("%w: %s", ErrUnknownChannel, key)
}

func (c AppConfig) Lookback() time.Duration {
	return time.Duration(c.YouTube.LookbackHours) * time.Hour
}

func (c AppConfig) InspectLookback() time.Duration {
	return time.Duration(c.YouTube.InspectLookbackHours) * time.Hour
}

// Location returns the reference zone for the polling gate and digest days.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UseDiscoveryAPI reports whether the Data API (rather than channel feeds) is used.
func (c AppConfig) UseDiscoveryAPI() bool {
	switch c.YouTube.Discovery {
	case "api":
		return true
	case "feed":
		return false
	default:
		return c.YouTube.APIKey != ""
	}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func (c AppConfig) YouTubeTimeout() time.Duration { return seconds(c.YouTube.TimeoutSec, 30) }

func (c AppConfig) AITimeout() time.Duration { return seconds(c.AI.TimeoutSec, 60) }

func (c AppConfig) NotificationTimeout() time.Duration {
	return seconds(c.Notifications.TimeoutSec, 10)
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
