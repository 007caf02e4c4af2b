// Package config provides YAML-based configuration loading for Hearth.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Hearth configuration, loaded from hearth.yaml.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Link    LinkConfig    `yaml:"link"`
	Host    HostConfig    `yaml:"host"`
	Notify  NotifyConfig  `yaml:"notify"`
	Backup  BackupConfig  `yaml:"backup"`
}

// RuntimeConfig tunes the tick loop and the supervisor's bounded state.
// All periods are in ticks; the runtime has no clock of its own.
type RuntimeConfig struct {
	TickIntervalMs       int    `yaml:"tick_interval_ms"`
	BootTimeoutTicks     uint64 `yaml:"boot_timeout_ticks"`
	HeartbeatTicks       uint64 `yaml:"heartbeat_ticks"`
	JournalTicks         uint64 `yaml:"journal_ticks"`
	MorningTicks         uint64 `yaml:"morning_ticks"`
	EveningTicks         uint64 `yaml:"evening_ticks"`
	ResponseTimeoutTicks uint64 `yaml:"response_timeout_ticks"`
	QueueCap             int    `yaml:"queue_cap"`
	InsightCap           int    `yaml:"insight_cap"`
}

// LinkConfig describes the byte-stream link between runtime and host.
type LinkConfig struct {
	// Address is the TCP address the host listens on and the runtime
	// dials, e.g. "127.0.0.1:9333".
	Address string `yaml:"address"`
	// MaxLineLen bounds inbound line assembly on both ends.
	MaxLineLen int `yaml:"max_line_len"`
}

// HostConfig configures the host-side bridge process.
type HostConfig struct {
	Driver        string `yaml:"driver"` // "sqlite" or "mysql"
	DSN           string `yaml:"dsn"`
	DashboardAddr string `yaml:"dashboard_addr"` // empty disables the dashboard
	DayCron       string `yaml:"day_cron"`       // five-field cron for the day signal
}

// NotifyConfig holds chat relay settings. An empty section disables
// that platform.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack Web API settings for outbound notifications.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot settings for outbound notifications.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// BackupConfig configures the GitHub snapshot layer. An empty token
// disables backups.
type BackupConfig struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
	Token  string `yaml:"token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Runtime.TickIntervalMs == 0 {
		c.Runtime.TickIntervalMs = 10
	}
	if c.Runtime.BootTimeoutTicks == 0 {
		c.Runtime.BootTimeoutTicks = 256
	}
	if c.Runtime.HeartbeatTicks == 0 {
		c.Runtime.HeartbeatTicks = 100
	}
	if c.Runtime.JournalTicks == 0 {
		c.Runtime.JournalTicks = 1000
	}
	if c.Runtime.MorningTicks == 0 {
		c.Runtime.MorningTicks = 5000
	}
	if c.Runtime.EveningTicks == 0 {
		c.Runtime.EveningTicks = 5000
	}
	if c.Runtime.ResponseTimeoutTicks == 0 {
		c.Runtime.ResponseTimeoutTicks = 512
	}
	if c.Link.Address == "" {
		c.Link.Address = "127.0.0.1:9333"
	}
	if c.Link.MaxLineLen == 0 {
		c.Link.MaxLineLen = 64 * 1024
	}
	if c.Host.Driver == "" {
		c.Host.Driver = "sqlite"
	}
	if c.Host.DSN == "" && c.Host.Driver == "sqlite" {
		c.Host.DSN = "hearth.db"
	}
	if c.Host.DayCron == "" {
		c.Host.DayCron = "0 0 * * *"
	}
	if c.Backup.Branch == "" {
		c.Backup.Branch = "main"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "snapshots/hearth.json"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Host.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("host.driver %q must be sqlite or mysql", c.Host.Driver))
	}
	if c.Host.Driver == "mysql" && c.Host.DSN == "" {
		errs = append(errs, "host.dsn is required for the mysql driver")
	}
	if c.Runtime.TickIntervalMs < 0 {
		errs = append(errs, "runtime.tick_interval_ms must not be negative")
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.ChannelID == "" {
		errs = append(errs, "notify.slack.channel_id is required when a bot token is set")
	}
	if c.Notify.Discord.Token != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required when a token is set")
	}
	if c.Backup.Token != "" && (c.Backup.Owner == "" || c.Backup.Repo == "") {
		errs = append(errs, "backup.owner and backup.repo are required when a token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
