// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// DEAUTHWATCH_STATS_INTERVAL=2s.
const EnvPrefix = "DEAUTHWATCH"

// Config is the top-level configuration.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Decoder DecoderConfig `mapstructure:"decoder" yaml:"decoder"`
	Stats   StatsConfig   `mapstructure:"stats" yaml:"stats"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
}

// CaptureConfig selects and configures the frame source.
type CaptureConfig struct {
	Interface string `mapstructure:"interface" yaml:"interface"` // Monitor-mode interface for live/tshark capture
	Filter    string `mapstructure:"filter" yaml:"filter"`       // Optional BPF filter
	Snaplen   int    `mapstructure:"snaplen" yaml:"snaplen"`
	File      string `mapstructure:"file" yaml:"file"`
	Realtime  bool   `mapstructure:"realtime" yaml:"realtime"` // Pace file replay by capture timestamps
	Listen    string `mapstructure:"listen" yaml:"listen"`     // UDP address for ESP8266 relays
}

// DecoderConfig configures frame control decoding.
type DecoderConfig struct {
	MinLength int `mapstructure:"min_length" yaml:"min_length"`
}

// StatsConfig configures interval rolling and alarms.
type StatsConfig struct {
	Interval             time.Duration `mapstructure:"interval" yaml:"interval"`
	DeauthAlarmThreshold uint64        `mapstructure:"deauth_alarm_threshold" yaml:"deauth_alarm_threshold"`
	ProbeAlarmThreshold  uint64        `mapstructure:"probe_alarm_threshold" yaml:"probe_alarm_threshold"`
	MaxAlerts            int           `mapstructure:"max_alerts" yaml:"max_alerts"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `mapstructure:"level" yaml:"level"`
	Format string        `mapstructure:"format" yaml:"format"` // text | json
	File   LogFileConfig `mapstructure:"file" yaml:"file"`
}

// LogFileConfig configures the rotating log file.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ReportConfig configures the reporting sinks.
type ReportConfig struct {
	Console     bool       `mapstructure:"console" yaml:"console"`
	SessionHTML string     `mapstructure:"session_html" yaml:"session_html"` // Directory for the html session report; empty disables
	NATS        NATSConfig `mapstructure:"nats" yaml:"nats"`
	HTTP        HTTPConfig `mapstructure:"http" yaml:"http"`
}

// NATSConfig configures the NATS snapshot publisher.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// HTTPConfig configures the HTTP status endpoint.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
}

// TUIConfig configures the terminal dashboard.
type TUIConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Capture: CaptureConfig{
			Snaplen: 2048,
			Listen:  ":4210",
		},
		Decoder: DecoderConfig{
			MinLength: 12,
		},
		Stats: StatsConfig{
			Interval:             time.Second,
			DeauthAlarmThreshold: 5,
			MaxAlerts:            20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File: LogFileConfig{
				Path:       "deauthwatch.log",
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 7,
			},
		},
		Report: ReportConfig{
			Console: true,
			NATS: NATSConfig{
				URL:     "nats://127.0.0.1:4222",
				Subject: "deauthwatch.stats",
			},
			HTTP: HTTPConfig{
				Listen: "127.0.0.1:8080",
			},
		},
	}
}

// SetDefaults registers every default value with v so that environment
// variables and flags can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("capture.interface", d.Capture.Interface)
	v.SetDefault("capture.filter", d.Capture.Filter)
	v.SetDefault("capture.snaplen", d.Capture.Snaplen)
	v.SetDefault("capture.file", d.Capture.File)
	v.SetDefault("capture.realtime", d.Capture.Realtime)
	v.SetDefault("capture.listen", d.Capture.Listen)
	v.SetDefault("decoder.min_length", d.Decoder.MinLength)
	v.SetDefault("stats.interval", d.Stats.Interval)
	v.SetDefault("stats.deauth_alarm_threshold", d.Stats.DeauthAlarmThreshold)
	v.SetDefault("stats.probe_alarm_threshold", d.Stats.ProbeAlarmThreshold)
	v.SetDefault("stats.max_alerts", d.Stats.MaxAlerts)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file.enabled", d.Log.File.Enabled)
	v.SetDefault("log.file.path", d.Log.File.Path)
	v.SetDefault("log.file.max_size_mb", d.Log.File.MaxSizeMB)
	v.SetDefault("log.file.max_backups", d.Log.File.MaxBackups)
	v.SetDefault("log.file.max_age_days", d.Log.File.MaxAgeDays)
	v.SetDefault("log.file.compress", d.Log.File.Compress)
	v.SetDefault("report.console", d.Report.Console)
	v.SetDefault("report.session_html", d.Report.SessionHTML)
	v.SetDefault("report.nats.enabled", d.Report.NATS.Enabled)
	v.SetDefault("report.nats.url", d.Report.NATS.URL)
	v.SetDefault("report.nats.subject", d.Report.NATS.Subject)
	v.SetDefault("report.http.enabled", d.Report.HTTP.Enabled)
	v.SetDefault("report.http.listen", d.Report.HTTP.Listen)
	v.SetDefault("tui.enabled", d.TUI.Enabled)
}

// Load reads the configuration file at path (if any) into v, applies
// environment overrides and validates the result. An empty path means
// defaults plus environment only.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the monitor cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Stats.Interval <= 0 {
		errs = append(errs, fmt.Errorf("stats.interval must be positive, got %s", c.Stats.Interval))
	}
	if c.Decoder.MinLength < 0 {
		errs = append(errs, fmt.Errorf("decoder.min_length must not be negative, got %d", c.Decoder.MinLength))
	}
	if c.Capture.Snaplen <= 0 {
		errs = append(errs, fmt.Errorf("capture.snaplen must be positive, got %d", c.Capture.Snaplen))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		errs = append(errs, errors.New("log.file.path is required when log.file.enabled is set"))
	}
	if c.Report.NATS.Enabled && (c.Report.NATS.URL == "" || c.Report.NATS.Subject == "") {
		errs = append(errs, errors.New("report.nats requires url and subject"))
	}
	if c.Report.HTTP.Enabled && c.Report.HTTP.Listen == "" {
		errs = append(errs, errors.New("report.http.listen is required when report.http.enabled is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// YAML renders the configuration in the same layout WriteDefault uses.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
