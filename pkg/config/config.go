// Package config loads service configuration from YAML, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MARKETINSIGHT_SERVER_ADDR.
const EnvPrefix = "MARKETINSIGHT"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Provider ProviderConfig `mapstructure:"provider"`
	Panel    PanelConfig    `mapstructure:"panel"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Settings SettingsConfig `mapstructure:"settings"`
	Fixtures FixturesConfig `mapstructure:"fixtures"`
	Layout   LayoutConfig   `mapstructure:"layout"`

	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BasePath    string `mapstructure:"base_path"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// LogConfig controls logger construction. Level is reloadable.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ProviderConfig configures the generative-language provider. Models are reloadable.
type ProviderConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	FlashModel     string        `mapstructure:"flash_model"`
	ProModel       string        `mapstructure:"pro_model"`
	ThinkingBudget int32         `mapstructure:"thinking_budget"`
	Timeout        time.Duration `mapstructure:"timeout"`
	// RateLimit is the sustained calls per second. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// PanelConfig bounds panel fetch cycles.
type PanelConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig configures the intervention workflow.
type AgentConfig struct {
	Goal        string        `mapstructure:"goal"`
	ExecDelay   time.Duration `mapstructure:"exec_delay"`
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
}

// Settings storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// SettingsConfig selects the settings store.
type SettingsConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is a directory for the file driver and a database file for sqlite.
	Path string `mapstructure:"path"`
}

// FixturesConfig points at optional dashboard data sources.
type FixturesConfig struct {
	// Path is a YAML fixture document merged over the built-in data.
	Path string `mapstructure:"path"`
	// RemoteURL switches to the HTTP snapshot client when set.
	RemoteURL string `mapstructure:"remote_url"`
}

// LayoutConfig customizes the dashboard widgets.
type LayoutConfig struct {
	// Manifest is a widget manifest whose views replace the built-in ones.
	Manifest string `mapstructure:"manifest"`
	// ChartTheme is the go-echarts theme for chart widgets.
	ChartTheme string `mapstructure:"chart_theme"`
	// ChartAssetsHost serves the echarts scripts. MARKETINSIGHT_ECHARTS_CDN overrides it.
	ChartAssetsHost string `mapstructure:"chart_assets_host"`
}

// NotificationsConfig forwards settled panel events and agent changes to a webhook.
type NotificationsConfig struct {
	// WebhookURL enables delivery when set.
	WebhookURL string        `mapstructure:"webhook_url"`
	Channel    string        `mapstructure:"channel"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]any{
	"server.addr":               ":8080",
	"server.base_path":          "/marketing",
	"server.metrics_path":       "/metrics",
	"log.level":                 "info",
	"log.pretty":                false,
	"provider.api_key":          "",
	"provider.flash_model":      "gemini-3-flash-preview",
	"provider.pro_model":        "gemini-3-pro-preview",
	"provider.thinking_budget":  4000,
	"provider.timeout":          60 * time.Second,
	"provider.rate_limit":       0.0,
	"provider.burst":            1,
	"panel.timeout":             90 * time.Second,
	"agent.goal":                "Optimize for 20% ROAS increase across all channels while maintaining spend.",
	"agent.exec_delay":          2 * time.Second,
	"agent.exec_timeout":        30 * time.Second,
	"settings.driver":           DriverFile,
	"settings.path":             ".marketinsight",
	"fixtures.path":             "",
	"fixtures.remote_url":       "",
	"layout.manifest":           "",
	"layout.chart_theme":        "",
	"layout.chart_assets_host":  "",
	"notifications.webhook_url": "",
	"notifications.channel":     "marketing",
	"notifications.timeout":     5 * time.Second,
}

// Load reads path (optional) and applies env overrides over defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the provider key also honours the bare names used by hosted notebooks
	_ = v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "GEMINI_API_KEY", "API_KEY")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("config: server.addr is required"))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("config: server.base_path %q must start with /", c.Server.BasePath))
	}
	switch c.Settings.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: unknown settings.driver %q", c.Settings.Driver))
	}
	if c.Provider.RateLimit < 0 {
		errs = append(errs, errors.New("config: provider.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}
