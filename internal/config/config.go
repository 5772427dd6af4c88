// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Collector CollectorConfig `mapstructure:"collector"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	LLM       LLMConfig       `mapstructure:"llm"`
	History   HistoryConfig   `mapstructure:"history"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	KeepAlive KeepAliveConfig `mapstructure:"keepalive"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// CollectorConfig governs plain-HTTP signal collection.
type CollectorConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	ProbeTimeoutSecs int    `mapstructure:"probe_timeout_seconds"`
}

// HeadlessConfig configures the browser metrics collaborator.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// LLMConfig points at the text-completion service.
type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HistoryConfig selects and configures the analysis record store.
type HistoryConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// TasksConfig bounds the in-memory task registry.
type TasksConfig struct {
	MaxTasks            int `mapstructure:"max_tasks"`
	ProgressIntervalSec int `mapstructure:"progress_interval_seconds"`
}

// KeepAliveConfig drives the self-ping loop. ExternalURL empty disables it.
type KeepAliveConfig struct {
	ExternalURL     string `mapstructure:"external_url"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

// ReportsConfig sets where downloadable reports are written.
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig toggles zap development features. Level overrides the mode
// default when set.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEOSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("collector.user_agent", "seoscout-bot/2.0")
	v.SetDefault("collector.timeout_seconds", 30)
	v.SetDefault("collector.probe_timeout_seconds", 10)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("llm.base_url", "https://api.siliconflow.cn/v1")
	v.SetDefault("llm.model", "Qwen/Qwen2.5-VL-72B-Instruct")
	v.SetDefault("llm.timeout_seconds", 30)
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "seo_analysis.db")
	v.SetDefault("tasks.max_tasks", 50)
	v.SetDefault("tasks.progress_interval_seconds", 5)
	v.SetDefault("keepalive.interval_seconds", 900)
	v.SetDefault("reports.dir", "reports")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Collector.TimeoutSeconds <= 0 {
		return fmt.Errorf("collector.timeout_seconds must be > 0")
	}
	if c.Tasks.MaxTasks <= 0 {
		return fmt.Errorf("tasks.max_tasks must be > 0")
	}
	switch c.History.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown history driver %q", c.History.Driver)
	}
	if c.History.Driver != "memory" && c.History.DSN == "" {
		return fmt.Errorf("history.dsn must be set for driver %q", c.History.Driver)
	}
	return nil
}

// CollectorTimeout converts the configured seconds into a duration.
func (c Config) CollectorTimeout() time.Duration {
	return time.Duration(c.Collector.TimeoutSeconds) * time.Second
}

// ProbeTimeout bounds robots.txt/sitemap.xml existence probes.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Collector.ProbeTimeoutSecs) * time.Second
}

// LLMTimeout is the hard per-call ceiling for the completion collaborator.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// KeepAliveInterval is the delay between self-pings.
func (c Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.KeepAlive.IntervalSeconds) * time.Second
}

// ProgressInterval is the cadence of task progress checkpoints.
func (c Config) ProgressInterval() time.Duration {
	return time.Duration(c.Tasks.ProgressIntervalSec) * time.Second
}
