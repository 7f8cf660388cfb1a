package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "OPPORTUNITY_RADAR_CONFIG"
	databaseEnv   = "DATABASE_PATH"
	aiProviderEnv = "AI_PROVIDER"
	aiAPIKeyEnv   = "AI_API_KEY"
	aiModelEnv    = "AI_MODEL"
	serverPortEnv = "SERVER_PORT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Plan     PlanConfig     `yaml:"plan"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	AI       AIConfig       `yaml:"ai"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address renders host:port for net/http.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig describes the SQLite database file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PlanConfig carries the edition limits enforced by the source registry.
type PlanConfig struct {
	Pro           bool `yaml:"pro"`
	MaxRSSSources int  `yaml:"maxRssSources"`
}

// FetcherConfig defines scheduling and fan-out limits for source fetching.
type FetcherConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
	Concurrency     int `yaml:"concurrency"`
	TimeoutSeconds  int `yaml:"timeoutSeconds"`
}

// ScoringConfig overrides the built-in signal rule set when non-empty.
type ScoringConfig struct {
	Signals []SignalConfig `yaml:"signals"`
}

// SignalConfig is a single keyword-matching rule with its weight.
type SignalConfig struct {
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// AIConfig selects and configures the optional report summarizer.
type AIConfig struct {
	Provider       string `yaml:"provider"`
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(aiProviderEnv); v != "" {
		c.AI.Provider = v
	}

	if v := os.Getenv(aiAPIKeyEnv); v != "" {
		c.AI.APIKey = v
	}

	if v := os.Getenv(aiModelEnv); v != "" {
		c.AI.Model = v
	}

	if v := os.Getenv(serverPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Host != "" {
		base.Server.Host = override.Server.Host
	}
	if override.Server.Port != 0 {
		base.Server.Port = override.Server.Port
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Plan.Pro {
		base.Plan.Pro = true
	}
	if override.Plan.MaxRSSSources != 0 {
		base.Plan.MaxRSSSources = override.Plan.MaxRSSSources
	}

	if override.Fetcher.IntervalMinutes > 0 {
		base.Fetcher.IntervalMinutes = override.Fetcher.IntervalMinutes
	}
	if override.Fetcher.Concurrency > 0 {
		base.Fetcher.Concurrency = override.Fetcher.Concurrency
	}
	if override.Fetcher.TimeoutSeconds > 0 {
		base.Fetcher.TimeoutSeconds = override.Fetcher.TimeoutSeconds
	}

	if len(override.Scoring.Signals) > 0 {
		base.Scoring.Signals = override.Scoring.Signals
	}

	if override.AI.Provider != "" {
		base.AI.Provider = override.AI.Provider
	}
	if override.AI.Endpoint != "" {
		base.AI.Endpoint = override.AI.Endpoint
	}
	if override.AI.APIKey != "" {
		base.AI.APIKey = override.AI.APIKey
	}
	if override.AI.Model != "" {
		base.AI.Model = override.AI.Model
	}
	if override.AI.TimeoutSeconds > 0 {
		base.AI.TimeoutSeconds = override.AI.TimeoutSeconds
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Path: "./data/radar.db"},
		Plan:     PlanConfig{Pro: false, MaxRSSSources: 2},
		Fetcher: FetcherConfig{
			IntervalMinutes: 60,
			Concurrency:     4,
			TimeoutSeconds:  30,
		},
		AI: AIConfig{
			Provider:       "",
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
