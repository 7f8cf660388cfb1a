package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Plan.MaxRSSSources != 2 || cfg.Plan.Pro {
		t.Fatalf("unexpected default plan: %+v", cfg.Plan)
	}
	if cfg.Fetcher.IntervalMinutes != 60 || cfg.Fetcher.Concurrency != 4 {
		t.Fatalf("unexpected default fetcher config: %+v", cfg.Fetcher)
	}
	if cfg.AI.Provider != "" || cfg.AI.TimeoutSeconds != 60 {
		t.Fatalf("unexpected default ai config: %+v", cfg.AI)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected default log level: %s", cfg.Logging.Level)
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  port: 9090
plan:
  pro: true
fetcher:
  intervalMinutes: 15
ai:
  provider: openai
  model: gpt-4o
scoring:
  signals:
    - name: custom
      weight: 50
      keywords: ["keyword"]
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	// Untouched values keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("expected default host kept, got %s", cfg.Server.Host)
	}
	if !cfg.Plan.Pro || cfg.Plan.MaxRSSSources != 2 {
		t.Fatalf("unexpected merged plan: %+v", cfg.Plan)
	}
	if cfg.Fetcher.IntervalMinutes != 15 || cfg.Fetcher.Concurrency != 4 {
		t.Fatalf("unexpected merged fetcher config: %+v", cfg.Fetcher)
	}
	if cfg.AI.Provider != "openai" || cfg.AI.Model != "gpt-4o" {
		t.Fatalf("unexpected merged ai config: %+v", cfg.AI)
	}
	if len(cfg.Scoring.Signals) != 1 || cfg.Scoring.Signals[0].Name != "custom" {
		t.Fatalf("unexpected merged signals: %+v", cfg.Scoring.Signals)
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\nai:\n  provider: ollama\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(serverPortEnv, "7070")
	t.Setenv(aiProviderEnv, "anthropic")
	t.Setenv(aiAPIKeyEnv, "secret")
	t.Setenv(databaseEnv, "/tmp/other.db")

	cfg := Load()

	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port to win, got %d", cfg.Server.Port)
	}
	if cfg.AI.Provider != "anthropic" || cfg.AI.APIKey != "secret" {
		t.Fatalf("expected env ai overrides, got %+v", cfg.AI)
	}
	if cfg.Database.Path != "/tmp/other.db" {
		t.Fatalf("expected env database path, got %s", cfg.Database.Path)
	}
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected defaults on broken file, got %d", cfg.Server.Port)
	}
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9999}
	if s.Address() != "127.0.0.1:9999" {
		t.Fatalf("unexpected address %s", s.Address())
	}
}
