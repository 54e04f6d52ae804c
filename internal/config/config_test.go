package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}

	if cfg.Alerts.MinRelevance != 0.2 {
		t.Errorf("expected min_relevance 0.2, got %v", cfg.Alerts.MinRelevance)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
advisor:
  model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Advisor.Model != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", cfg.Advisor.Model)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Advisor.MaxRetries != 2 {
		t.Errorf("expected default max_retries 2, got %d", cfg.Advisor.MaxRetries)
	}
	if cfg.Chat.HistoryTurns != 6 {
		t.Errorf("expected default history_turns 6, got %d", cfg.Chat.HistoryTurns)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestRetryDelayDuration(t *testing.T) {
	a := Advisor{RetryDelay: "2s"}
	if a.RetryDelayDuration() != 2*time.Second {
		t.Errorf("expected 2s, got %v", a.RetryDelayDuration())
	}

	a.RetryDelay = "not-a-duration"
	if a.RetryDelayDuration() != time.Second {
		t.Errorf("expected 1s fallback, got %v", a.RetryDelayDuration())
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
