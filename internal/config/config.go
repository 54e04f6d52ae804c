package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feeds   []Feed  `yaml:"feeds"`
	Alerts  Alerts  `yaml:"alerts"`
	Enrich  Enrich  `yaml:"enrich"`
	Chat    Chat    `yaml:"chat"`
	Advisor Advisor `yaml:"advisor"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Feed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Alerts tunes alert admission. The freshness window and display cap
// are fixed in internal/alert and deliberately not configurable.
type Alerts struct {
	MinRelevance float64 `yaml:"min_relevance"`
}

type Enrich struct {
	Enabled        bool `yaml:"enabled"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	MaxArticles    int  `yaml:"max_articles"`
}

type Chat struct {
	BackendURL     string `yaml:"backend_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	HistoryTurns   int    `yaml:"history_turns"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 disables the overall stream timeout
}

type Advisor struct {
	Enabled    bool   `yaml:"enabled"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKeyEnv  string `yaml:"api_key_env"`
	MaxTokens  int    `yaml:"max_tokens"`
	MaxRetries int    `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for finwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "finwatch")
}

// DataDir returns the XDG data directory for finwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "finwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/finwatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'finwatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Alerts: Alerts{
			MinRelevance: 0.2,
		},
		Enrich: Enrich{
			TimeoutSeconds: 15,
			MaxArticles:    10,
		},
		Chat: Chat{
			HistoryTurns: 6,
		},
		Advisor: Advisor{
			BaseURL:    "https://api.openai.com/v1",
			Model:      "gpt-4o-mini",
			APIKeyEnv:  "OPENAI_API_KEY",
			MaxTokens:  512,
			MaxRetries: 2,
			RetryDelay: "1s",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// RetryDelayDuration returns the advisor retry delay, falling back to 1s
// on a missing or malformed value.
func (a Advisor) RetryDelayDuration() time.Duration {
	d, err := time.ParseDuration(a.RetryDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
