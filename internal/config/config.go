// Package config loads the lightnote YAML configuration.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/sentiment"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	LLM       LLM       `yaml:"llm"`
	Tracking  Tracking  `yaml:"tracking"`
	Sentiment Sentiment `yaml:"sentiment"`
	Output    Output    `yaml:"output"`
	Storage   Storage   `yaml:"storage"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type LLM struct {
	Provider    string        `yaml:"provider"`
	URL         string        `yaml:"url"`
	Model       string        `yaml:"model"`
	Token       string        `yaml:"token"`
	TokenEnv    string        `yaml:"token_env"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

type Tracking struct {
	Entities string `yaml:"entities"`
}

type Sentiment struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// Storage backends for the rollup and theme caches.
const (
	BackendSQLite = "sqlite"
	BackendFiles  = "files"
)

type Storage struct {
	Backend  string `yaml:"backend"`
	CacheDir string `yaml:"cache_dir"`
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

// ConfigDir returns the XDG config directory for lightnote.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "lightnote")
}

// DataDir returns the XDG data directory for lightnote.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "lightnote")
}

// LoadEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/lightnote/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'lightnote init' to create a default config",
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

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(err)
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		LLM: LLM{
			Provider:    "chat",
			TokenEnv:    "LIGHTNOTE_LLM_TOKEN",
			Timeout:     llm.DefaultTimeout,
			Temperature: llm.DefaultTemperature,
			MaxTokens:   512,
		},
		Tracking:  Tracking{Entities: strings.Join(digest.DefaultTrackedEntities, ",")},
		Sentiment: Sentiment{Workers: 4, Timeout: sentiment.DefaultTimeout},
		Storage:   Storage{Backend: BackendSQLite},
		Server:    Server{Port: 8000},
		Logging:   Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Sentiment.Workers < 1 {
		cfg.Sentiment.Workers = 1
	}
	if cfg.Sentiment.Timeout <= 0 {
		cfg.Sentiment.Timeout = sentiment.DefaultTimeout
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = BackendSQLite
	case BackendSQLite, BackendFiles:
	default:
		return nil, fmt.Errorf("parsing config: storage.backend must be %s or %s, got %q",
			BackendSQLite, BackendFiles, cfg.Storage.Backend)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return expandHome(c.Output.DataDir)
	}
	return DataDir()
}

// DBPath returns the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "lightnote.db")
}

// CacheDir returns where the files backend keeps cache blobs.
func (c *Config) CacheDir() string {
	if c.Storage.CacheDir != "" {
		return expandHome(c.Storage.CacheDir)
	}
	return filepath.Join(c.GetDataDir(), "cache")
}

// LLMToken returns the inline token, else the one in the token_env variable.
func (c *Config) LLMToken() string {
	if t := strings.TrimSpace(c.LLM.Token); t != "" {
		return t
	}
	if c.LLM.TokenEnv != "" {
		return strings.TrimSpace(os.Getenv(c.LLM.TokenEnv))
	}
	return ""
}

// ProviderOptions maps the llm section to provider options.
func (c *Config) ProviderOptions() llm.Options {
	return llm.Options{
		Provider: c.LLM.Provider,
		URL:      c.LLM.URL,
		Model:    c.LLM.Model,
		Token:    c.LLMToken(),
		Timeout:  c.LLM.Timeout,
	}
}

// TrackedEntities returns the parsed tracking.entities list.
func (c *Config) TrackedEntities() []string {
	return digest.ParseTracked(c.Tracking.Entities)
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
