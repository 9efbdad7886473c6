package appenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = 8080
	DefaultPollInterval     = 5 * time.Second
	DefaultMaxMessageLength = 4096
	DefaultConfigPath       = "config/collab.yaml"
)

// Config holds the settings shared by the server binary and the watcher CLI.
type Config struct {
	Port             int
	ServerURL        string
	PollInterval     time.Duration
	MaxMessageLength int
}

// fileConfig is the optional YAML layer. Environment variables override it.
type fileConfig struct {
	Port             int    `yaml:"port"`
	ServerURL        string `yaml:"server_url"`
	PollIntervalMs   int    `yaml:"poll_interval_ms"`
	MaxMessageLength int    `yaml:"max_message_length"`
}

// Load builds the configuration from defaults, then COLLAB_CONFIG_FILE (or config/collab.yaml
// when present), then the environment. A missing default file is not an error; a missing
// explicitly named file is.
func Load() (Config, error) {
	cfg := Config{
		Port:             DefaultPort,
		PollInterval:     DefaultPollInterval,
		MaxMessageLength: DefaultMaxMessageLength,
	}

	path := strings.TrimSpace(os.Getenv("COLLAB_CONFIG_FILE"))
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	fc, err := loadFile(path)
	switch {
	case err == nil:
		fc.apply(&cfg)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.Port > 0 {
		cfg.Port = fc.Port
	}
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.PollIntervalMs > 0 {
		cfg.PollInterval = time.Duration(fc.PollIntervalMs) * time.Millisecond
	}
	if fc.MaxMessageLength > 0 {
		cfg.MaxMessageLength = fc.MaxMessageLength
	}
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		n, err := parsePositive("PORT", v)
		if err != nil {
			return err
		}
		cfg.Port = n
	}
	if v, ok := os.LookupEnv("SERVER_URL"); ok {
		cfg.ServerURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v := strings.TrimSpace(os.Getenv("POLL_INTERVAL_MS")); v != "" {
		n, err := parsePositive("POLL_INTERVAL_MS", v)
		if err != nil {
			return err
		}
		cfg.PollInterval = time.Duration(n) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("MAX_MESSAGE_LENGTH")); v != "" {
		n, err := parsePositive("MAX_MESSAGE_LENGTH", v)
		if err != nil {
			return err
		}
		cfg.MaxMessageLength = n
	}
	return nil
}

func parsePositive(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
