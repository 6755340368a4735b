package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"planhub/internal/confstore"
)

const (
	DefaultAPIBaseURL     = "https://api.installs.example.com"
	DefaultConsoleBaseURL = "https://console.installs.example.com"
	DefaultLogFileName    = "planhub.log"

	configFileName = "config.json"
	configDirName  = "planhub"
)

// Config holds the CLI's persisted settings. The token is stored with
// the config file at mode 0600; there is no keyring integration.
type Config struct {
	APIBaseURL     string `json:"api_base_url,omitempty"`
	ConsoleBaseURL string `json:"console_base_url,omitempty"`
	Token          string `json:"token,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
}

func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		base = "."
	}
	return filepath.Join(base, configDirName, configFileName)
}

func defaults() Config {
	return Config{
		APIBaseURL:     DefaultAPIBaseURL,
		ConsoleBaseURL: DefaultConsoleBaseURL,
		LogFile:        filepath.Join(filepath.Dir(DefaultPath()), DefaultLogFileName),
	}
}

func normalize(raw Config) Config {
	norm := raw
	norm.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(norm.APIBaseURL), "/")
	norm.ConsoleBaseURL = strings.TrimSuffix(strings.TrimSpace(norm.ConsoleBaseURL), "/")
	norm.Token = strings.TrimSpace(norm.Token)
	norm.LogFile = strings.TrimSpace(norm.LogFile)
	def := defaults()
	if norm.APIBaseURL == "" {
		norm.APIBaseURL = def.APIBaseURL
	}
	if norm.ConsoleBaseURL == "" {
		norm.ConsoleBaseURL = def.ConsoleBaseURL
	}
	if norm.LogFile == "" {
		norm.LogFile = def.LogFile
	}
	return norm
}

// Load reads the config at path, falling back to defaults when the file
// does not exist yet. An empty path means the default location.
func Load(path string) (Config, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = DefaultPath()
	}
	var cfg Config
	err := confstore.ReadJSON(p, &cfg)
	if err == nil {
		return normalize(cfg), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return defaults(), nil
	}
	return Config{}, err
}

// Save writes the config under the config directory lock so concurrent
// invocations cannot interleave writes.
func Save(path string, cfg Config) error {
	p := strings.TrimSpace(path)
	if p == "" {
		p = DefaultPath()
	}
	lock, err := confstore.AcquireLock(filepath.Dir(p))
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()
	return confstore.WriteJSON(p, normalize(cfg))
}

// Set applies one "key=value" assignment. Known keys mirror the JSON
// field names.
func Set(cfg Config, key, value string) (Config, error) {
	switch strings.TrimSpace(strings.ToLower(key)) {
	case "api_base_url":
		cfg.APIBaseURL = value
	case "console_base_url":
		cfg.ConsoleBaseURL = value
	case "token":
		cfg.Token = value
	case "log_file":
		cfg.LogFile = value
	default:
		return Config{}, fmt.Errorf("unknown config key %q (use api_base_url, console_base_url, token, or log_file)", key)
	}
	return normalize(cfg), nil
}

// Redacted returns a copy safe for printing.
func Redacted(cfg Config) Config {
	out := cfg
	if out.Token != "" {
		out.Token = "(set)"
	}
	return out
}
