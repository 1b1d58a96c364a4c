// Package config loads and saves the FinSight configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all FinSight configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	API        APIConfig        `toml:"api"`
	AI         AIConfig         `toml:"ai"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultMode string `toml:"default_mode,omitempty"`
	PageSize    int    `toml:"page_size"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// AIConfig holds assistant endpoint settings.
type AIConfig struct {
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			PageSize: 10,
		},
		API: APIConfig{
			BaseURL: "http://localhost:4000/api",
		},
		AI: AIConfig{
			Endpoint: "http://localhost:11434/api/generate",
			Model:    "mistral-nemo",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finsight")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finsight")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// TokenPath returns the path of the credential database.
func TokenPath() string {
	return filepath.Join(ConfigDir(), "tokens.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
