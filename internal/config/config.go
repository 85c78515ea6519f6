package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvConfigPath = "FUELLOG_CONFIG"
	EnvLogLevel   = "FUELLOG_LOG_LEVEL"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Export/import settings
	Backup BackupConfig `yaml:"backup"`

	Log   LogConfig   `yaml:"log"`
	Stats StatsConfig `yaml:"stats"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to the encrypted SQLite database
}

type BackupConfig struct {
	Dir            string `yaml:"dir"`             // Where exports go when no path is given
	FilenamePrefix string `yaml:"filename_prefix"` // e.g. "fuellog_backup" -> fuellog_backup_20260101_120000.json
}

type LogConfig struct {
	Level  string `yaml:"level"`  // logrus level name
	Format string `yaml:"format"` // text or json
}

type StatsConfig struct {
	RecentLimit int `yaml:"recent_limit"` // Rows shown by `fuellog stats`
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "fuellog")
}

// DefaultConfigPath returns $FUELLOG_CONFIG or ~/.config/fuellog/config.yaml
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := configDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "fuellog.db"),
		},
		Backup: BackupConfig{
			Dir:            filepath.Join(dir, "backups"),
			FilenamePrefix: "fuellog_backup",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Stats: StatsConfig{
			RecentLimit: 10,
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// LoadEnv reads a .env file next to the config file into the process
// environment. Variables that are already set are left alone and a missing
// file is not an error.
func LoadEnv(configPath string) error {
	envFile := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates the database and backup directories
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(filepath.Dir(c.Database.Path), 0700); err != nil {
		return err
	}

	if err := os.MkdirAll(c.Backup.Dir, 0700); err != nil {
		return err
	}

	return nil
}
