package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "crate"
	envPrefix = "CRATE"
)

// Config holds all application configuration
type Config struct {
	Discogs  DiscogsConfig  `mapstructure:"discogs"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Notes    NotesConfig    `mapstructure:"notes"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Launcher LauncherConfig `mapstructure:"launcher"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DiscogsConfig holds API access settings
type DiscogsConfig struct {
	Username     string `mapstructure:"username"`
	Token        string `mapstructure:"token"` // optional personal access token
	BaseURL      string `mapstructure:"base_url" validate:"required,url"`
	UserAgent    string `mapstructure:"user_agent" validate:"required"`
	ItemsPerPage int    `mapstructure:"items_per_page" validate:"oneof=25 50 75 100"`
}

// SyncConfig holds pacing and retry settings
type SyncConfig struct {
	PageDelay      time.Duration `mapstructure:"page_delay"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// NotesConfig holds where annotations live in the host document store
type NotesConfig struct {
	Folder string `mapstructure:"folder"`
	Vault  string `mapstructure:"vault"` // root directory notes are relative to; needed by "open --note"
}

// LauncherConfig holds the external opener for release pages and notes
type LauncherConfig struct {
	Command string   `mapstructure:"command"` // empty for system default
	Args    []string `mapstructure:"args"`
}

// StorageConfig holds the local cache location
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN WARNING ERROR debug info warn warning error"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Discogs: DiscogsConfig{
			BaseURL:      "https://api.discogs.com",
			UserAgent:    "CrateSync/1.0",
			ItemsPerPage: 50,
		},
		Sync: SyncConfig{
			PageDelay:      2500 * time.Millisecond,
			RetryBaseDelay: 2 * time.Second,
			MaxRetries:     3,
			RequestTimeout: 30 * time.Second,
		},
		Notes: NotesConfig{
			Folder: "Discogs/Albums",
		},
		Storage: StorageConfig{
			Path: defaultCachePath(),
		},
		Launcher: LauncherConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// defaultLogPath returns the default log file path (XDG state dir)
func defaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// defaultConfigPath returns the default config directory (XDG config dir)
func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// defaultCachePath returns the default cache directory (XDG data dir)
func defaultCachePath() string {
	return filepath.Join(xdg.DataHome, appName, "cache")
}

// Loader reads configuration from a config file, a .env file and the
// environment. The zero value is not usable; see NewLoader.
type Loader struct {
	v         *viper.Viper
	configDir string
}

// NewLoader creates a Loader that searches configDir and the working
// directory. An empty configDir selects the OS default.
func NewLoader(configDir string) *Loader {
	if configDir == "" {
		configDir = defaultConfigPath()
	}
	return &Loader{v: viper.New(), configDir: configDir}
}

// LoadConfig loads configuration using the default locations
func LoadConfig() (*Config, error) {
	return NewLoader("").Load()
}

// Load reads and validates the configuration
func (l *Loader) Load() (*Config, error) {
	// A missing .env file is fine; variables may come from the real environment.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(l.configDir)
	v.AddConfigPath(".")

	// Environment variable overrides: CRATE_DISCOGS_USERNAME, ...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// registerDefaults makes every key known to viper so AutomaticEnv can
// override keys absent from the config file.
func registerDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range settings(cfg) {
		v.SetDefault(key, value)
	}
}

// settings flattens cfg into viper keys (snake_case)
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"discogs.username":       cfg.Discogs.Username,
		"discogs.token":          cfg.Discogs.Token,
		"discogs.base_url":       cfg.Discogs.BaseURL,
		"discogs.user_agent":     cfg.Discogs.UserAgent,
		"discogs.items_per_page": cfg.Discogs.ItemsPerPage,
		"sync.page_delay":        cfg.Sync.PageDelay.String(),
		"sync.retry_base_delay":  cfg.Sync.RetryBaseDelay.String(),
		"sync.max_retries":       cfg.Sync.MaxRetries,
		"sync.request_timeout":   cfg.Sync.RequestTimeout.String(),
		"notes.folder":           cfg.Notes.Folder,
		"notes.vault":            cfg.Notes.Vault,
		"launcher.command":       cfg.Launcher.Command,
		"launcher.args":          cfg.Launcher.Args,
		"storage.path":           cfg.Storage.Path,
		"logging.file":           cfg.Logging.File,
		"logging.level":          cfg.Logging.Level,
		"logging.max_size_mb":    cfg.Logging.MaxSizeMB,
		"logging.max_backups":    cfg.Logging.MaxBackups,
		"logging.max_age_days":   cfg.Logging.MaxAgeDays,
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Sync.PageDelay < 0 || c.Sync.RetryBaseDelay < 0 || c.Sync.RequestTimeout < 0 {
		return fmt.Errorf("invalid config: sync durations must not be negative")
	}
	return nil
}

// IsConfigured returns true if a Discogs username is set
func (c *Config) IsConfigured() bool {
	return strings.TrimSpace(c.Discogs.Username) != ""
}

// Save writes cfg to config.yaml in the loader's config directory
func (l *Loader) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	for key, value := range settings(cfg) {
		l.v.Set(key, value)
	}

	configFile := filepath.Join(l.configDir, "config.yaml")
	if err := l.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig saves cfg to the default config location
func SaveConfig(cfg *Config) error {
	return NewLoader("").Save(cfg)
}
