package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Matching MatchingConfig `mapstructure:"matching"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig locates the template database and image directory
type StorageConfig struct {
	DataDir  string `mapstructure:"data_dir"`  // Holds posekit.db
	AssetDir string `mapstructure:"asset_dir"` // Holds <id>_cover.jpg / <id>_original.jpg
}

// MatchingConfig tunes the pose scorer
type MatchingConfig struct {
	Threshold float64 `mapstructure:"threshold"` // Distance at which a point scores zero
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // Empty logs to stderr
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dataDir := defaultDataPath()
	return &Config{
		Storage: StorageConfig{
			DataDir:  dataDir,
			AssetDir: filepath.Join(dataDir, "images"),
		},
		Matching: MatchingConfig{
			Threshold: 0.1,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(dataDir, "posekit.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "posekit")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "posekit")
	}
}

// DefaultConfigDir returns the directory searched for config.yaml
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "posekit")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "posekit")
	}
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("storage.asset_dir", defaults.Storage.AssetDir)
	v.SetDefault("matching.threshold", defaults.Matching.Threshold)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)

	// Environment variable overrides: POSEKIT_STORAGE_DATA_DIR etc.
	v.SetEnvPrefix("POSEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from file and environment.
// An explicit path must exist; otherwise the default locations are searched
// and a missing file means defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
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

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir must be set")
	}
	if c.Storage.AssetDir == "" {
		return errors.New("storage.asset_dir must be set")
	}
	if c.Matching.Threshold <= 0 {
		return fmt.Errorf("matching.threshold must be positive, got %v", c.Matching.Threshold)
	}
	return nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("storage.asset_dir", cfg.Storage.AssetDir)
	v.Set("matching.threshold", cfg.Matching.Threshold)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
