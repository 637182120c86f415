package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/marmos91/shardfs/pkg/shard"
)

// Config represents the complete shardfs configuration.
//
// This structure captures all configurable aspects of a sharded storage
// stack:
//   - Logging configuration
//   - Backend selection and backend-specific configuration
//   - The four sharding parameters
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SHARDFS_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Backend Configuration Pattern:
// Each backend defines its own configuration shape. The Config struct
// contains one section per backend type and only the section matching the
// selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Backend specifies the storage backend type and type-specific
	// configuration
	Backend BackendConfig `mapstructure:"backend"`

	// Shard holds the path-sharding parameters
	Shard ShardConfig `mapstructure:"shard"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// BackendConfig specifies storage backend configuration.
//
// The Type field determines which backend implementation is used.
// Only the corresponding type-specific configuration section is used.
type BackendConfig struct {
	// Type specifies which backend implementation to use
	// Valid values: memory, local, s3, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory local s3 badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Local contains local-filesystem-specific configuration
	// Only used when Type = "local"
	Local map[string]any `mapstructure:"local"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ShardConfig holds the four sharding parameters.
//
// Pointers distinguish "unset, use the default" from an explicit zero,
// since zero fanout (no sharding for that role) is a valid setting.
type ShardConfig struct {
	// DirFanout is the number of shard-bucket levels for directory-role
	// segments. Default: 1.
	DirFanout *int `mapstructure:"dir_fanout" validate:"omitempty,gte=0"`

	// FileFanout is the number of shard-bucket levels for file-role
	// segments. Default: 3.
	FileFanout *int `mapstructure:"file_fanout" validate:"omitempty,gte=0"`

	// DirPrefixLen is the digest characters per bucket level for
	// directory-role segments. Default: 3.
	DirPrefixLen *int `mapstructure:"dir_prefix_len" validate:"omitempty,gte=0"`

	// FilePrefixLen is the digest characters per bucket level for
	// file-role segments. Default: 2.
	FilePrefixLen *int `mapstructure:"file_prefix_len" validate:"omitempty,gte=0"`
}

// ShardParameters converts the configuration section into the sharding
// package's Config, filling unset fields from the defaults.
func (c ShardConfig) ShardParameters() shard.Config {
	params := shard.DefaultConfig()
	if c.DirFanout != nil {
		params.DirFanout = *c.DirFanout
	}
	if c.FileFanout != nil {
		params.FileFanout = *c.FileFanout
	}
	if c.DirPrefixLen != nil {
		params.DirPrefixLen = *c.DirPrefixLen
	}
	if c.FilePrefixLen != nil {
		params.FilePrefixLen = *c.FilePrefixLen
	}
	return params
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SHARDFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the SHARDFS_ prefix and underscores
	// Example: SHARDFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SHARDFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shardfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "shardfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
