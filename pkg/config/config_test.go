package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfigFile(t, `
logging:
  level: "INFO"

backend:
  type: "memory"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Backend.Type != "memory" {
		t.Errorf("Expected backend type 'memory', got %q", cfg.Backend.Type)
	}

	params := cfg.Shard.ShardParameters()
	if params.DirFanout != 1 || params.FileFanout != 3 {
		t.Errorf("Expected default shard fanouts 1/3, got %d/%d", params.DirFanout, params.FileFanout)
	}
	if params.DirPrefixLen != 3 || params.FilePrefixLen != 2 {
		t.Errorf("Expected default prefix lengths 3/2, got %d/%d", params.DirPrefixLen, params.FilePrefixLen)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// A non-existent explicit path falls back to pure defaults.
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Backend.Type != "local" {
		t.Errorf("Expected default backend type 'local', got %q", cfg.Backend.Type)
	}
	if path := cfg.Backend.Local["path"]; path != "/tmp/shardfs-data" {
		t.Errorf("Expected default local path '/tmp/shardfs-data', got %v", path)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfigFile(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_LogFormat(t *testing.T) {
	configPath := writeConfigFile(t, `
logging:
  level: "INFO"
  format: "json"
backend:
  type: "memory"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
}

func TestLoad_InvalidLevel(t *testing.T) {
	configPath := writeConfigFile(t, `
logging:
  level: "LOUD"
backend:
  type: "memory"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected validation error for bad log level, got nil")
	}
	if !strings.Contains(err.Error(), "validation") {
		t.Errorf("Expected a validation error, got: %v", err)
	}
}

func TestLoad_InvalidBackendType(t *testing.T) {
	configPath := writeConfigFile(t, `
backend:
  type: "floppy"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown backend type, got nil")
	}
}

func TestLoad_ShardParameters(t *testing.T) {
	configPath := writeConfigFile(t, `
backend:
  type: "memory"

shard:
  dir_fanout: 2
  file_fanout: 1
  dir_prefix_len: 4
  file_prefix_len: 5
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	params := cfg.Shard.ShardParameters()
	if params.DirFanout != 2 || params.FileFanout != 1 {
		t.Errorf("Expected fanouts 2/1, got %d/%d", params.DirFanout, params.FileFanout)
	}
	if params.DirPrefixLen != 4 || params.FilePrefixLen != 5 {
		t.Errorf("Expected prefix lengths 4/5, got %d/%d", params.DirPrefixLen, params.FilePrefixLen)
	}
}

func TestLoad_ShardExplicitZero(t *testing.T) {
	// Zero fanout disables sharding for that role; an explicit zero must
	// not be clobbered by the default.
	configPath := writeConfigFile(t, `
backend:
  type: "memory"

shard:
  dir_fanout: 0
  file_fanout: 0
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	params := cfg.Shard.ShardParameters()
	if params.DirFanout != 0 || params.FileFanout != 0 {
		t.Errorf("Expected explicit zero fanouts to survive, got %d/%d", params.DirFanout, params.FileFanout)
	}
	// Unset fields still fall back.
	if params.DirPrefixLen != 3 || params.FilePrefixLen != 2 {
		t.Errorf("Expected default prefix lengths 3/2, got %d/%d", params.DirPrefixLen, params.FilePrefixLen)
	}
}

func TestLoad_ShardOutOfBounds(t *testing.T) {
	configPath := writeConfigFile(t, `
backend:
  type: "memory"

shard:
  dir_fanout: 10
  dir_prefix_len: 10
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for out-of-bounds shard parameters, got nil")
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	configPath := writeConfigFile(t, `
logging:
  level: "INFO"
backend:
  type: "memory"
`)

	t.Setenv("SHARDFS_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override to win, got level %q", cfg.Logging.Level)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	expected := filepath.Join("/custom/config", "shardfs", "config.yaml")
	if got := GetDefaultConfigPath(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
