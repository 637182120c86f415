package config

import "testing"

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_LevelNormalized(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Backend(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Backend.Type != "local" {
		t.Errorf("Expected default backend type 'local', got %q", cfg.Backend.Type)
	}

	if cfg.Backend.Local == nil {
		t.Fatal("Expected Local map to be initialized")
	}
	if path, ok := cfg.Backend.Local["path"]; !ok || path != "/tmp/shardfs-data" {
		t.Errorf("Expected default local path '/tmp/shardfs-data', got %v", path)
	}

	if cfg.Backend.Badger == nil {
		t.Fatal("Expected Badger map to be initialized")
	}
	if dbPath, ok := cfg.Backend.Badger["db_path"]; !ok || dbPath != "/tmp/shardfs-badger" {
		t.Errorf("Expected default badger db_path '/tmp/shardfs-badger', got %v", dbPath)
	}

	if cfg.Backend.Memory == nil || cfg.Backend.S3 == nil {
		t.Error("Expected all backend option maps to be initialized")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "ERROR"
	cfg.Logging.Format = "json"
	cfg.Backend.Type = "memory"
	cfg.Backend.Local = map[string]any{"path": "/data/custom"}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected explicit level preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Backend.Type != "memory" {
		t.Errorf("Expected explicit backend type preserved, got %q", cfg.Backend.Type)
	}
	if cfg.Backend.Local["path"] != "/data/custom" {
		t.Errorf("Expected explicit local path preserved, got %v", cfg.Backend.Local["path"])
	}
}

func TestApplyDefaults_ShardLeftToPointers(t *testing.T) {
	// Shard defaults are resolved by ShardParameters, not ApplyDefaults,
	// so unset stays unset here.
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Shard.DirFanout != nil || cfg.Shard.FileFanout != nil {
		t.Error("Expected shard pointer fields untouched by ApplyDefaults")
	}
}
