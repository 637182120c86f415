package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func intPtr(v int) *int { return &v }

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected a 'oneof' tag failure, got: %v", err)
	}
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log format, got nil")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected a 'oneof' tag failure, got: %v", err)
	}
}

func TestValidate_MissingOutput(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Output = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for missing log output, got nil")
	}
}

func TestValidate_BadBackendType(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.Type = "tape"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown backend type, got nil")
	}
}

func TestValidate_NegativeShardParameter(t *testing.T) {
	cfg := validConfig()
	cfg.Shard.DirFanout = intPtr(-1)

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for negative fanout, got nil")
	}
}

func TestValidate_ShardBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Shard.FileFanout = intPtr(20)
	cfg.Shard.FilePrefixLen = intPtr(2)

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for shard parameters exceeding the digest, got nil")
	}
	if !strings.Contains(err.Error(), "digest") {
		t.Errorf("Expected the digest bound in the message, got: %v", err)
	}
}

func TestValidate_ZeroFanoutIsValid(t *testing.T) {
	cfg := validConfig()
	cfg.Shard.DirFanout = intPtr(0)
	cfg.Shard.FileFanout = intPtr(0)

	if err := Validate(cfg); err != nil {
		t.Fatalf("Zero fanout is a valid flat layout, got: %v", err)
	}
}
