package config

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitConfig_Success(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	for _, section := range []string{
		"# shardfs Configuration File",
		"logging:",
		"backend:",
		"shard:",
	} {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	// The generated file must be valid YAML.
	var parsed map[string]any
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
	if _, ok := parsed["shard"]; !ok {
		t.Error("Parsed config missing shard section")
	}
}

func TestInitConfig_RefusesOverwrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	if _, err := InitConfig(false); err == nil {
		t.Fatal("Expected error when config file already exists, got nil")
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("InitConfig with force should overwrite, got: %v", err)
	}
}

func TestInitConfig_GeneratedConfigLoads(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Generated config should load cleanly: %v", err)
	}

	// The template mirrors the defaults.
	if cfg.Backend.Type != "local" {
		t.Errorf("Expected backend type 'local', got %q", cfg.Backend.Type)
	}
	params := cfg.Shard.ShardParameters()
	if params.DirFanout != 1 || params.FileFanout != 3 || params.DirPrefixLen != 3 || params.FilePrefixLen != 2 {
		t.Errorf("Expected default shard parameters in template, got %+v", params)
	}
}
