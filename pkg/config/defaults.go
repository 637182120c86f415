package config

import "strings"

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Shard parameters use pointer fields, so an explicit zero survives
//     and only genuinely unset fields fall back to the defaults (applied
//     in ShardConfig.ShardParameters)
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyBackendDefaults(&cfg.Backend)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyBackendDefaults sets backend defaults.
func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Type == "" {
		cfg.Type = "local"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Local == nil {
		cfg.Local = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	if _, ok := cfg.Local["path"]; !ok {
		cfg.Local["path"] = "/tmp/shardfs-data"
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/tmp/shardfs-badger"
	}
}
