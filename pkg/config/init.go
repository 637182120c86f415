package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is the annotated configuration written by
// InitConfig. It mirrors the defaults applied by ApplyDefaults so a
// freshly initialized file changes nothing until edited.
const defaultConfigTemplate = `# shardfs Configuration File
#
# Environment variables override file values using the SHARDFS_ prefix,
# e.g. SHARDFS_LOGGING_LEVEL=DEBUG.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Log format: text, json
  format: "text"
  # Log destination: stdout, stderr, or a file path
  output: "stdout"

backend:
  # Storage backend: memory, local, s3, badger
  type: "local"

  local:
    path: "/tmp/shardfs-data"

  # s3:
  #   region: "us-east-1"
  #   bucket: "my-bucket"
  #   key_prefix: ""
  #   # Custom endpoint for MinIO/Localstack:
  #   # endpoint: "http://localhost:9000"
  #   # access_key_id: ""
  #   # secret_access_key: ""

  # badger:
  #   db_path: "/tmp/shardfs-badger"

# Path-sharding parameters. Changing them against an existing tree
# orphans everything written under the old layout.
shard:
  dir_fanout: 1
  file_fanout: 3
  dir_prefix_len: 3
  file_prefix_len: 2
`

// InitConfig writes an annotated default configuration file at the
// default location, creating the configuration directory if needed.
//
// Parameters:
//   - force: Overwrite an existing configuration file
//
// Returns:
//   - string: Path of the written configuration file
//   - error: If the file exists (without force) or cannot be written
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use force to overwrite)", configPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
