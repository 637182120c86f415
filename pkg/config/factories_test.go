package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/marmos91/shardfs/pkg/storage/badger"
	"github.com/marmos91/shardfs/pkg/storage/local"
	"github.com/marmos91/shardfs/pkg/storage/memory"
)

func TestCreateBackend_Memory(t *testing.T) {
	backend, err := CreateBackend(context.Background(), &BackendConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*memory.Backend); !ok {
		t.Errorf("Expected *memory.Backend, got %T", backend)
	}
}

func TestCreateBackend_Local(t *testing.T) {
	backend, err := CreateBackend(context.Background(), &BackendConfig{
		Type:  "local",
		Local: map[string]any{"path": t.TempDir()},
	})
	if err != nil {
		t.Fatalf("Failed to create local backend: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*local.Backend); !ok {
		t.Errorf("Expected *local.Backend, got %T", backend)
	}
}

func TestCreateBackend_LocalMissingPath(t *testing.T) {
	_, err := CreateBackend(context.Background(), &BackendConfig{
		Type:  "local",
		Local: map[string]any{},
	})
	if err == nil {
		t.Fatal("Expected error for missing local path, got nil")
	}
}

func TestCreateBackend_Badger(t *testing.T) {
	backend, err := CreateBackend(context.Background(), &BackendConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "db")},
	})
	if err != nil {
		t.Fatalf("Failed to create badger backend: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*badger.Backend); !ok {
		t.Errorf("Expected *badger.Backend, got %T", backend)
	}
}

func TestCreateBackend_BadgerInMemory(t *testing.T) {
	backend, err := CreateBackend(context.Background(), &BackendConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true},
	})
	if err != nil {
		t.Fatalf("Failed to create in-memory badger backend: %v", err)
	}
	defer backend.Close()
}

func TestCreateBackend_S3MissingBucket(t *testing.T) {
	_, err := CreateBackend(context.Background(), &BackendConfig{
		Type: "s3",
		S3:   map[string]any{"region": "us-east-1"},
	})
	if err == nil {
		t.Fatal("Expected error for missing S3 bucket, got nil")
	}
}

func TestCreateBackend_UnknownType(t *testing.T) {
	_, err := CreateBackend(context.Background(), &BackendConfig{Type: "punchcard"})
	if err == nil {
		t.Fatal("Expected error for unknown backend type, got nil")
	}
}

func TestCreateShardedBackend(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Backend.Type = "memory"

	sharded, err := CreateShardedBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create sharded backend: %v", err)
	}
	defer sharded.Close()

	params := sharded.Config()
	if params.DirFanout != 1 || params.FileFanout != 3 {
		t.Errorf("Expected default shard parameters, got %+v", params)
	}
}

func TestCreateShardedBackend_InvalidShardConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Backend.Type = "memory"
	cfg.Shard.DirFanout = intPtr(-5)

	if _, err := CreateShardedBackend(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for invalid shard parameters, got nil")
	}
}
