package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/shardfs/internal/logger"
	"github.com/marmos91/shardfs/pkg/shard"
	"github.com/marmos91/shardfs/pkg/storage"
	badgerBackend "github.com/marmos91/shardfs/pkg/storage/badger"
	localBackend "github.com/marmos91/shardfs/pkg/storage/local"
	memoryBackend "github.com/marmos91/shardfs/pkg/storage/memory"
	s3Backend "github.com/marmos91/shardfs/pkg/storage/s3"
)

// CreateBackend creates a storage backend based on configuration.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "memory": in-memory storage, ephemeral
//   - "local": local filesystem storage
//   - "s3": Amazon S3 or compatible object storage
//   - "badger": BadgerDB storage, persistent
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Backend configuration
//
// Returns:
//   - storage.Backend: Initialized backend
//   - error: Configuration or initialization error
func CreateBackend(ctx context.Context, cfg *BackendConfig) (storage.Backend, error) {
	logger.Debug("Creating storage backend: type=%s", cfg.Type)

	switch cfg.Type {
	case "memory":
		return memoryBackend.New(), nil
	case "local":
		return createLocalBackend(ctx, cfg.Local)
	case "s3":
		return createS3Backend(ctx, cfg.S3)
	case "badger":
		return createBadgerBackend(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown backend type: %q (supported: memory, local, s3, badger)", cfg.Type)
	}
}

// CreateShardedBackend creates the configured backend and wraps it with
// the path-sharding facade using the configured shard parameters.
func CreateShardedBackend(ctx context.Context, cfg *Config) (*shard.Sharded, error) {
	backend, err := CreateBackend(ctx, &cfg.Backend)
	if err != nil {
		return nil, err
	}

	params := cfg.Shard.ShardParameters()
	sharded, err := shard.New(backend, params)
	if err != nil {
		backend.Close()
		return nil, err
	}

	logger.Debug("Sharding enabled: dir=%d/%d file=%d/%d",
		params.DirFanout, params.DirPrefixLen, params.FileFanout, params.FilePrefixLen)
	return sharded, nil
}

// createLocalBackend creates a local-filesystem backend.
func createLocalBackend(ctx context.Context, options map[string]any) (storage.Backend, error) {
	type LocalBackendConfig struct {
		Path string `mapstructure:"path"`
	}

	var backendCfg LocalBackendConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode local backend config: %w", err)
	}

	if backendCfg.Path == "" {
		return nil, fmt.Errorf("local backend: path is required")
	}

	backend, err := localBackend.New(ctx, backendCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create local backend: %w", err)
	}

	return backend, nil
}

// createBadgerBackend creates a BadgerDB backend.
func createBadgerBackend(ctx context.Context, options map[string]any) (storage.Backend, error) {
	type BadgerBackendConfig struct {
		DBPath   string `mapstructure:"db_path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var backendCfg BadgerBackendConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger backend config: %w", err)
	}

	backend, err := badgerBackend.New(ctx, badgerBackend.Config{
		DBPath:   backendCfg.DBPath,
		InMemory: backendCfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger backend: %w", err)
	}

	return backend, nil
}

// createS3Backend creates an S3 backend.
func createS3Backend(ctx context.Context, options map[string]any) (storage.Backend, error) {
	type S3BackendConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var backendCfg S3BackendConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 backend config: %w", err)
	}

	if backendCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 backend: bucket is required")
	}
	if backendCfg.Region == "" {
		return nil, fmt.Errorf("S3 backend: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(backendCfg.Region))

	// Custom endpoint for MinIO, Localstack, etc.
	if backendCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck
				return aws.Endpoint{
					URL:               backendCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default chain
	if backendCfg.AccessKeyID != "" && backendCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			backendCfg.AccessKeyID,
			backendCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := backendCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client and Backend
	// ========================================================================

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for compatibility with MinIO/Localstack
		if backendCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	backend, err := s3Backend.New(s3Backend.Config{
		Client:    client,
		Bucket:    backendCfg.Bucket,
		KeyPrefix: backendCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 backend: %w", err)
	}

	logger.Info("S3 backend initialized: bucket=%s, region=%s, prefix=%s",
		backendCfg.Bucket, backendCfg.Region, backendCfg.KeyPrefix)

	return backend, nil
}
