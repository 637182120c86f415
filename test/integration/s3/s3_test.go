//go:build integration

package s3_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/shardfs/pkg/shard"
	"github.com/marmos91/shardfs/pkg/storage"
	s3backend "github.com/marmos91/shardfs/pkg/storage/s3"
	storagetesting "github.com/marmos91/shardfs/pkg/storage/testing"
)

// These tests need an S3-compatible endpoint (Localstack or MinIO):
//
//	docker run -p 4566:4566 localstack/localstack
//	go test -tags integration ./test/integration/s3/
//
// Override the endpoint with LOCALSTACK_ENDPOINT.

// setupTestS3 creates an S3 client and test bucket for integration
// tests, returning a cleanup function that empties and deletes the
// bucket.
func setupTestS3(t *testing.T, bucketName string) (*s3.Client, func()) {
	t.Helper()
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		//nolint:staticcheck
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test",
			"test",
			"",
		)),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Path-style addressing is required for Localstack.
		o.UsePathStyle = true
	})

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}); err != nil {
		t.Fatalf("Failed to create test bucket: %v", err)
	}

	cleanup := func() {
		paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucketName),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				t.Logf("Cleanup: failed to list bucket: %v", err)
				return
			}
			for _, obj := range page.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(bucketName),
					Key:    obj.Key,
				})
			}
		}
		if _, err := client.DeleteBucket(ctx, &s3.DeleteBucketInput{
			Bucket: aws.String(bucketName),
		}); err != nil {
			t.Logf("Cleanup: failed to delete bucket: %v", err)
		}
	}

	return client, cleanup
}

// newTestBackend provisions a fresh bucket and returns a backend on it.
func newTestBackend(t *testing.T) storage.Backend {
	t.Helper()

	bucketName := fmt.Sprintf("shardfs-test-%d", time.Now().UnixNano())
	client, cleanup := setupTestS3(t, bucketName)
	t.Cleanup(cleanup)

	backend, err := s3backend.New(s3backend.Config{
		Client: client,
		Bucket: bucketName,
	})
	if err != nil {
		t.Fatalf("Failed to create S3 backend: %v", err)
	}
	return backend
}

// TestS3Backend runs the complete Backend conformance suite against a
// real S3-compatible endpoint.
func TestS3Backend(t *testing.T) {
	suite := &storagetesting.BackendTestSuite{
		NewBackend: func(t *testing.T) storage.Backend {
			return newTestBackend(t)
		},
	}

	suite.Run(t)
}

// TestS3Sharded runs a sharded tree end to end against S3.
func TestS3Sharded(t *testing.T) {
	backend := newTestBackend(t)

	sharded, err := shard.New(backend, shard.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create sharded backend: %v", err)
	}

	ctx := context.Background()
	if err := sharded.Write(ctx, "reports/2026/q3.pdf", bytes.NewReader([]byte("pdf")), storage.WriteOptions{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := sharded.List(ctx, "reports", true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected directory and file, got %d entries", len(entries))
	}
	if entries[0].Path != "reports/2026" || entries[1].Path != "reports/2026/q3.pdf" {
		t.Errorf("Unexpected listing: %+v", entries)
	}

	data, err := sharded.Read(ctx, "reports/2026/q3.pdf")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "pdf" {
		t.Errorf("Content mismatch: %q", data)
	}
}
