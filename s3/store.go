// Package s3 provides an S3-compatible blob store for soundmap backed by
// the MinIO client. Any service speaking the S3 API (AWS S3, MinIO, R2,
// Spaces) can be used.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/soundmap"
)

// Config holds the connection settings for an S3-compatible endpoint.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PublicURL, when set, replaces <scheme>://<endpoint>/<bucket> as the
	// prefix of returned blob URLs (for a CDN or a public bucket domain).
	PublicURL string `mapstructure:"public_url"`
}

// Store provides S3 blob storage operations.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewClient builds a MinIO client from cfg.
func NewClient(cfg Config) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("new s3 client: endpoint cannot be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new s3 client: %w", err)
	}

	return client, nil
}

// NewStore creates a Store writing to bucket through client.
func NewStore(client *minio.Client, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket cannot be empty")
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		endpoint := client.EndpointURL()
		base = (&url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host, Path: "/" + cfg.Bucket}).String()
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: base,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("ensure bucket %s: %w: %w", s.bucket, soundmap.ErrStoreUnavailable, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("ensure bucket %s: %w: %w", s.bucket, soundmap.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("ping bucket %s: %w: %w", s.bucket, soundmap.ErrStoreUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("ping bucket %s: %w", s.bucket, soundmap.ErrNotFound)
	}
	return nil
}

// Put uploads content under name and returns the blob's URL.
func (s *Store) Put(ctx context.Context, name string, content io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("put blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, err)
	}

	if !soundmap.IsValidBlobName(name) {
		return "", fmt.Errorf("put blob %q: %w", name, soundmap.ErrInvalidInput)
	}

	if contentType == "" {
		contentType = soundmap.ContentTypeFor(name)
	}

	_, err := s.client.PutObject(ctx, s.bucket, name, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, err)
	}

	return s.URL(name), nil
}

// URL returns the public URL of a blob.
func (s *Store) URL(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

// Delete removes a blob. A missing blob is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, err)
	}

	err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns the names of all objects in the bucket.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list blobs: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	names := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list blobs: %w: %w", soundmap.ErrStoreUnavailable, obj.Err)
		}
		names = append(names, obj.Key)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list blobs: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return names, nil
}
