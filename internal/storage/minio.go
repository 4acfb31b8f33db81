package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"ColdVault/config"
	"ColdVault/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioProvider is the fast standard-tier backend. Objects are readable
// immediately after upload; retrieval jobs do not apply here.
type MinioProvider struct {
	name   string
	client *minio.Client
	bucket string
}

// NewMinioProvider builds a provider from a MinIO client and bucket.
func NewMinioProvider(name string, client *minio.Client, bucket string) *MinioProvider {
	return &MinioProvider{name: name, client: client, bucket: bucket}
}

func (p *MinioProvider) Name() string {
	return p.name
}

func (p *MinioProvider) Capabilities() Capabilities {
	return Capabilities{
		InstantAccess: true,
		Retrieval:     false,
		Deletion:      true,
	}
}

// Upload writes an object and returns its location.
func (p *MinioProvider) Upload(ctx context.Context, path string, reader io.Reader, size int64, opts PutOptions) (model.StorageLocation, error) {
	_, err := p.client.PutObject(ctx, p.bucket, path, reader, size, minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return model.StorageLocation{}, err
	}
	return model.NewStorageLocation(p.name, path)
}

// Download fetches an object. Stat runs eagerly so a missing object
// fails here instead of on the first read.
func (p *MinioProvider) Download(ctx context.Context, loc model.StorageLocation) (io.ReadCloser, error) {
	obj, err := p.client.GetObject(ctx, p.bucket, loc.Path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

// Delete removes an object.
func (p *MinioProvider) Delete(ctx context.Context, loc model.StorageLocation) error {
	return p.client.RemoveObject(ctx, p.bucket, loc.Path, minio.RemoveObjectOptions{})
}

// InitiateRetrieval always fails: every object here is instantly readable.
func (p *MinioProvider) InitiateRetrieval(ctx context.Context, loc model.StorageLocation, tier RetrievalTier) (string, time.Time, error) {
	return "", time.Time{}, fmt.Errorf("provider %s does not support retrieval", p.name)
}

// GetRetrievalStatus never recognizes a token.
func (p *MinioProvider) GetRetrievalStatus(ctx context.Context, retrievalID string) (RetrievalStatus, error) {
	return RetrievalStatus{}, ErrUnknownRetrievalID
}

// HealthCheck probes the bucket and reports round-trip latency.
func (p *MinioProvider) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	exists, err := p.client.BucketExists(ctx, p.bucket)
	latency := time.Since(start)
	if err != nil {
		return Health{Healthy: false, Latency: latency, Message: err.Error()}
	}
	if !exists {
		return Health{Healthy: false, Latency: latency, Message: fmt.Sprintf("bucket %s missing", p.bucket)}
	}
	return Health{Healthy: true, Latency: latency, Message: "ok"}
}

// Compose merges staged objects into a single destination object
// server-side, without streaming the bytes through this process.
func (p *MinioProvider) Compose(ctx context.Context, destPath string, srcPaths []string) (model.StorageLocation, error) {
	srcs := make([]minio.CopySrcOptions, 0, len(srcPaths))
	for _, src := range srcPaths {
		srcs = append(srcs, minio.CopySrcOptions{
			Bucket: p.bucket,
			Object: src,
		})
	}
	dst := minio.CopyDestOptions{
		Bucket: p.bucket,
		Object: destPath,
	}
	if _, err := p.client.ComposeObject(ctx, dst, srcs...); err != nil {
		return model.StorageLocation{}, err
	}
	return model.NewStorageLocation(p.name, destPath)
}

// PresignedGet returns a presigned URL with optional response headers.
func (p *MinioProvider) PresignedGet(ctx context.Context, loc model.StorageLocation, expiry time.Duration, params map[string]string) (string, error) {
	values := url.Values{}
	for key, value := range params {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	u, err := p.client.PresignedGetObject(ctx, p.bucket, loc.Path, expiry, values)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// InitMinioProvider builds the MinIO client from one provider config entry
// and ensures the bucket exists.
func InitMinioProvider(cfg config.ProviderConfig) *MinioProvider {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Username, cfg.Password, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalln("minio error:", err)
	}
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.Fatalln("check bucket fail:", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			log.Fatalln("create bucket fail:", err)
		}
	}
	return NewMinioProvider(cfg.Name, client, cfg.Bucket)
}
