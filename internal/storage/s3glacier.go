package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	appconfig "ColdVault/config"
	"ColdVault/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3GlacierProvider is the deep-archive backend. Objects are written with
// the Glacier storage class and must be restored before a download can
// succeed; an unrestored GetObject surfaces the backend's
// InvalidObjectState error verbatim.
type S3GlacierProvider struct {
	name        string
	client      *s3.Client
	bucket      string
	restoreDays int32
}

// NewS3GlacierProvider builds a provider from an S3 client and bucket.
func NewS3GlacierProvider(name string, client *s3.Client, bucket string) *S3GlacierProvider {
	return &S3GlacierProvider{name: name, client: client, bucket: bucket, restoreDays: 7}
}

func (p *S3GlacierProvider) Name() string {
	return p.name
}

func (p *S3GlacierProvider) Capabilities() Capabilities {
	return Capabilities{
		InstantAccess:  false,
		Retrieval:      true,
		Deletion:       true,
		MinRestoreTime: time.Minute,
		MaxRestoreTime: 48 * time.Hour,
	}
}

// Upload writes an object with the Glacier storage class.
func (p *S3GlacierProvider) Upload(ctx context.Context, path string, reader io.Reader, size int64, opts PutOptions) (model.StorageLocation, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(path),
		Body:          reader,
		ContentLength: aws.Int64(size),
		StorageClass:  types.StorageClassGlacier,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return model.StorageLocation{}, err
	}
	return model.NewStorageLocation(p.name, path)
}

// Download fetches an archived object. Fails with the backend's
// storage-class error when the object has not been restored.
func (p *S3GlacierProvider) Download(ctx context.Context, loc model.StorageLocation) (io.ReadCloser, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Delete removes an archived object.
func (p *S3GlacierProvider) Delete(ctx context.Context, loc model.StorageLocation) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(loc.Path),
	})
	return err
}

func (p *S3GlacierProvider) restoreToken(path string) string {
	return fmt.Sprintf("restore:%s:%s", p.name, path)
}

// InitiateRetrieval starts a restore job at the requested tier and returns
// a token plus a tier-based completion estimate. The token is opaque to
// callers; only this provider can resolve it back to an object key.
func (p *S3GlacierProvider) InitiateRetrieval(ctx context.Context, loc model.StorageLocation, tier RetrievalTier) (string, time.Time, error) {
	glacierTier, estimate, err := mapRetrievalTier(tier)
	if err != nil {
		return "", time.Time{}, err
	}
	_, err = p.client.RestoreObject(ctx, &s3.RestoreObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(loc.Path),
		RestoreRequest: &types.RestoreRequest{
			Days: aws.Int32(p.restoreDays),
			GlacierJobParameters: &types.GlacierJobParameters{
				Tier: glacierTier,
			},
		},
	})
	if err != nil && !isRestoreAlreadyInProgress(err) {
		return "", time.Time{}, err
	}
	return p.restoreToken(loc.Path), time.Now().Add(estimate), nil
}

// GetRetrievalStatus resolves a restore token and reads the object's
// restore header. Tokens minted by other providers are not recognized.
func (p *S3GlacierProvider) GetRetrievalStatus(ctx context.Context, retrievalID string) (RetrievalStatus, error) {
	prefix := "restore:" + p.name + ":"
	if !strings.HasPrefix(retrievalID, prefix) {
		return RetrievalStatus{}, ErrUnknownRetrievalID
	}
	key := strings.TrimPrefix(retrievalID, prefix)
	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return RetrievalStatus{State: RetrievalFailed, Message: err.Error()}, nil
	}
	return parseRestoreHeader(out.Restore), nil
}

// HealthCheck probes the archive bucket and reports latency.
func (p *S3GlacierProvider) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	latency := time.Since(start)
	if err != nil {
		return Health{Healthy: false, Latency: latency, Message: err.Error()}
	}
	return Health{Healthy: true, Latency: latency, Message: "ok"}
}

func mapRetrievalTier(tier RetrievalTier) (types.Tier, time.Duration, error) {
	switch tier {
	case TierBulk:
		return types.TierBulk, 12 * time.Hour, nil
	case TierStandard, "":
		return types.TierStandard, 5 * time.Hour, nil
	case TierExpedited:
		return types.TierExpedited, 5 * time.Minute, nil
	default:
		return "", 0, fmt.Errorf("unknown retrieval tier %q", tier)
	}
}

func isRestoreAlreadyInProgress(err error) bool {
	return err != nil && strings.Contains(err.Error(), "RestoreAlreadyInProgress")
}

// parseRestoreHeader maps the x-amz-restore header to a job status.
// `ongoing-request="true"` means the restore is running; once finished the
// header carries an expiry date after which the restored copy disappears.
// A missing header right after initiation means the job is still queued.
func parseRestoreHeader(restore *string) RetrievalStatus {
	if restore == nil || *restore == "" {
		return RetrievalStatus{State: RetrievalRequested, Progress: 0, Message: "restore queued"}
	}
	header := *restore
	if strings.Contains(header, `ongoing-request="true"`) {
		return RetrievalStatus{State: RetrievalInProgress, Progress: 50, Message: "restore in progress"}
	}
	if idx := strings.Index(header, `expiry-date="`); idx >= 0 {
		raw := header[idx+len(`expiry-date="`):]
		if end := strings.Index(raw, `"`); end > 0 {
			if expiry, err := http.ParseTime(raw[:end]); err == nil {
				if time.Now().After(expiry) {
					return RetrievalStatus{State: RetrievalExpired, Progress: 100, Message: "restored copy expired"}
				}
				now := time.Now()
				return RetrievalStatus{State: RetrievalReady, Progress: 100, CompletedAt: &now, Message: "restore complete"}
			}
		}
	}
	now := time.Now()
	return RetrievalStatus{State: RetrievalReady, Progress: 100, CompletedAt: &now, Message: "restore complete"}
}

// InitS3GlacierProvider builds the S3 client from one provider config
// entry. A custom endpoint keeps it usable against S3-compatible stores.
func InitS3GlacierProvider(cfg appconfig.ProviderConfig) *S3GlacierProvider {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Username,
			cfg.Password,
			"",
		)))
	if err != nil {
		log.Fatalln("s3 config error:", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3GlacierProvider(cfg.Name, client, cfg.Bucket)
}
