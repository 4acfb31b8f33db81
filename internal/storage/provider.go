package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"ColdVault/model"
)

// RetrievalTier is the cost/speed tradeoff for a cold-storage restore.
// The backend defines the actual SLA for each tier.
type RetrievalTier string

const (
	TierBulk      RetrievalTier = "bulk"
	TierStandard  RetrievalTier = "standard"
	TierExpedited RetrievalTier = "expedited"
)

// RetrievalState is the lifecycle of one restore job.
type RetrievalState string

const (
	RetrievalRequested  RetrievalState = "requested"
	RetrievalInProgress RetrievalState = "in_progress"
	RetrievalReady      RetrievalState = "ready"
	RetrievalExpired    RetrievalState = "expired"
	RetrievalFailed     RetrievalState = "failed"
)

// RetrievalStatus is a snapshot of one restore job.
type RetrievalStatus struct {
	State       RetrievalState
	Progress    int
	CompletedAt *time.Time
	Message     string
}

// ErrUnknownRetrievalID signals that a provider does not recognize a
// retrieval token. Tokens are backend-opaque; the retrieval orchestrator
// scans providers until one claims the token.
var ErrUnknownRetrievalID = errors.New("unknown retrieval id")

// Capabilities declares what one backend can do.
type Capabilities struct {
	InstantAccess  bool
	Retrieval      bool
	Deletion       bool
	MinRestoreTime time.Duration
	MaxRestoreTime time.Duration
}

// PutOptions describes upload options for object storage.
type PutOptions struct {
	ContentType string
}

// Health is the result of one backend health probe.
type Health struct {
	Healthy bool
	Latency time.Duration
	Message string
}

// Provider is one registered storage backend. Implementations wrap a
// single physical storage system; the engine treats them as slow, remote
// black boxes and never assumes consistency across two of them.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	Upload(ctx context.Context, path string, reader io.Reader, size int64, opts PutOptions) (model.StorageLocation, error)
	Download(ctx context.Context, loc model.StorageLocation) (io.ReadCloser, error)
	Delete(ctx context.Context, loc model.StorageLocation) error
	InitiateRetrieval(ctx context.Context, loc model.StorageLocation, tier RetrievalTier) (retrievalID string, estimated time.Time, err error)
	GetRetrievalStatus(ctx context.Context, retrievalID string) (RetrievalStatus, error)
	HealthCheck(ctx context.Context) Health
}

// Composer is implemented by providers that can merge staged objects into
// one destination object server-side.
type Composer interface {
	Compose(ctx context.Context, destPath string, srcPaths []string) (model.StorageLocation, error)
}

// URLSigner is implemented by providers that can mint presigned download
// URLs with response header overrides.
type URLSigner interface {
	PresignedGet(ctx context.Context, loc model.StorageLocation, expiry time.Duration, params map[string]string) (string, error)
}
