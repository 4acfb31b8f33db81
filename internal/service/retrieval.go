package service

import (
	"errors"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"

	"golang.org/x/net/context"
)

// RetrievalReceipt is returned when a cold-storage restore is accepted.
type RetrievalReceipt struct {
	RetrievalID string    `json:"retrieval_id"`
	Provider    string    `json:"provider"`
	EstimatedAt time.Time `json:"estimated_at"`
}

// Retrievals drives restore jobs against cold-tier providers.
type Retrievals struct {
	files    FileStore
	registry *storage.Registry
}

func NewRetrievals(files FileStore, registry *storage.Registry) *Retrievals {
	return &Retrievals{files: files, registry: registry}
}

// Initiate asks the provider holding a file's bytes to start a restore.
// Repeated calls while a restore runs re-issue the same job and are safe.
func (r *Retrievals) Initiate(ctx context.Context, userID, fileID uint64, tier storage.RetrievalTier) (*RetrievalReceipt, error) {
	f, err := r.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "file %d not found", fileID)
	}
	if !f.HasLocation() {
		return nil, apperr.New(apperr.InvalidArgument, "file %d has no stored content", fileID)
	}
	provider, ok := r.registry.Get(f.Location.Provider)
	if !ok {
		return nil, apperr.New(apperr.NoProvidersAvailable, "provider %s not registered", f.Location.Provider)
	}
	if !provider.Capabilities().Retrieval {
		return nil, apperr.New(apperr.InvalidArgument, "provider %s does not support retrieval", provider.Name())
	}
	if tier == "" {
		tier = storage.TierStandard
	}
	id, estimated, err := provider.InitiateRetrieval(ctx, f.Location, tier)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendFailure, "initiate retrieval", err)
	}
	return &RetrievalReceipt{RetrievalID: id, Provider: provider.Name(), EstimatedAt: estimated}, nil
}

// CheckStatus resolves a retrieval id by asking every retrieval-capable
// provider. An id no provider recognizes yields a failed status, not an
// error: receipts outlive restore jobs.
func (r *Retrievals) CheckStatus(ctx context.Context, retrievalID string) (storage.RetrievalStatus, error) {
	for _, p := range r.registry.All() {
		if !p.Capabilities().Retrieval {
			continue
		}
		st, err := p.GetRetrievalStatus(ctx, retrievalID)
		if err != nil {
			if errors.Is(err, storage.ErrUnknownRetrievalID) {
				continue
			}
			return storage.RetrievalStatus{}, apperr.Wrap(apperr.BackendFailure, "check retrieval status", err)
		}
		return st, nil
	}
	return storage.RetrievalStatus{State: storage.RetrievalFailed, Message: "retrieval not found"}, nil
}
