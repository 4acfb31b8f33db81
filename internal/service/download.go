package service

import (
	"fmt"
	"io"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"
	"ColdVault/utils"

	"golang.org/x/net/context"
)

// Downloads streams stored bytes back out. Content on a cold tier that
// has not been restored fails with the backend's own message so callers
// know to initiate a retrieval.
type Downloads struct {
	files    FileStore
	registry *storage.Registry
}

func NewDownloads(files FileStore, registry *storage.Registry) *Downloads {
	return &Downloads{files: files, registry: registry}
}

// Open returns the file record and a reader over its bytes. The caller
// closes the reader.
func (d *Downloads) Open(ctx context.Context, userID, fileID uint64) (*model.File, io.ReadCloser, error) {
	f, provider, err := d.locate(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := provider.Download(ctx, f.Location)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.BackendFailure, "", err)
	}
	return f, rc, nil
}

// PresignedURL mints a time-limited direct link when the owning provider
// supports signing. Cold-tier content cannot be linked this way.
func (d *Downloads) PresignedURL(ctx context.Context, userID, fileID uint64, expiry time.Duration) (string, error) {
	f, provider, err := d.locate(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	signer, ok := provider.(storage.URLSigner)
	if !ok || !provider.Capabilities().InstantAccess {
		return "", apperr.New(apperr.InvalidArgument, "provider %s cannot serve direct links", provider.Name())
	}
	params := map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", utils.SanitizeHeaderFilename(f.OriginalName)),
	}
	url, err := signer.PresignedGet(ctx, f.Location, expiry, params)
	if err != nil {
		return "", apperr.Wrap(apperr.BackendFailure, "sign download url", err)
	}
	return url, nil
}

// OpenThumbnail streams a file's preview image.
func (d *Downloads) OpenThumbnail(ctx context.Context, userID, fileID uint64) (io.ReadCloser, error) {
	f, err := d.owned(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if f.Thumbnail.IsZero() {
		return nil, apperr.New(apperr.NotFound, "file %d has no thumbnail", fileID)
	}
	provider, ok := d.registry.Get(f.Thumbnail.Provider)
	if !ok {
		return nil, apperr.New(apperr.NoProvidersAvailable, "provider %s not registered", f.Thumbnail.Provider)
	}
	rc, err := provider.Download(ctx, f.Thumbnail)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendFailure, "", err)
	}
	return rc, nil
}

func (d *Downloads) owned(ctx context.Context, userID, fileID uint64) (*model.File, error) {
	f, err := d.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "file %d not found", fileID)
	}
	return f, nil
}

func (d *Downloads) locate(ctx context.Context, userID, fileID uint64) (*model.File, storage.Provider, error) {
	f, err := d.owned(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !f.HasLocation() {
		return nil, nil, apperr.New(apperr.InvalidArgument, "file %d has no stored content", fileID)
	}
	provider, ok := d.registry.Get(f.Location.Provider)
	if !ok {
		return nil, nil, apperr.New(apperr.NoProvidersAvailable, "provider %s not registered", f.Location.Provider)
	}
	return f, provider, nil
}
