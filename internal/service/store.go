package service

import (
	"context"
	"errors"

	"ColdVault/model"
)

// ErrHashExists is returned by FileStore.Create when the unique index on
// content hash rejects the insert. The orchestrator treats it as the
// losing side of a concurrent duplicate upload and re-reads the winner.
var ErrHashExists = errors.New("content hash already stored")

// FileSearch narrows a paginated search over one owner's files.
type FileSearch struct {
	Query     string
	Category  model.FileCategory
	State     model.UploadState
	Page      int
	PageSize  int
	OrderBy   string
	OrderDesc bool
}

// FileStore is the metadata-store contract for File records. Lookups that
// find nothing fail with a not-found kind; Create maps a hash-uniqueness
// conflict to ErrHashExists.
type FileStore interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id uint64) (*model.File, error)
	GetByHash(ctx context.Context, hash string) (*model.File, error)
	Update(ctx context.Context, f *model.File) error
	ListByOwner(ctx context.Context, userID uint64, page, pageSize int) ([]model.File, int64, error)
	Search(ctx context.Context, userID uint64, q FileSearch) ([]model.File, int64, error)
	Transaction(ctx context.Context, fn func(FileStore) error) error
}

// SessionStore persists upload sessions and their chunk set. AddChunk is
// idempotent: inserting an index twice collapses into one row.
type SessionStore interface {
	Create(ctx context.Context, s *model.UploadSession) error
	Get(ctx context.Context, sessionID string) (*model.UploadSession, error)
	FindOpenByFile(ctx context.Context, userID, fileID uint64) (*model.UploadSession, error)
	AddChunk(ctx context.Context, chunk *model.SessionChunk) error
	Chunks(ctx context.Context, sessionID string) ([]model.SessionChunk, error)
	Update(ctx context.Context, s *model.UploadSession) error
	Delete(ctx context.Context, sessionID string) error
}
