package service

import (
	"ColdVault/internal/apperr"
	"ColdVault/model"

	"golang.org/x/net/context"
)

// Library is the read/annotate side of a user's stored files.
type Library struct {
	files FileStore
}

func NewLibrary(files FileStore) *Library {
	return &Library{files: files}
}

func (l *Library) Get(ctx context.Context, userID, fileID uint64) (*model.File, error) {
	f, err := l.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "file %d not found", fileID)
	}
	return f, nil
}

func (l *Library) List(ctx context.Context, userID uint64, page, pageSize int) ([]model.File, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return l.files.ListByOwner(ctx, userID, page, pageSize)
}

func (l *Library) Search(ctx context.Context, userID uint64, q FileSearch) ([]model.File, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return l.files.Search(ctx, userID, q)
}

// Tag appends a label to a file. Duplicate tags are ignored.
func (l *Library) Tag(ctx context.Context, userID, fileID uint64, tag string) (*model.File, error) {
	if tag == "" {
		return nil, apperr.New(apperr.InvalidArgument, "tag must not be empty")
	}
	f, err := l.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	f.AddTag(tag)
	if err := l.files.Update(ctx, f); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "save tags", err)
	}
	return f, nil
}

// Describe updates a file's free-form description.
func (l *Library) Describe(ctx context.Context, userID, fileID uint64, description string) (*model.File, error) {
	f, err := l.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	f.Description = description
	if err := l.files.Update(ctx, f); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "save description", err)
	}
	return f, nil
}
