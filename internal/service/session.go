package service

import (
	"fmt"
	"io"
	"log"
	"time"

	"ColdVault/config"
	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"

	"github.com/google/uuid"
	"golang.org/x/net/context"
)

// Locker serializes critical sections across processes. Lock blocks until
// the key is held or the context ends and returns the release func.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// OpenSessionInput starts (or resumes) a chunked upload. Hash is the
// client-declared content hash and is required: it drives both dedup at
// open and the final object key.
type OpenSessionInput struct {
	UserID     uint64
	FileName   string
	MimeType   string
	Hash       string
	TotalSize  int64
	ChunkSize  int64
	CapturedAt *time.Time
}

type OpenSessionResult struct {
	SessionID      string    `json:"session_id,omitempty"`
	FileID         uint64    `json:"file_id"`
	Duplicate      bool      `json:"duplicate"`
	Resumed        bool      `json:"resumed"`
	TotalChunks    int       `json:"total_chunks"`
	ChunkSize      int64     `json:"chunk_size"`
	UploadedChunks []int     `json:"uploaded_chunks"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type ChunkResult struct {
	SessionID string `json:"session_id"`
	Uploaded  int    `json:"uploaded"`
	Total     int    `json:"total"`
	Progress  int    `json:"progress"`
}

type CompleteResult struct {
	FileID   uint64                `json:"file_id"`
	Location model.StorageLocation `json:"location"`
}

type SessionStatus struct {
	SessionID      string    `json:"session_id"`
	FileID         uint64    `json:"file_id"`
	State          string    `json:"state"`
	UploadedChunks []int     `json:"uploaded_chunks"`
	TotalChunks    int       `json:"total_chunks"`
	Progress       int       `json:"progress"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Sessions manages chunked upload sessions: chunks are staged on the
// fast-access tier and merged into the selected destination on completion.
type Sessions struct {
	files    FileStore
	store    SessionStore
	registry *storage.Registry
	selector *Selector
	locker   Locker
	events   EventSink
}

func NewSessions(files FileStore, store SessionStore, registry *storage.Registry, selector *Selector, locker Locker, events EventSink) *Sessions {
	if events == nil {
		events = LogEventSink{}
	}
	return &Sessions{
		files:    files,
		store:    store,
		registry: registry,
		selector: selector,
		locker:   locker,
		events:   events,
	}
}

// Open starts a session. Content already stored under the declared hash
// completes instantly as a duplicate; an open session for the same
// pending file is resumed with its uploaded chunk indices.
func (s *Sessions) Open(ctx context.Context, in OpenSessionInput) (*OpenSessionResult, error) {
	if in.Hash == "" {
		return nil, apperr.New(apperr.InvalidArgument, "content hash required")
	}
	if in.ChunkSize <= 0 {
		in.ChunkSize = config.DefaultChunkSize
	}
	if in.MimeType == "" {
		in.MimeType = "application/octet-stream"
	}

	existing, err := s.files.GetByHash(ctx, in.Hash)
	switch {
	case err == nil:
		if existing.HasLocation() {
			return &OpenSessionResult{FileID: existing.ID, Duplicate: true}, nil
		}
		if existing.UserID == in.UserID {
			return s.resumeOrReopen(ctx, existing)
		}
		return nil, apperr.New(apperr.InvalidArgument, "identical content is already being uploaded")
	case !apperr.IsKind(err, apperr.NotFound):
		return nil, err
	}

	f, err := model.NewFile(in.UserID, in.FileName, in.MimeType, in.Hash, in.TotalSize, in.CapturedAt)
	if err != nil {
		return nil, err
	}
	if err := s.files.Create(ctx, f); err != nil {
		if err == ErrHashExists {
			// concurrent open with the same content won the insert
			if winner, gerr := s.files.GetByHash(ctx, in.Hash); gerr == nil && winner.HasLocation() {
				return &OpenSessionResult{FileID: winner.ID, Duplicate: true}, nil
			}
			return nil, apperr.New(apperr.InvalidArgument, "identical content is already being uploaded")
		}
		return nil, apperr.Wrap(apperr.PersistenceFailure, "save file record", err)
	}
	s.events.Dispatch(ctx, f.DrainEvents())

	sess, err := model.NewUploadSession(uuid.NewString(), f.ID, in.UserID, in.TotalSize, in.ChunkSize)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "save upload session", err)
	}
	return &OpenSessionResult{
		SessionID:      sess.SessionID,
		FileID:         f.ID,
		TotalChunks:    sess.TotalChunks,
		ChunkSize:      sess.ChunkSize,
		UploadedChunks: []int{},
		ExpiresAt:      sess.ExpiresAt,
	}, nil
}

func (s *Sessions) resumeOrReopen(ctx context.Context, f *model.File) (*OpenSessionResult, error) {
	sess, err := s.store.FindOpenByFile(ctx, f.UserID, f.ID)
	if err != nil {
		if !apperr.IsKind(err, apperr.NotFound) {
			return nil, err
		}
		sess = nil
	}
	if sess != nil && !sess.IsExpired() {
		if err := s.loadChunks(ctx, sess); err != nil {
			return nil, err
		}
		return &OpenSessionResult{
			SessionID:      sess.SessionID,
			FileID:         f.ID,
			Resumed:        true,
			TotalChunks:    sess.TotalChunks,
			ChunkSize:      sess.ChunkSize,
			UploadedChunks: sess.UploadedChunks(),
			ExpiresAt:      sess.ExpiresAt,
		}, nil
	}
	if sess != nil {
		// expired: staged chunks are abandoned and a fresh window opens
		s.cleanupChunks(ctx, sess.SessionID)
		if err := s.store.Delete(ctx, sess.SessionID); err != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, "drop expired session", err)
		}
	}
	fresh, err := model.NewUploadSession(uuid.NewString(), f.ID, f.UserID, f.Size.Bytes, pickChunkSize(sess, f))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, fresh); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "save upload session", err)
	}
	return &OpenSessionResult{
		SessionID:      fresh.SessionID,
		FileID:         f.ID,
		TotalChunks:    fresh.TotalChunks,
		ChunkSize:      fresh.ChunkSize,
		UploadedChunks: []int{},
		ExpiresAt:      fresh.ExpiresAt,
	}, nil
}

func pickChunkSize(old *model.UploadSession, f *model.File) int64 {
	if old != nil && old.ChunkSize > 0 {
		return old.ChunkSize
	}
	if f.Size.Bytes < config.DefaultChunkSize {
		return f.Size.Bytes
	}
	return config.DefaultChunkSize
}

// UploadChunk stages one chunk on the staging provider and records it.
// Re-sending an already recorded index is a no-op success.
func (s *Sessions) UploadChunk(ctx context.Context, userID uint64, sessionID string, index int, r io.Reader, size int64) (*ChunkResult, error) {
	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, sess); err != nil {
		return nil, err
	}
	already := sess.HasChunk(index)
	if err := sess.MarkChunkUploaded(index); err != nil {
		return nil, err
	}
	if !already {
		path := chunkPath(sessionID, index)
		staging, err := s.stagingProvider()
		if err != nil {
			return nil, err
		}
		if _, err := staging.Upload(ctx, path, r, size, storage.PutOptions{ContentType: "application/octet-stream"}); err != nil {
			return nil, apperr.Wrap(apperr.BackendFailure, "stage chunk", err)
		}
		chunk := &model.SessionChunk{
			SessionID:  sessionID,
			ChunkIndex: index,
			ChunkSize:  size,
			ChunkPath:  path,
		}
		if err := s.store.AddChunk(ctx, chunk); err != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, "record chunk", err)
		}
	}
	return &ChunkResult{
		SessionID: sessionID,
		Uploaded:  len(sess.UploadedChunks()),
		Total:     sess.TotalChunks,
		Progress:  sess.Progress(),
	}, nil
}

// Complete merges the staged chunks into the destination provider and
// finalizes the file. Safe against concurrent callers via the locker.
func (s *Sessions) Complete(ctx context.Context, userID uint64, sessionID string) (*CompleteResult, error) {
	if s.locker != nil {
		release, err := s.locker.Lock(ctx, "session:complete:"+sessionID, 30*time.Second)
		if err != nil {
			return nil, apperr.Wrap(apperr.BackendFailure, "acquire completion lock", err)
		}
		defer release()
	}

	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, sess); err != nil {
		return nil, err
	}
	if err := sess.CanComplete(); err != nil {
		return nil, err
	}

	f, err := s.files.GetByID(ctx, sess.FileID)
	if err != nil {
		return nil, err
	}
	if f.Status.State == model.StateFailed {
		// a previous completion attempt failed mid-assembly
		if err := f.Retry(); err != nil {
			return nil, err
		}
	}
	if err := f.BeginUpload(); err != nil {
		return nil, err
	}
	provider, err := s.selector.Select(f.Type.Category, sess.TotalSize, "")
	if err != nil {
		return nil, err
	}
	loc, err := s.assemble(ctx, sess, f, provider)
	if err != nil {
		if ferr := f.MarkFailed(); ferr == nil {
			if uerr := s.files.Update(ctx, f); uerr != nil {
				log.Printf("session %s: mark failed persist: %v", sessionID, uerr)
			}
		}
		return nil, err
	}

	if err := f.CompleteUpload(loc); err != nil {
		return nil, err
	}
	if !provider.Capabilities().InstantAccess {
		if err := f.Archive(); err != nil {
			return nil, err
		}
	}
	err = s.files.Transaction(ctx, func(tx FileStore) error {
		return tx.Update(ctx, f)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "finalize file record", err)
	}
	if err := sess.Complete(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, sess); err != nil {
		log.Printf("session %s: completion persist: %v", sessionID, err)
	}
	s.events.Dispatch(ctx, f.DrainEvents())
	s.cleanupChunks(ctx, sessionID)

	return &CompleteResult{FileID: f.ID, Location: loc}, nil
}

// Status reports a session's progress without mutating it.
func (s *Sessions) Status(ctx context.Context, userID uint64, sessionID string) (*SessionStatus, error) {
	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, sess); err != nil {
		return nil, err
	}
	state := "open"
	switch {
	case sess.CompletedAt != nil:
		state = "completed"
	case sess.IsExpired():
		state = "expired"
	}
	return &SessionStatus{
		SessionID:      sess.SessionID,
		FileID:         sess.FileID,
		State:          state,
		UploadedChunks: sess.UploadedChunks(),
		TotalChunks:    sess.TotalChunks,
		Progress:       sess.Progress(),
		ExpiresAt:      sess.ExpiresAt,
	}, nil
}

func (s *Sessions) loadOwned(ctx context.Context, userID uint64, sessionID string) (*model.UploadSession, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "upload session %s not found", sessionID)
	}
	return sess, nil
}

func (s *Sessions) loadChunks(ctx context.Context, sess *model.UploadSession) error {
	chunks, err := s.store.Chunks(ctx, sess.SessionID)
	if err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "load session chunks", err)
	}
	indices := make([]int, 0, len(chunks))
	for _, c := range chunks {
		indices = append(indices, c.ChunkIndex)
	}
	sess.RestoreChunks(indices)
	return nil
}

// assemble writes the merged object. When the destination provider can
// compose server-side and also holds the staged chunks, the bytes never
// pass through this process.
func (s *Sessions) assemble(ctx context.Context, sess *model.UploadSession, f *model.File, dest storage.Provider) (model.StorageLocation, error) {
	destPath := BuildObjectPath(f.UserID, f.Hash)
	paths := make([]string, sess.TotalChunks)
	for i := range paths {
		paths[i] = chunkPath(sess.SessionID, i)
	}

	staging, err := s.stagingProvider()
	if err != nil {
		return model.StorageLocation{}, err
	}
	if composer, ok := dest.(storage.Composer); ok && dest.Name() == staging.Name() {
		loc, err := composer.Compose(ctx, destPath, paths)
		if err != nil {
			return model.StorageLocation{}, apperr.Wrap(apperr.BackendFailure, "compose chunks", err)
		}
		return loc, nil
	}

	pr, pw := io.Pipe()
	go func() {
		for _, p := range paths {
			rc, err := staging.Download(ctx, model.StorageLocation{Provider: staging.Name(), Path: p})
			if err != nil {
				pw.CloseWithError(fmt.Errorf("read staged chunk %s: %w", p, err))
				return
			}
			_, err = io.Copy(pw, rc)
			rc.Close()
			if err != nil {
				pw.CloseWithError(fmt.Errorf("stream staged chunk %s: %w", p, err))
				return
			}
		}
		pw.Close()
	}()
	loc, err := dest.Upload(ctx, destPath, pr, sess.TotalSize, storage.PutOptions{ContentType: f.Type.Mime})
	if err != nil {
		pr.CloseWithError(err)
		return model.StorageLocation{}, apperr.Wrap(apperr.BackendFailure, "merge chunks", err)
	}
	return loc, nil
}

func (s *Sessions) cleanupChunks(ctx context.Context, sessionID string) {
	staging, err := s.stagingProvider()
	if err != nil {
		return
	}
	chunks, err := s.store.Chunks(ctx, sessionID)
	if err != nil {
		log.Printf("session %s: chunk cleanup listing: %v", sessionID, err)
		return
	}
	for _, c := range chunks {
		loc := model.StorageLocation{Provider: staging.Name(), Path: c.ChunkPath}
		if err := staging.Delete(ctx, loc); err != nil {
			log.Printf("session %s: staged chunk %d cleanup: %v", sessionID, c.ChunkIndex, err)
		}
	}
}

func (s *Sessions) stagingProvider() (storage.Provider, error) {
	if p, ok := s.registry.Get(config.AppConfig.StagingProvider); ok {
		return p, nil
	}
	for _, p := range s.registry.All() {
		if p.Capabilities().InstantAccess {
			return p, nil
		}
	}
	return nil, apperr.New(apperr.NoProvidersAvailable, "no staging provider available")
}

func chunkPath(sessionID string, index int) string {
	return fmt.Sprintf("chunks/%s/%d", sessionID, index)
}
