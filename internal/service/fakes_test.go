package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"

	"golang.org/x/net/context"
)

var _ storage.Provider = (*fakeProvider)(nil)

// fakeProvider is an in-memory storage backend for tests.
type fakeProvider struct {
	mu        sync.Mutex
	name      string
	caps      storage.Capabilities
	objects   map[string][]byte
	uploads   int
	uploadErr error

	retrievals map[string]storage.RetrievalStatus
}

func newFakeProvider(name string, instant bool) *fakeProvider {
	return &fakeProvider{
		name: name,
		caps: storage.Capabilities{
			InstantAccess: instant,
			Retrieval:     !instant,
			Deletion:      true,
		},
		objects:    make(map[string][]byte),
		retrievals: make(map[string]storage.RetrievalStatus),
	}
}

func (p *fakeProvider) Name() string                       { return p.name }
func (p *fakeProvider) Capabilities() storage.Capabilities { return p.caps }

func (p *fakeProvider) Upload(ctx context.Context, path string, r io.Reader, size int64, opts storage.PutOptions) (model.StorageLocation, error) {
	// drain before locking: piped assembly reads back through Download
	// on this same provider while the upload is in flight
	data, err := io.ReadAll(r)
	if err != nil {
		return model.StorageLocation{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uploadErr != nil {
		return model.StorageLocation{}, p.uploadErr
	}
	p.objects[path] = data
	p.uploads++
	return model.StorageLocation{Provider: p.name, Path: path}, nil
}

func (p *fakeProvider) Download(ctx context.Context, loc model.StorageLocation) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.objects[loc.Path]
	if !ok {
		return nil, fmt.Errorf("object %s not found", loc.Path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (p *fakeProvider) Delete(ctx context.Context, loc model.StorageLocation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, loc.Path)
	return nil
}

func (p *fakeProvider) InitiateRetrieval(ctx context.Context, loc model.StorageLocation, tier storage.RetrievalTier) (string, time.Time, error) {
	if !p.caps.Retrieval {
		return "", time.Time{}, fmt.Errorf("provider %s does not support retrieval", p.name)
	}
	id := fmt.Sprintf("restore:%s:%s", p.name, loc.Path)
	p.mu.Lock()
	p.retrievals[id] = storage.RetrievalStatus{State: storage.RetrievalRequested}
	p.mu.Unlock()
	return id, time.Now().Add(time.Hour), nil
}

func (p *fakeProvider) GetRetrievalStatus(ctx context.Context, retrievalID string) (storage.RetrievalStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.retrievals[retrievalID]
	if !ok {
		return storage.RetrievalStatus{}, storage.ErrUnknownRetrievalID
	}
	return st, nil
}

func (p *fakeProvider) HealthCheck(ctx context.Context) storage.Health {
	return storage.Health{Healthy: true}
}

func (p *fakeProvider) object(path string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.objects[path]
	return data, ok
}

func (p *fakeProvider) uploadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploads
}

// memFileStore is an in-memory FileStore honoring the hash uniqueness
// contract.
type memFileStore struct {
	mu     sync.Mutex
	nextID uint64
	files  map[uint64]*model.File
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[uint64]*model.File)}
}

func (s *memFileStore) Create(ctx context.Context, f *model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.files {
		if existing.Hash == f.Hash {
			return ErrHashExists
		}
	}
	s.nextID++
	f.ID = s.nextID
	s.files[f.ID] = f
	return nil
}

func (s *memFileStore) GetByID(ctx context.Context, id uint64) (*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "file %d not found", id)
	}
	return f, nil
}

func (s *memFileStore) GetByHash(ctx context.Context, hash string) (*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.Hash == hash {
			return f, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "file with hash %s not found", hash)
}

func (s *memFileStore) Update(ctx context.Context, f *model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.ID]; !ok {
		return apperr.New(apperr.NotFound, "file %d not found", f.ID)
	}
	s.files[f.ID] = f
	return nil
}

func (s *memFileStore) ListByOwner(ctx context.Context, userID uint64, page, pageSize int) ([]model.File, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.File
	for _, f := range s.files {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memFileStore) Search(ctx context.Context, userID uint64, q FileSearch) ([]model.File, int64, error) {
	return s.ListByOwner(ctx, userID, q.Page, q.PageSize)
}

func (s *memFileStore) Transaction(ctx context.Context, fn func(FileStore) error) error {
	return fn(s)
}

func (s *memFileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// memSessionStore is an in-memory SessionStore.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.UploadSession
	chunks   map[string][]model.SessionChunk
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]*model.UploadSession),
		chunks:   make(map[string][]model.SessionChunk),
	}
}

func (s *memSessionStore) Create(ctx context.Context, sess *model.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, sessionID string) (*model.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "upload session %s not found", sessionID)
	}
	return sess, nil
}

func (s *memSessionStore) FindOpenByFile(ctx context.Context, userID, fileID uint64) (*model.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.FileID == fileID && sess.CompletedAt == nil {
			return sess, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "no open session for file %d", fileID)
}

func (s *memSessionStore) AddChunk(ctx context.Context, chunk *model.SessionChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks[chunk.SessionID] {
		if c.ChunkIndex == chunk.ChunkIndex {
			return nil
		}
	}
	s.chunks[chunk.SessionID] = append(s.chunks[chunk.SessionID], *chunk)
	return nil
}

func (s *memSessionStore) Chunks(ctx context.Context, sessionID string) ([]model.SessionChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SessionChunk(nil), s.chunks[sessionID]...), nil
}

func (s *memSessionStore) Update(ctx context.Context, sess *model.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
	return nil
}

func (s *memSessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	delete(s.chunks, sessionID)
	return nil
}

// captureSink records dispatched events.
type captureSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *captureSink) Dispatch(ctx context.Context, events []model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

func (c *captureSink) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventName())
	}
	return out
}

// fakeThumbnailer counts generation attempts.
type fakeThumbnailer struct {
	mu       sync.Mutex
	attempts int
	fail     error
}

func (f *fakeThumbnailer) Supports(mimeType string) bool {
	return mimeType == "image/jpeg" || mimeType == "image/png"
}

func (f *fakeThumbnailer) Generate(ctx context.Context, r io.Reader, maxWidth, maxHeight, quality int) (io.Reader, int64, error) {
	f.mu.Lock()
	f.attempts++
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		return nil, 0, fail
	}
	thumb := []byte("thumb-bytes")
	return bytes.NewReader(thumb), int64(len(thumb)), nil
}

func (f *fakeThumbnailer) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// noopLocker hands out the lock immediately.
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return func() {}, nil
}

var errBackendDown = errors.New("Storage provider error")
