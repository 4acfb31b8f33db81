package model

import (
	"sort"
	"time"

	"ColdVault/internal/apperr"
)

// SessionTTL is the fixed window a session stays writable after creation.
const SessionTTL = 24 * time.Hour

// UploadSession tracks a resumable chunked upload for one file. Uploaded
// chunk indices are a set: re-marking an index is a no-op, so client
// retries and parallel chunk delivery cannot corrupt the progress math,
// and completion is verified by exact coverage rather than by count.
type UploadSession struct {
	ID uint64 `gorm:"primaryKey"`

	SessionID string `gorm:"column:session_id;size:36;uniqueIndex;not null"`

	FileID uint64 `gorm:"column:file_id;not null;index"`
	UserID uint64 `gorm:"column:user_id;not null;index"`
	User   User   `gorm:"foreignKey:UserID;references:ID"`

	TotalSize   int64 `gorm:"column:total_size;not null"`
	ChunkSize   int64 `gorm:"column:chunk_size;not null"`
	TotalChunks int   `gorm:"column:total_chunks;not null"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null;index"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	// Uploaded chunk indices, owned by the aggregate. Persisted as
	// SessionChunk rows, restored by the store on load.
	chunks map[int]struct{} `gorm:"-"`
}

// TableName returns the database table name.
func (UploadSession) TableName() string {
	return "upload_session"
}

// NewUploadSession validates sizes and derives the chunk count.
func NewUploadSession(sessionID string, fileID, userID uint64, totalSize, chunkSize int64) (*UploadSession, error) {
	if totalSize <= 0 {
		return nil, apperr.New(apperr.InvalidArgument, "total size must be positive, got %d", totalSize)
	}
	if chunkSize <= 0 {
		return nil, apperr.New(apperr.InvalidArgument, "chunk size must be positive, got %d", chunkSize)
	}
	now := time.Now()
	return &UploadSession{
		SessionID:   sessionID,
		FileID:      fileID,
		UserID:      userID,
		TotalSize:   totalSize,
		ChunkSize:   chunkSize,
		TotalChunks: int((totalSize + chunkSize - 1) / chunkSize),
		CreatedAt:   now,
		ExpiresAt:   now.Add(SessionTTL),
		chunks:      make(map[int]struct{}),
	}, nil
}

// MarkChunkUploaded records one uploaded chunk index. Set semantics:
// marking an already-recorded index succeeds without changing anything.
func (s *UploadSession) MarkChunkUploaded(index int) error {
	if s.CompletedAt != nil {
		return apperr.New(apperr.AlreadyCompleted, "upload session %s already completed", s.SessionID)
	}
	if s.IsExpired() {
		return apperr.New(apperr.Expired, "upload session %s expired at %s", s.SessionID, s.ExpiresAt.Format(time.RFC3339))
	}
	if index < 0 || index >= s.TotalChunks {
		return apperr.New(apperr.InvalidArgument, "chunk index %d out of range [0, %d)", index, s.TotalChunks)
	}
	if s.chunks == nil {
		s.chunks = make(map[int]struct{})
	}
	s.chunks[index] = struct{}{}
	return nil
}

// Complete stamps CompletedAt once every chunk index has been recorded.
// After completion the session is immutable.
func (s *UploadSession) Complete() error {
	if err := s.CanComplete(); err != nil {
		return err
	}
	now := time.Now()
	s.CompletedAt = &now
	return nil
}

// CanComplete reports whether Complete would succeed, without stamping
// CompletedAt. Callers that must do fallible work between the check and
// the stamp use this first so a failure leaves the session reusable.
func (s *UploadSession) CanComplete() error {
	if s.CompletedAt != nil {
		return apperr.New(apperr.AlreadyCompleted, "upload session %s already completed", s.SessionID)
	}
	if !s.IsComplete() {
		return apperr.New(apperr.IncompleteChunks, "upload session %s has %d of %d chunks", s.SessionID, len(s.chunks), s.TotalChunks)
	}
	return nil
}

// IsComplete reports whether every index in [0, TotalChunks) is recorded.
func (s *UploadSession) IsComplete() bool {
	return s.TotalChunks > 0 && len(s.chunks) == s.TotalChunks
}

// IsExpired reports whether the session passed its deadline unfinished.
func (s *UploadSession) IsExpired() bool {
	return s.CompletedAt == nil && time.Now().After(s.ExpiresAt)
}

// Progress returns floor(uploaded*100/total).
func (s *UploadSession) Progress() int {
	if s.TotalChunks == 0 {
		return 0
	}
	return len(s.chunks) * 100 / s.TotalChunks
}

// UploadedChunks returns a sorted copy of the recorded indices.
func (s *UploadSession) UploadedChunks() []int {
	out := make([]int, 0, len(s.chunks))
	for idx := range s.chunks {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// HasChunk reports whether one index has been recorded.
func (s *UploadSession) HasChunk(index int) bool {
	_, ok := s.chunks[index]
	return ok
}

// RestoreChunks seeds the index set from persisted chunk rows. Used by the
// store when rehydrating a session; not part of the upload protocol.
func (s *UploadSession) RestoreChunks(indices []int) {
	s.chunks = make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < s.TotalChunks {
			s.chunks[idx] = struct{}{}
		}
	}
}
