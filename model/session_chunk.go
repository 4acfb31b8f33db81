package model

import "time"

// SessionChunk is one staged chunk of an upload session. The unique index
// over (session_id, chunk_index) backs the set semantics of the session:
// concurrent re-submissions of the same index collapse into one row.
type SessionChunk struct {
	ID uint64 `gorm:"primaryKey"`

	SessionID string `gorm:"column:session_id;size:36;not null;uniqueIndex:idx_session_chunk"`

	ChunkIndex int    `gorm:"column:chunk_index;not null;uniqueIndex:idx_session_chunk"`
	ChunkSize  int64  `gorm:"column:chunk_size;not null"`
	ChunkPath  string `gorm:"column:chunk_path;size:512;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name.
func (SessionChunk) TableName() string {
	return "session_chunk"
}
