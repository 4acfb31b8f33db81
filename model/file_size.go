package model

import "ColdVault/internal/apperr"

// MaxFileSize caps a single file at 5 GiB.
const MaxFileSize int64 = 5 << 30

// FileSize is a validated positive byte count.
type FileSize struct {
	Bytes int64 `gorm:"column:size;not null"`
}

// NewFileSize validates the byte count against (0, MaxFileSize].
func NewFileSize(bytes int64) (FileSize, error) {
	if bytes <= 0 {
		return FileSize{}, apperr.New(apperr.InvalidArgument, "file size must be positive, got %d", bytes)
	}
	if bytes > MaxFileSize {
		return FileSize{}, apperr.New(apperr.InvalidArgument, "file size %d exceeds maximum %d", bytes, MaxFileSize)
	}
	return FileSize{Bytes: bytes}, nil
}
