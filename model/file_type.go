package model

import (
	"strings"

	"ColdVault/internal/apperr"
)

// FileCategory groups MIME types into storage-placement classes.
type FileCategory string

const (
	CategoryPhoto FileCategory = "photo"
	CategoryVideo FileCategory = "video"
	CategoryMisc  FileCategory = "misc"
)

// FileType pairs a MIME type with its derived category.
type FileType struct {
	Mime     string       `gorm:"column:mime;type:varchar(128);not null"`
	Category FileCategory `gorm:"column:category;type:varchar(16);not null;index"`
}

// NewFileType validates a MIME type and derives the category.
func NewFileType(mime string) (FileType, error) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" || !strings.Contains(mime, "/") {
		return FileType{}, apperr.New(apperr.InvalidArgument, "invalid mime type %q", mime)
	}
	return FileType{Mime: mime, Category: categoryOf(mime)}, nil
}

func categoryOf(mime string) FileCategory {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryPhoto
	case strings.HasPrefix(mime, "video/"):
		return CategoryVideo
	default:
		return CategoryMisc
	}
}
