package model

import (
	"testing"

	"ColdVault/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileTypeCategories(t *testing.T) {
	cases := []struct {
		mime string
		want FileCategory
	}{
		{"image/jpeg", CategoryPhoto},
		{"image/png", CategoryPhoto},
		{"video/mp4", CategoryVideo},
		{"application/pdf", CategoryMisc},
		{"text/plain", CategoryMisc},
	}
	for _, tc := range cases {
		ft, err := NewFileType(tc.mime)
		require.NoError(t, err, tc.mime)
		assert.Equal(t, tc.want, ft.Category, tc.mime)
	}
}

func TestNewFileTypeRejectsMalformed(t *testing.T) {
	for _, mime := range []string{"", "jpeg", "imagejpeg"} {
		_, err := NewFileType(mime)
		require.Error(t, err, "mime %q", mime)
		assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
	}
}

func TestNewFileSizeBounds(t *testing.T) {
	_, err := NewFileSize(0)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = NewFileSize(-1)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = NewFileSize(MaxFileSize + 1)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	size, err := NewFileSize(MaxFileSize)
	require.NoError(t, err)
	assert.Equal(t, MaxFileSize, size.Bytes)
}

func TestNewStorageLocation(t *testing.T) {
	_, err := NewStorageLocation("", "path")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = NewStorageLocation("minio", "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	loc, err := NewStorageLocation("minio", "files/1/x")
	require.NoError(t, err)
	assert.False(t, loc.IsZero())
	assert.True(t, StorageLocation{}.IsZero())
}
