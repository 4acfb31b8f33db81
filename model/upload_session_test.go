package model

import (
	"testing"
	"time"

	"ColdVault/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, totalSize, chunkSize int64) *UploadSession {
	t.Helper()
	s, err := NewUploadSession("sess-1", 1, 1, totalSize, chunkSize)
	require.NoError(t, err)
	return s
}

func TestNewUploadSessionChunkMath(t *testing.T) {
	cases := []struct {
		totalSize, chunkSize int64
		wantChunks           int
	}{
		{10_000_000, 2_000_000, 5},
		{10_000_001, 2_000_000, 6},
		{1, 2_000_000, 1},
		{2_000_000, 2_000_000, 1},
	}
	for _, tc := range cases {
		s := newTestSession(t, tc.totalSize, tc.chunkSize)
		assert.Equal(t, tc.wantChunks, s.TotalChunks, "size=%d chunk=%d", tc.totalSize, tc.chunkSize)
	}
}

func TestNewUploadSessionRejectsBadSizes(t *testing.T) {
	_, err := NewUploadSession("s", 1, 1, 0, 100)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = NewUploadSession("s", 1, 1, 100, 0)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}

func TestMarkChunkUploadedIdempotent(t *testing.T) {
	s := newTestSession(t, 10_000_000, 2_000_000)

	require.NoError(t, s.MarkChunkUploaded(0))
	require.NoError(t, s.MarkChunkUploaded(3))
	require.NoError(t, s.MarkChunkUploaded(3))
	require.NoError(t, s.MarkChunkUploaded(3))

	assert.Equal(t, []int{0, 3}, s.UploadedChunks())
	assert.Equal(t, 40, s.Progress())
}

func TestMarkChunkUploadedRange(t *testing.T) {
	s := newTestSession(t, 10_000_000, 2_000_000)

	err := s.MarkChunkUploaded(-1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	err = s.MarkChunkUploaded(5)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}

func TestCompleteRequiresAllChunks(t *testing.T) {
	s := newTestSession(t, 10_000_000, 2_000_000)
	for i := 0; i < 4; i++ {
		require.NoError(t, s.MarkChunkUploaded(i))
	}

	err := s.Complete()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.IncompleteChunks))
	assert.Contains(t, err.Error(), "4 of 5")

	require.NoError(t, s.MarkChunkUploaded(4))
	require.NoError(t, s.Complete())
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, 100, s.Progress())
}

func TestCanCompleteDoesNotStamp(t *testing.T) {
	s := newTestSession(t, 100, 100)

	err := s.CanComplete()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.IncompleteChunks))

	require.NoError(t, s.MarkChunkUploaded(0))
	require.NoError(t, s.CanComplete())
	assert.Nil(t, s.CompletedAt)

	require.NoError(t, s.Complete())
	err = s.CanComplete()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.AlreadyCompleted))
}

func TestCompleteTwiceFails(t *testing.T) {
	s := newTestSession(t, 100, 100)
	require.NoError(t, s.MarkChunkUploaded(0))
	require.NoError(t, s.Complete())

	err := s.Complete()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.AlreadyCompleted))

	err = s.MarkChunkUploaded(0)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.AlreadyCompleted))
}

func TestExpiredSessionRejectsChunks(t *testing.T) {
	s := newTestSession(t, 100, 50)
	s.ExpiresAt = time.Now().Add(-time.Minute)

	require.True(t, s.IsExpired())
	err := s.MarkChunkUploaded(0)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Expired))
}

func TestCompletedSessionNeverExpires(t *testing.T) {
	s := newTestSession(t, 100, 100)
	require.NoError(t, s.MarkChunkUploaded(0))
	require.NoError(t, s.Complete())

	s.ExpiresAt = time.Now().Add(-time.Hour)
	assert.False(t, s.IsExpired())
}

func TestRestoreChunksDropsOutOfRange(t *testing.T) {
	s := newTestSession(t, 10_000_000, 2_000_000)
	s.RestoreChunks([]int{0, 2, 4, 7, -1})

	assert.Equal(t, []int{0, 2, 4}, s.UploadedChunks())
	assert.True(t, s.HasChunk(2))
	assert.False(t, s.HasChunk(1))
	assert.Equal(t, 60, s.Progress())
}
