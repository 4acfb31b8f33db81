package service

import (
	"context"
	"io"
	"testing"
	"time"

	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const downloadTestHash = "sha256:cafebabecafebabecafebabecafebabecafebabecafebabecafebabecafebabe"

func newDownloadFixture(t *testing.T) (*Downloads, *memFileStore, *fakeProvider, *fakeProvider) {
	t.Helper()
	minio := newFakeProvider("minio", true)
	glacier := newFakeProvider("glacier", false)
	files := newMemFileStore()
	return NewDownloads(files, storage.NewRegistry(minio, glacier)), files, minio, glacier
}

func seedStoredFile(t *testing.T, files *memFileStore, p *fakeProvider, data []byte) *model.File {
	t.Helper()
	f, err := model.NewFile(7, "doc.txt", "text/plain", downloadTestHash, int64(len(data)), nil)
	require.NoError(t, err)
	require.NoError(t, f.BeginUpload())
	p.objects["files/7/doc"] = data
	require.NoError(t, f.CompleteUpload(model.StorageLocation{Provider: p.Name(), Path: "files/7/doc"}))
	require.NoError(t, files.Create(context.Background(), f))
	return f
}

func TestDownloadStreamsBytes(t *testing.T) {
	svc, files, minio, _ := newDownloadFixture(t)
	f := seedStoredFile(t, files, minio, []byte("hello world"))

	got, rc, err := svc.Open(context.Background(), 7, f.ID)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
	assert.Equal(t, f.ID, got.ID)
}

func TestDownloadBackendErrorSurfacedVerbatim(t *testing.T) {
	svc, files, minio, _ := newDownloadFixture(t)
	f := seedStoredFile(t, files, minio, []byte("x"))
	delete(minio.objects, "files/7/doc")

	_, _, err := svc.Open(context.Background(), 7, f.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.BackendFailure))
	assert.Equal(t, "object files/7/doc not found", err.Error())
}

func TestDownloadWrongOwner(t *testing.T) {
	svc, files, minio, _ := newDownloadFixture(t)
	f := seedStoredFile(t, files, minio, []byte("x"))

	_, _, err := svc.Open(context.Background(), 99, f.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestDownloadPendingFileFails(t *testing.T) {
	svc, files, _, _ := newDownloadFixture(t)
	f, err := model.NewFile(7, "pending.txt", "text/plain", downloadTestHash, 1, nil)
	require.NoError(t, err)
	require.NoError(t, files.Create(context.Background(), f))

	_, _, err = svc.Open(context.Background(), 7, f.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}

func TestPresignedURLRequiresSigner(t *testing.T) {
	svc, files, minio, _ := newDownloadFixture(t)
	f := seedStoredFile(t, files, minio, []byte("x"))

	// the fake backend cannot mint links
	_, err := svc.PresignedURL(context.Background(), 7, f.ID, 15*time.Minute)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}

func TestThumbnailMissing(t *testing.T) {
	svc, files, minio, _ := newDownloadFixture(t)
	f := seedStoredFile(t, files, minio, []byte("x"))

	_, err := svc.OpenThumbnail(context.Background(), 7, f.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}
