package service

import (
	"bytes"
	"context"
	"testing"

	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadFixture struct {
	uploader *Uploader
	files    *memFileStore
	minio    *fakeProvider
	glacier  *fakeProvider
	thumbs   *fakeThumbnailer
	sink     *captureSink
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	minio := newFakeProvider("minio", true)
	glacier := newFakeProvider("glacier", false)
	registry := storage.NewRegistry(minio, glacier)
	sel, err := NewSelector(registry, map[string]string{
		TierStandard:    "minio",
		TierDeepArchive: "glacier",
	})
	require.NoError(t, err)

	files := newMemFileStore()
	thumbs := &fakeThumbnailer{}
	sink := &captureSink{}
	return &uploadFixture{
		uploader: NewUploader(files, SHA256Hasher{}, sel, registry, thumbs, sink),
		files:    files,
		minio:    minio,
		glacier:  glacier,
		thumbs:   thumbs,
		sink:     sink,
	}
}

func (fx *uploadFixture) upload(t *testing.T, name, mime string, data []byte) (*UploadResult, error) {
	t.Helper()
	return fx.uploader.Upload(context.Background(), UploadInput{
		UserID:   7,
		Reader:   bytes.NewReader(data),
		FileName: name,
		MimeType: mime,
		Size:     int64(len(data)),
	})
}

func TestUploadPhotoLandsOnColdTier(t *testing.T) {
	fx := newUploadFixture(t)

	result, err := fx.upload(t, "test.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, "glacier", result.Location.Provider)

	f, err := fx.files.GetByID(context.Background(), result.FileID)
	require.NoError(t, err)
	// cold tier has no instant access, so the file lands archived
	assert.Equal(t, model.StateArchived, f.Status.State)
	assert.Equal(t, 100, f.UploadProgress)
	assert.Equal(t, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", f.Hash)

	stored, ok := fx.glacier.object(result.Location.Path)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), stored)
}

func TestUploadMiscStaysInstantAccess(t *testing.T) {
	fx := newUploadFixture(t)

	result, err := fx.upload(t, "notes.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "minio", result.Location.Provider)

	f, err := fx.files.GetByID(context.Background(), result.FileID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, f.Status.State)
}

func TestUploadDuplicateSkipsBackend(t *testing.T) {
	fx := newUploadFixture(t)

	first, err := fx.upload(t, "test.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)
	uploadsAfterFirst := fx.glacier.uploadCount()

	second, err := fx.upload(t, "copy.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.FileID, second.FileID)
	assert.Equal(t, first.Location, second.Location)
	assert.Equal(t, uploadsAfterFirst, fx.glacier.uploadCount())
	assert.Equal(t, 1, fx.files.count())
}

func TestUploadBackendFailureLeavesNoRecord(t *testing.T) {
	fx := newUploadFixture(t)
	fx.glacier.uploadErr = errBackendDown

	_, err := fx.upload(t, "test.jpg", "image/jpeg", []byte("abc"))
	require.Error(t, err)
	assert.Equal(t, "Storage provider error", err.Error())
	assert.True(t, apperr.IsKind(err, apperr.BackendFailure))
	assert.Equal(t, 0, fx.files.count())
	assert.Equal(t, 0, fx.thumbs.attemptCount())
}

func TestUploadThumbnailBestEffort(t *testing.T) {
	fx := newUploadFixture(t)

	result, err := fx.upload(t, "test.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 1, fx.thumbs.attemptCount())
	assert.Equal(t, "minio", result.Thumbnail.Provider)

	f, err := fx.files.GetByID(context.Background(), result.FileID)
	require.NoError(t, err)
	assert.Equal(t, result.Thumbnail, f.Thumbnail)
	_, ok := fx.minio.object(result.Thumbnail.Path)
	assert.True(t, ok)
}

func TestUploadThumbnailFailureDoesNotFailUpload(t *testing.T) {
	fx := newUploadFixture(t)
	fx.thumbs.fail = errBackendDown

	result, err := fx.upload(t, "test.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 1, fx.thumbs.attemptCount())
	assert.True(t, result.Thumbnail.IsZero())
}

func TestUploadSniffsMissingMime(t *testing.T) {
	fx := newUploadFixture(t)
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

	result, err := fx.upload(t, "camera.bin", "", jpeg)
	require.NoError(t, err)

	f, err := fx.files.GetByID(context.Background(), result.FileID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.Type.Mime)
	assert.Equal(t, model.CategoryPhoto, f.Type.Category)
}

func TestUploadDispatchesLifecycleEvents(t *testing.T) {
	fx := newUploadFixture(t)

	_, err := fx.upload(t, "test.jpg", "image/jpeg", []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"file.created",
		"file.upload_started",
		"file.upload_completed",
		"file.archived",
	}, fx.sink.names())
}

func TestUploadRejectsNilReader(t *testing.T) {
	fx := newUploadFixture(t)
	_, err := fx.uploader.Upload(context.Background(), UploadInput{UserID: 7, FileName: "x.jpg"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}
