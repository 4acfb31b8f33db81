package service

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"ColdVault/config"
	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/context"
)

// EventSink receives domain events drained from an aggregate after its
// state has been committed.
type EventSink interface {
	Dispatch(ctx context.Context, events []model.Event)
}

// LogEventSink writes events to the process log.
type LogEventSink struct{}

func (LogEventSink) Dispatch(ctx context.Context, events []model.Event) {
	for _, e := range events {
		log.Printf("event %s: %+v", e.EventName(), e)
	}
}

// UploadInput is one single-shot upload request.
type UploadInput struct {
	UserID     uint64
	Reader     io.ReadSeeker
	FileName   string
	MimeType   string
	Size       int64
	CapturedAt *time.Time
	Preference string // optional provider-name preference
}

// UploadResult reports where an upload ended up. Duplicate means the
// bytes already existed: FileID references the canonical file and no new
// record or backend write happened.
type UploadResult struct {
	FileID    uint64                `json:"file_id"`
	Duplicate bool                  `json:"duplicate"`
	Location  model.StorageLocation `json:"location"`
	Thumbnail model.StorageLocation `json:"thumbnail"`
}

// Uploader coordinates a single-shot upload: hash, dedup check, provider
// selection, backend write, persist, best-effort thumbnail.
type Uploader struct {
	files    FileStore
	hasher   Hasher
	selector *Selector
	registry *storage.Registry
	thumbs   Thumbnailer
	events   EventSink
}

// NewUploader wires the orchestrator's collaborators.
func NewUploader(files FileStore, hasher Hasher, selector *Selector, registry *storage.Registry, thumbs Thumbnailer, events EventSink) *Uploader {
	if events == nil {
		events = LogEventSink{}
	}
	return &Uploader{
		files:    files,
		hasher:   hasher,
		selector: selector,
		registry: registry,
		thumbs:   thumbs,
		events:   events,
	}
}

// BuildObjectPath places a file's bytes under its owner and hash. The
// hash namespace separator becomes a path segment so keys stay portable
// across backends.
func BuildObjectPath(userID uint64, hash string) string {
	return fmt.Sprintf("files/%d/%s", userID, strings.ReplaceAll(hash, ":", "/"))
}

// Upload runs the full single-shot pipeline. Failure before the final
// persist leaves no metadata behind; a persist failure after a successful
// backend write is surfaced as a failure and may orphan remote bytes.
func (u *Uploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Reader == nil {
		return nil, apperr.New(apperr.InvalidArgument, "upload stream missing")
	}
	if in.Size <= 0 {
		size, err := in.Reader.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, apperr.New(apperr.InvalidArgument, "upload size unknown")
		}
		in.Size = size
	}
	mime, err := u.resolveMime(in)
	if err != nil {
		return nil, err
	}
	if _, err := in.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind stream: %w", err)
	}

	hash, err := u.hasher.Hash(ctx, in.Reader)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	if existing, err := u.files.GetByHash(ctx, hash); err == nil {
		return &UploadResult{
			FileID:    existing.ID,
			Duplicate: true,
			Location:  existing.Location,
			Thumbnail: existing.Thumbnail,
		}, nil
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}

	f, err := model.NewFile(in.UserID, in.FileName, mime, hash, in.Size, in.CapturedAt)
	if err != nil {
		return nil, err
	}
	provider, err := u.selector.Select(f.Type.Category, in.Size, in.Preference)
	if err != nil {
		return nil, err
	}

	if _, err := in.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind stream: %w", err)
	}
	loc, err := provider.Upload(ctx, BuildObjectPath(in.UserID, hash), in.Reader, in.Size, storage.PutOptions{ContentType: mime})
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendFailure, "", err)
	}

	if err := f.BeginUpload(); err != nil {
		return nil, err
	}
	if err := f.CompleteUpload(loc); err != nil {
		return nil, err
	}
	// bytes on a tier without instant access are archived on arrival
	if !provider.Capabilities().InstantAccess {
		if err := f.Archive(); err != nil {
			return nil, err
		}
	}

	if err := u.files.Create(ctx, f); err != nil {
		if err == ErrHashExists {
			// lost the dedup race: another identical upload committed
			// first, so fold into its record and drop our copy
			if winner, gerr := u.files.GetByHash(ctx, hash); gerr == nil {
				_ = provider.Delete(ctx, loc)
				return &UploadResult{
					FileID:    winner.ID,
					Duplicate: true,
					Location:  winner.Location,
					Thumbnail: winner.Thumbnail,
				}, nil
			}
		}
		log.Printf("file record persist failed, bytes orphaned at %s/%s: %v", loc.Provider, loc.Path, err)
		return nil, apperr.Wrap(apperr.PersistenceFailure, "save file record", err)
	}
	u.events.Dispatch(ctx, f.DrainEvents())

	result := &UploadResult{FileID: f.ID, Location: loc}
	if thumb, ok := u.tryThumbnail(ctx, f, in.Reader, mime); ok {
		result.Thumbnail = thumb
	}
	return result, nil
}

func (u *Uploader) resolveMime(in UploadInput) (string, error) {
	mime := strings.TrimSpace(in.MimeType)
	if mime != "" && mime != "application/octet-stream" {
		return mime, nil
	}
	if _, err := in.Reader.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind stream: %w", err)
	}
	mt, err := mimetype.DetectReader(in.Reader)
	if err != nil {
		if mime == "" {
			return "", apperr.New(apperr.InvalidArgument, "mime type missing and not detectable")
		}
		return mime, nil
	}
	return mt.String(), nil
}

// tryThumbnail derives and stores a preview on the fast-access tier.
// Every failure is logged and swallowed: the upload already succeeded.
func (u *Uploader) tryThumbnail(ctx context.Context, f *model.File, r io.ReadSeeker, mime string) (model.StorageLocation, bool) {
	if u.thumbs == nil || !u.thumbs.Supports(mime) {
		return model.StorageLocation{}, false
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		log.Printf("thumbnail skipped for file %d: %v", f.ID, err)
		return model.StorageLocation{}, false
	}
	thumb, size, err := u.thumbs.Generate(ctx, r,
		config.AppConfig.ThumbnailMaxEdge,
		config.AppConfig.ThumbnailMaxEdge,
		config.AppConfig.ThumbnailQuality,
	)
	if err != nil {
		log.Printf("thumbnail generation failed for file %d: %v", f.ID, err)
		return model.StorageLocation{}, false
	}
	provider, ok := u.thumbnailProvider()
	if !ok {
		log.Printf("thumbnail skipped for file %d: no instant-access provider", f.ID)
		return model.StorageLocation{}, false
	}
	path := fmt.Sprintf("thumbs/%d/%s.jpg", f.UserID, strings.ReplaceAll(f.Hash, ":", "/"))
	loc, err := provider.Upload(ctx, path, thumb, size, storage.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		log.Printf("thumbnail upload failed for file %d: %v", f.ID, err)
		return model.StorageLocation{}, false
	}
	f.SetThumbnail(loc)
	if err := u.files.Update(ctx, f); err != nil {
		log.Printf("thumbnail location persist failed for file %d: %v", f.ID, err)
		return model.StorageLocation{}, false
	}
	return loc, true
}

// thumbnailProvider resolves the configured thumbnail tier, falling back
// to the first instant-access provider.
func (u *Uploader) thumbnailProvider() (storage.Provider, bool) {
	if p, ok := u.registry.Get(config.AppConfig.ThumbnailProvider); ok {
		return p, true
	}
	for _, p := range u.registry.All() {
		if p.Capabilities().InstantAccess {
			return p, true
		}
	}
	return nil, false
}
