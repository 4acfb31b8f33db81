package model

import (
	"strings"
	"time"

	"ColdVault/internal/apperr"

	"gorm.io/gorm"
)

// File is the aggregate root for one stored file. A file is owned by one
// user, deduplicated globally by content hash, and moves through the
// UploadStatus machine. Location stays unassigned until the status reaches
// Completed; once Archived the status never changes again.
type File struct {
	ID uint64 `gorm:"primaryKey" json:"id,omitempty"`

	UserID uint64 `gorm:"column:user_id;not null;index" json:"user_id,omitempty"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	OriginalName string `gorm:"column:original_name;size:255;not null" json:"original_name,omitempty"`
	Name         string `gorm:"column:name;size:255;not null" json:"name,omitempty"`

	Hash string `gorm:"column:hash;size:80;uniqueIndex;not null" json:"hash,omitempty"`

	Size FileSize `gorm:"embedded" json:"size"`
	Type FileType `gorm:"embedded" json:"type"`

	Status UploadStatus `gorm:"embedded;embeddedPrefix:status_" json:"status"`

	Location  StorageLocation `gorm:"embedded;embeddedPrefix:storage_" json:"location"`
	Thumbnail StorageLocation `gorm:"embedded;embeddedPrefix:thumb_" json:"thumbnail"`

	UploadProgress int `gorm:"column:upload_progress;not null;default:0" json:"upload_progress"`

	CapturedAt  *time.Time `gorm:"column:captured_at" json:"captured_at,omitempty"`
	Description string     `gorm:"column:description;size:1000;not null;default:''" json:"description,omitempty"`
	GPS         string     `gorm:"column:gps;size:64;not null;default:''" json:"gps,omitempty"`
	Device      string     `gorm:"column:device;size:128;not null;default:''" json:"device,omitempty"`

	Tags []string `gorm:"column:tags;serializer:json" json:"tags,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	events []Event `gorm:"-"`
}

// TableName returns the database table name.
func (File) TableName() string {
	return "file"
}

// NewFile validates inputs and returns a Pending file with no location.
func NewFile(userID uint64, originalName, mime, hash string, sizeBytes int64, capturedAt *time.Time) (*File, error) {
	if userID == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "file owner missing")
	}
	name := sanitizeFileName(originalName)
	if name == "" {
		return nil, apperr.New(apperr.InvalidArgument, "file name missing")
	}
	if !strings.Contains(hash, ":") {
		return nil, apperr.New(apperr.InvalidArgument, "content hash %q is not namespaced", hash)
	}
	size, err := NewFileSize(sizeBytes)
	if err != nil {
		return nil, err
	}
	fileType, err := NewFileType(mime)
	if err != nil {
		return nil, err
	}
	f := &File{
		UserID:       userID,
		OriginalName: originalName,
		Name:         name,
		Hash:         hash,
		Size:         size,
		Type:         fileType,
		Status:       NewUploadStatus(),
		CapturedAt:   capturedAt,
	}
	f.record(FileCreated{UserID: userID, Hash: hash, OccurredAt: time.Now()})
	return f, nil
}

// BeginUpload moves the file from Pending to Uploading.
func (f *File) BeginUpload() error {
	if err := f.Status.TransitionTo(StateUploading); err != nil {
		return err
	}
	f.record(UploadStarted{FileID: f.ID, OccurredAt: time.Now()})
	return nil
}

// SetProgress updates upload progress while the file is Uploading.
func (f *File) SetProgress(progress int) {
	if f.Status.State != StateUploading {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	f.UploadProgress = progress
}

// CompleteUpload assigns the storage location and moves to Completed.
// The location invariant lives here: no other operation sets Location.
func (f *File) CompleteUpload(loc StorageLocation) error {
	if loc.IsZero() {
		return apperr.New(apperr.InvalidArgument, "cannot complete upload without a storage location")
	}
	if err := f.Status.TransitionTo(StateCompleted); err != nil {
		return err
	}
	f.Location = loc
	f.UploadProgress = 100
	f.record(UploadCompleted{FileID: f.ID, Location: loc, OccurredAt: time.Now()})
	return nil
}

// MarkFailed moves the file to Failed from any state that permits it.
func (f *File) MarkFailed() error {
	return f.Status.TransitionTo(StateFailed)
}

// Retry moves a Failed file back to Pending.
func (f *File) Retry() error {
	return f.Status.TransitionTo(StatePending)
}

// Archive marks a Completed file as living on a cold tier. Terminal.
func (f *File) Archive() error {
	if err := f.Status.TransitionTo(StateArchived); err != nil {
		return err
	}
	f.record(FileArchived{FileID: f.ID, OccurredAt: time.Now()})
	return nil
}

// SetThumbnail records the thumbnail location. Best-effort data; valid in
// any state that has a stored object.
func (f *File) SetThumbnail(loc StorageLocation) {
	f.Thumbnail = loc
}

// HasLocation reports whether bytes have been placed on a backend.
func (f *File) HasLocation() bool {
	return !f.Location.IsZero()
}

// AddTag adds a tag with set semantics.
func (f *File) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, t := range f.Tags {
		if t == tag {
			return
		}
	}
	f.Tags = append(f.Tags, tag)
}

func (f *File) record(e Event) {
	f.events = append(f.events, e)
}

// DrainEvents returns and clears pending domain events, stamping the
// persisted ID into events recorded before the insert assigned one.
func (f *File) DrainEvents() []Event {
	drained := make([]Event, 0, len(f.events))
	for _, e := range f.events {
		switch ev := e.(type) {
		case FileCreated:
			ev.FileID = f.ID
			drained = append(drained, ev)
		case UploadStarted:
			ev.FileID = f.ID
			drained = append(drained, ev)
		case UploadCompleted:
			ev.FileID = f.ID
			drained = append(drained, ev)
		case FileArchived:
			ev.FileID = f.ID
			drained = append(drained, ev)
		default:
			drained = append(drained, e)
		}
	}
	f.events = nil
	return drained
}

// sanitizeFileName strips path separators and traversal sequences.
func sanitizeFileName(name string) string {
	clean := strings.TrimSpace(name)
	clean = strings.ReplaceAll(clean, "\\", "/")
	clean = strings.ReplaceAll(clean, "/", "_")
	clean = strings.ReplaceAll(clean, "..", "_")
	if clean == "." {
		return ""
	}
	return clean
}
