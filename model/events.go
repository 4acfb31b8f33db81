package model

import "time"

// Event is a domain event recorded by the File aggregate during a mutating
// operation. Events accumulate on the aggregate and are drained by the
// caller after a successful commit; the aggregate itself never publishes.
type Event interface {
	EventName() string
}

type FileCreated struct {
	FileID     uint64
	UserID     uint64
	Hash       string
	OccurredAt time.Time
}

func (FileCreated) EventName() string { return "file.created" }

type UploadStarted struct {
	FileID     uint64
	OccurredAt time.Time
}

func (UploadStarted) EventName() string { return "file.upload_started" }

type UploadCompleted struct {
	FileID     uint64
	Location   StorageLocation
	OccurredAt time.Time
}

func (UploadCompleted) EventName() string { return "file.upload_completed" }

type FileArchived struct {
	FileID     uint64
	OccurredAt time.Time
}

func (FileArchived) EventName() string { return "file.archived" }
