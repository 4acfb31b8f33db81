package model

import (
	"time"

	"ColdVault/internal/apperr"
)

// UploadState is one point in a file's upload lifecycle.
type UploadState string

const (
	StatePending   UploadState = "pending"
	StateUploading UploadState = "uploading"
	StateCompleted UploadState = "completed"
	StateFailed    UploadState = "failed"
	StateArchived  UploadState = "archived"
)

// allowedTransitions is the full transition table. Archived has no entry:
// it is terminal and rejects everything, including re-entering itself.
// For every other state the self-transition is a permitted no-op.
var allowedTransitions = map[UploadState][]UploadState{
	StatePending:   {StateUploading, StateFailed},
	StateUploading: {StateCompleted, StateFailed},
	StateCompleted: {StateArchived, StateFailed},
	StateFailed:    {StatePending},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to UploadState) bool {
	if from == StateArchived {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UploadStatus carries the current state and when it last changed.
// It is embedded into File and mutated only through TransitionTo.
type UploadStatus struct {
	State     UploadState `gorm:"column:state;type:varchar(16);not null;index"`
	ChangedAt time.Time   `gorm:"column:changed_at;not null"`
}

// NewUploadStatus returns a Pending status stamped now.
func NewUploadStatus() UploadStatus {
	return UploadStatus{State: StatePending, ChangedAt: time.Now()}
}

// TransitionTo moves to the target state, stamping the change time.
// Illegal moves fail with an invalid-transition error naming both ends.
func (s *UploadStatus) TransitionTo(target UploadState) error {
	if !CanTransition(s.State, target) {
		return apperr.New(apperr.InvalidTransition,
			"invalid status transition %s -> %s", s.State, target)
	}
	s.State = target
	s.ChangedAt = time.Now()
	return nil
}
