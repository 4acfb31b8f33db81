package model

import (
	"testing"
	"time"

	"ColdVault/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTable(t *testing.T) {
	states := []UploadState{StatePending, StateUploading, StateCompleted, StateFailed, StateArchived}
	allowed := map[UploadState]map[UploadState]bool{
		StatePending:   {StateUploading: true, StateFailed: true},
		StateUploading: {StateCompleted: true, StateFailed: true},
		StateCompleted: {StateArchived: true, StateFailed: true},
		StateFailed:    {StatePending: true},
		StateArchived:  {},
	}
	for _, from := range states {
		for _, to := range states {
			want := allowed[from][to]
			// self-transition is a no-op everywhere except Archived
			if from == to && from != StateArchived {
				want = true
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestArchivedRejectsEverything(t *testing.T) {
	for _, to := range []UploadState{StatePending, StateUploading, StateCompleted, StateFailed, StateArchived} {
		s := UploadStatus{State: StateArchived, ChangedAt: time.Now()}
		err := s.TransitionTo(to)
		require.Error(t, err, "archived -> %s", to)
		assert.True(t, apperr.IsKind(err, apperr.InvalidTransition))
		assert.Equal(t, StateArchived, s.State)
	}
}

func TestTransitionToStampsTime(t *testing.T) {
	s := NewUploadStatus()
	require.Equal(t, StatePending, s.State)
	before := s.ChangedAt

	require.NoError(t, s.TransitionTo(StateUploading))
	assert.Equal(t, StateUploading, s.State)
	assert.False(t, s.ChangedAt.Before(before))
}

func TestTransitionToInvalidNamesBothEnds(t *testing.T) {
	s := UploadStatus{State: StatePending}
	err := s.TransitionTo(StateCompleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending -> completed")
	assert.Equal(t, StatePending, s.State)
}

func TestFailedRetriesToPending(t *testing.T) {
	s := UploadStatus{State: StateFailed}
	require.NoError(t, s.TransitionTo(StatePending))
	require.NoError(t, s.TransitionTo(StateUploading))
	require.NoError(t, s.TransitionTo(StateCompleted))
	require.NoError(t, s.TransitionTo(StateArchived))
}
