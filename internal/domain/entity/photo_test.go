package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

func TestPhotoStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    PhotoStatus
		to      PhotoStatus
		allowed bool
	}{
		{"pending to analyzing", StatusPending, StatusAnalyzing, true},
		{"analyzing to completed", StatusAnalyzing, StatusCompleted, true},
		{"analyzing to failed", StatusAnalyzing, StatusFailed, true},
		{"completed to pending", StatusCompleted, StatusPending, true},
		{"failed to pending", StatusFailed, StatusPending, true},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"pending to failed", StatusPending, StatusFailed, false},
		{"pending to pending", StatusPending, StatusPending, false},
		{"analyzing to pending", StatusAnalyzing, StatusPending, false},
		{"analyzing to analyzing", StatusAnalyzing, StatusAnalyzing, false},
		{"completed to analyzing", StatusCompleted, StatusAnalyzing, false},
		{"completed to failed", StatusCompleted, StatusFailed, false},
		{"failed to completed", StatusFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTransitionSources(t *testing.T) {
	// TransitionSources and CanTransition describe the same machine from
	// opposite directions; they must agree for every status pair.
	all := []PhotoStatus{StatusPending, StatusAnalyzing, StatusCompleted, StatusFailed}

	for _, target := range all {
		sources := TransitionSources(target)
		for _, from := range all {
			expected := from.CanTransition(target)
			found := false
			for _, s := range sources {
				if s == from {
					found = true
				}
			}
			assert.Equal(t, expected, found, "from %s to %s", from, target)
		}
	}
}

func TestPhotoStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusAnalyzing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestNewPhoto(t *testing.T) {
	handle := valueobject.NewBlobHandle("photos/1/x.jpg")
	photo := NewPhoto(1, handle, "x.jpg", "image/jpeg", 128)

	assert.Equal(t, StatusPending, photo.Status)
	assert.Equal(t, handle, photo.BlobRef)
	assert.Equal(t, int64(128), photo.SizeBytes)
	assert.False(t, photo.CreatedAt.IsZero())
	assert.Nil(t, photo.Analysis)
}
