package entity

import (
	"time"

	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

type PhotoStatus string

const (
	StatusPending   PhotoStatus = "pending"
	StatusAnalyzing PhotoStatus = "analyzing"
	StatusCompleted PhotoStatus = "completed"
	StatusFailed    PhotoStatus = "failed"
)

func (s PhotoStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAnalyzing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

func (s PhotoStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to target is a legal
// lifecycle transition. Terminal states may only re-enter pending,
// which is how re-analysis restarts the pipeline.
func (s PhotoStatus) CanTransition(target PhotoStatus) bool {
	switch target {
	case StatusAnalyzing:
		return s == StatusPending
	case StatusCompleted, StatusFailed:
		return s == StatusAnalyzing
	case StatusPending:
		return s.IsTerminal()
	}
	return false
}

// TransitionSources returns the statuses a photo may currently be in
// for a transition into target to be legal.
func TransitionSources(target PhotoStatus) []PhotoStatus {
	switch target {
	case StatusAnalyzing:
		return []PhotoStatus{StatusPending}
	case StatusCompleted, StatusFailed:
		return []PhotoStatus{StatusAnalyzing}
	case StatusPending:
		return []PhotoStatus{StatusCompleted, StatusFailed}
	}
	return nil
}

type Photo struct {
	ID              int64
	OwnerID         int64
	BlobRef         valueobject.BlobHandle
	OriginalName    string
	MimeType        string
	SizeBytes       int64
	Width           int
	Height          int
	Format          string
	CaptureLocation *valueobject.Location
	Status          PhotoStatus
	Analysis        *CropAnalysis
	ErrorReason     string
	CreatedAt       time.Time
}

func NewPhoto(ownerID int64, blobRef valueobject.BlobHandle, originalName, mimeType string, sizeBytes int64) *Photo {
	return &Photo{
		OwnerID:      ownerID,
		BlobRef:      blobRef,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    sizeBytes,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}
