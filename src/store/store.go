// Package store keeps a queryable index of mirrored runs next to the file cache.
package store

import (
	"context"
	"errors"
	"time"

	"buildmirror/src/contracts"
)

// ErrRunNotFound is returned by GetRun for ids the index has never recorded.
var ErrRunNotFound = errors.New("run not found in index")

// IndexedRun is one mirrored run as recorded in the index.
type IndexedRun struct {
	Run          contracts.RunMetadata `json:"run"`
	ArtifactName string                `json:"artifact_name"`
	ArtifactPath string                `json:"artifact_path"`
	SizeBytes    int64                 `json:"size_bytes"`
	MirroredAt   time.Time             `json:"mirrored_at"`
}

// Index defines the interface for recording and querying mirrored runs.
// Record satisfies download.Recorder so an Index can be attached to the coordinator.
type Index interface {
	// Record stores a newly mirrored run. Recording the same run twice is a no-op.
	Record(ctx context.Context, event contracts.RunMaterializedEvent) error

	// ListRuns returns up to limit runs, highest run number first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]IndexedRun, error)

	// GetRun returns one run by upstream id.
	GetRun(ctx context.Context, id int64) (*IndexedRun, error)

	// Close closes the index connection
	Close() error
}

func indexedFromEvent(event contracts.RunMaterializedEvent) IndexedRun {
	mirroredAt, err := time.Parse(time.RFC3339, event.Timestamp)
	if err != nil {
		mirroredAt = time.Now().UTC()
	}
	return IndexedRun{
		Run:          event.Run,
		ArtifactName: event.ArtifactName,
		ArtifactPath: event.ArtifactPath,
		SizeBytes:    event.SizeBytes,
		MirroredAt:   mirroredAt,
	}
}
