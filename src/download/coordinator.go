// Package download fetches a run's artifact from the CI provider and commits it
// to the run store, at most once per run id.
package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buildmirror/src/archive"
	"buildmirror/src/contracts"
	"buildmirror/src/githubactions"
	"buildmirror/src/logger"
)

var (
	// ErrArtifactMissing means the run's artifact listing has no artifact with the configured name.
	ErrArtifactMissing = errors.New("artifact not found in run listing")
	// ErrExtractionFailed means the archive was downloaded but the named entry could not be extracted.
	ErrExtractionFailed = errors.New("artifact extraction failed")
)

// Outcome is the result of one Download call.
type Outcome int

const (
	// OutcomeDownloaded means artifact and metadata were written.
	OutcomeDownloaded Outcome = iota
	// OutcomeInFlight means another call holds the run; nothing was done.
	OutcomeInFlight
	// OutcomeSkipped means the run was already materialized; nothing was fetched.
	OutcomeSkipped
	// OutcomeArtifactMissing means the listing had no matching artifact. Retried next cycle.
	OutcomeArtifactMissing
	// OutcomeFailed means a fetch, extract or write step failed. Retried next cycle.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeInFlight:
		return "in-flight"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeArtifactMissing:
		return "artifact-missing"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Upstream supplies artifact listings and archive bytes for the mirrored repository.
type Upstream interface {
	ListArtifacts(ctx context.Context, runID int64) ([]githubactions.Artifact, error)
	FetchArtifactArchive(ctx context.Context, artifactID int64) ([]byte, error)
}

// RunStore is the subset of the run store the coordinator writes through.
type RunStore interface {
	IsMaterialized(runID int64) bool
	EnsureDir(runID int64) error
	WriteArtifact(runID int64, name string, data []byte) error
	WriteMetadata(runID int64, meta contracts.RunMetadata) error
	ArtifactPath(runID int64) string
}

// Recorder is told about every run the coordinator commits.
// Recorder errors are logged and never affect the committed run.
type Recorder interface {
	Record(ctx context.Context, event contracts.RunMaterializedEvent) error
}

// Coordinator downloads one run at a time per run id.
type Coordinator struct {
	upstream     Upstream
	store        RunStore
	locks        *LockSet
	artifactName string
	owner        string
	repo         string
	recorders    []Recorder
	logger       logger.Logger
}

// Options configures a Coordinator.
type Options struct {
	// ArtifactName is the artifact to look for in the listing and the entry to extract from its archive.
	ArtifactName string
	// Owner and Repo are copied into published events.
	Owner string
	Repo  string
	// Recorders are notified after each successful commit.
	Recorders []Recorder
}

// NewCoordinator creates a coordinator. locks must be shared by every caller
// that may download the same runs concurrently.
func NewCoordinator(upstream Upstream, store RunStore, locks *LockSet, opts Options, log logger.Logger) *Coordinator {
	return &Coordinator{
		upstream:     upstream,
		store:        store,
		locks:        locks,
		artifactName: opts.ArtifactName,
		owner:        opts.Owner,
		repo:         opts.Repo,
		recorders:    opts.Recorders,
		logger:       logger.WithPrefix(log, "Downloader"),
	}
}

// Download mirrors the artifact of one run. It never returns an error: failures
// are logged and reported through the Outcome, and the run stays retryable.
func (c *Coordinator) Download(ctx context.Context, meta contracts.RunMetadata) (outcome Outcome) {
	runID := meta.ID
	if !c.locks.TryLock(runID) {
		c.logger.Debug("Run %d already downloading", runID)
		return OutcomeInFlight
	}
	defer c.locks.Unlock(runID)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Run %d panicked: %v", runID, r)
			outcome = OutcomeFailed
		}
	}()

	if c.store.IsMaterialized(runID) {
		c.logger.Debug("Run %d already downloaded", runID)
		return OutcomeSkipped
	}

	c.logger.Info("Downloading run %d (#%d, %s)", runID, meta.RunNumber, meta.Branch)
	size, err := c.fetchAndCommit(ctx, meta)
	if err != nil {
		if errors.Is(err, ErrArtifactMissing) {
			c.logger.Error("Run %d: %v", runID, err)
			return OutcomeArtifactMissing
		}
		c.logger.Error("Run %d failed: %v", runID, err)
		return OutcomeFailed
	}

	c.logger.Info("Run %d stored (%d bytes)", runID, size)
	c.notify(ctx, meta, size)
	return OutcomeDownloaded
}

// fetchAndCommit performs the network and disk steps. Metadata is written
// last so it only exists for runs whose artifact is complete.
func (c *Coordinator) fetchAndCommit(ctx context.Context, meta contracts.RunMetadata) (int64, error) {
	runID := meta.ID

	if err := c.store.EnsureDir(runID); err != nil {
		return 0, err
	}

	artifacts, err := c.upstream.ListArtifacts(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts: %w", err)
	}

	artifact, ok := githubactions.FindArtifact(artifacts, c.artifactName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrArtifactMissing, c.artifactName)
	}

	archiveData, err := c.upstream.FetchArtifactArchive(ctx, artifact.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to download artifact %d: %w", artifact.ID, err)
	}

	content, err := archive.ExtractFile(archiveData, c.artifactName)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	if err := c.store.WriteArtifact(runID, c.artifactName, content); err != nil {
		return 0, err
	}
	if err := c.store.WriteMetadata(runID, meta); err != nil {
		return 0, err
	}

	return int64(len(content)), nil
}

func (c *Coordinator) notify(ctx context.Context, meta contracts.RunMetadata, size int64) {
	if len(c.recorders) == 0 {
		return
	}

	event := contracts.RunMaterializedEvent{
		Run:          meta,
		Owner:        c.owner,
		Repo:         c.repo,
		ArtifactName: c.artifactName,
		ArtifactPath: c.store.ArtifactPath(meta.ID),
		SizeBytes:    size,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	for _, r := range c.recorders {
		if err := r.Record(ctx, event); err != nil {
			c.logger.Error("Failed to record run %d: %v", meta.ID, err)
		}
	}
}
