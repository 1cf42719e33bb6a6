// Package catalog holds the ordered list of mirrored runs served to readers.
package catalog

import (
	"sync/atomic"

	"buildmirror/src/contracts"
	"buildmirror/src/logger"
)

// Source is anything that can list mirrored builds.
type Source interface {
	Builds() []contracts.RunMetadata
}

// Catalog is a snapshot that is replaced wholesale, never edited in place.
// Readers never block and always see one complete rescan result.
type Catalog struct {
	current atomic.Pointer[[]contracts.RunMetadata]
}

// New creates an empty catalog.
func New() *Catalog {
	c := &Catalog{}
	empty := []contracts.RunMetadata{}
	c.current.Store(&empty)
	return c
}

// Replace publishes runs as the new snapshot. The caller must not modify runs afterwards.
func (c *Catalog) Replace(runs []contracts.RunMetadata) {
	if runs == nil {
		runs = []contracts.RunMetadata{}
	}
	c.current.Store(&runs)
}

// Builds returns the current snapshot. The slice is shared; do not modify it.
func (c *Catalog) Builds() []contracts.RunMetadata {
	return *c.current.Load()
}

// Len returns the number of runs in the current snapshot.
func (c *Catalog) Len() int {
	return len(c.Builds())
}

// Scanner rescans a run store.
type Scanner interface {
	Rescan() ([]contracts.RunMetadata, error)
}

// Live rescans the store on every read.
// Used by processes that read the cache without running the poll loop.
type Live struct {
	scanner Scanner
	logger  logger.Logger
}

// NewLive creates a Live source over scanner.
func NewLive(scanner Scanner, log logger.Logger) *Live {
	return &Live{scanner: scanner, logger: logger.WithPrefix(log, "Catalog")}
}

// Builds rescans and returns the result, or an empty list if the rescan fails.
func (l *Live) Builds() []contracts.RunMetadata {
	runs, err := l.scanner.Rescan()
	if err != nil {
		l.logger.Error("Rescan failed: %v", err)
		return []contracts.RunMetadata{}
	}
	return runs
}

// Find returns the run with id from src.
func Find(src Source, id int64) (contracts.RunMetadata, bool) {
	for _, run := range src.Builds() {
		if run.ID == id {
			return run, true
		}
	}
	return contracts.RunMetadata{}, false
}

// FilterBranch returns the runs of src on branch, keeping order. An empty branch returns all runs.
func FilterBranch(runs []contracts.RunMetadata, branch string) []contracts.RunMetadata {
	if branch == "" {
		return runs
	}
	out := make([]contracts.RunMetadata, 0, len(runs))
	for _, run := range runs {
		if run.Branch == branch {
			out = append(out, run)
		}
	}
	return out
}
