package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"buildmirror/src/contracts"
)

// MemoryIndex is an in-memory implementation of Index.
// Used when no database is configured and in tests.
type MemoryIndex struct {
	mu   sync.RWMutex
	runs map[int64]IndexedRun
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{runs: make(map[int64]IndexedRun)}
}

// Record stores the run unless it is already present.
func (s *MemoryIndex) Record(ctx context.Context, event contracts.RunMaterializedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[event.Run.ID]; exists {
		return nil
	}
	s.runs[event.Run.ID] = indexedFromEvent(event)
	return nil
}

// ListRuns returns runs ordered by run number descending, then id descending.
func (s *MemoryIndex) ListRuns(ctx context.Context, limit int) ([]IndexedRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]IndexedRun, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Run, result[j].Run
		if a.RunNumber != b.RunNumber {
			return a.RunNumber > b.RunNumber
		}
		return a.ID > b.ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetRun returns a copy of the recorded run.
func (s *MemoryIndex) GetRun(ctx context.Context, id int64) (*IndexedRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return &run, nil
}

// Close is a no-op for the memory index.
func (s *MemoryIndex) Close() error {
	return nil
}
