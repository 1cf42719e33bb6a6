// Package runstore keeps downloaded CI artifacts on disk, one directory per run id.
//
// Layout:
//
//	<root>/<run id>/<artifact name>
//	<root>/<run id>/metadata.json
//
// A run is materialized once both files exist. metadata.json is always written
// last, so its presence is the completeness signal; directories holding only
// the artifact, or nothing at all, are leftovers of interrupted downloads and
// are ignored by Rescan.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"buildmirror/src/contracts"
	"buildmirror/src/logger"
)

// MetadataFileName is the fixed name of the per-run metadata record.
const MetadataFileName = "metadata.json"

// Store is a directory-backed cache of mirrored runs.
type Store struct {
	root         string
	artifactName string
	logger       logger.Logger
}

// New creates a store rooted at root holding artifacts called artifactName.
// It does not touch the filesystem; call Init before first use.
func New(root, artifactName string, log logger.Logger) *Store {
	return &Store{
		root:         root,
		artifactName: artifactName,
		logger:       logger.WithPrefix(log, "RunStore"),
	}
}

// Init creates the root directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: s.root, Err: err}
	}
	return nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// RunDir returns the directory for a run id.
func (s *Store) RunDir(runID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(runID, 10))
}

// ArtifactPath returns the artifact location for a run id, relative to the root.
func (s *Store) ArtifactPath(runID int64) string {
	return filepath.ToSlash(filepath.Join(strconv.FormatInt(runID, 10), s.artifactName))
}

// IsMaterialized reports whether both the metadata record and the artifact exist.
func (s *Store) IsMaterialized(runID int64) bool {
	return s.isMaterializedDir(s.RunDir(runID))
}

func (s *Store) isMaterializedDir(dir string) bool {
	return fileExists(filepath.Join(dir, MetadataFileName)) &&
		fileExists(filepath.Join(dir, s.artifactName))
}

// EnsureDir creates the run directory and any missing parents.
func (s *Store) EnsureDir(runID int64) error {
	dir := s.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return nil
}

// WriteArtifact stores data as name inside the run directory.
func (s *Store) WriteArtifact(runID int64, name string, data []byte) error {
	return writeFileAtomic(filepath.Join(s.RunDir(runID), name), data)
}

// WriteMetadata stores meta as metadata.json inside the run directory.
func (s *Store) WriteMetadata(runID int64, meta contracts.RunMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for run %d: %w", runID, err)
	}
	return writeFileAtomic(filepath.Join(s.RunDir(runID), MetadataFileName), data)
}

// ReadMetadata loads the metadata record of one run.
func (s *Store) ReadMetadata(runID int64) (contracts.RunMetadata, error) {
	return readMetadata(filepath.Join(s.RunDir(runID), MetadataFileName))
}

// Rescan lists every materialized run, ordered by run number descending.
// Runs whose metadata cannot be read or parsed are logged and left out.
// The only error returned is failure to list the root itself.
func (s *Store) Rescan() ([]contracts.RunMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Op: "list", Path: s.root, Err: err}
	}

	runs := make([]contracts.RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		if !s.isMaterializedDir(dir) {
			s.logger.Debug("Skipping incomplete run directory %s", entry.Name())
			continue
		}

		meta, err := readMetadata(filepath.Join(dir, MetadataFileName))
		if err != nil {
			s.logger.Error("Skipping run %s: %v", entry.Name(), err)
			continue
		}
		runs = append(runs, meta)
	}

	SortByRunNumber(runs)
	return runs, nil
}

// SortByRunNumber orders runs newest first. Equal run numbers fall back to id.
func SortByRunNumber(runs []contracts.RunMetadata) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].RunNumber != runs[j].RunNumber {
			return runs[i].RunNumber > runs[j].RunNumber
		}
		return runs[i].ID > runs[j].ID
	})
}

func readMetadata(path string) (contracts.RunMetadata, error) {
	var meta contracts.RunMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, &StorageError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, &ParseError{Path: path, Err: err}
	}
	return meta, nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path, so readers see either nothing or the complete file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
