package runstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"buildmirror/src/contracts"
	"buildmirror/src/logger"
)

const testArtifact = "app-release.apk"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "cache"), testArtifact, logger.NewSilentLogger())
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

func materialize(t *testing.T, s *Store, meta contracts.RunMetadata) {
	t.Helper()
	if err := s.EnsureDir(meta.ID); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if err := s.WriteArtifact(meta.ID, testArtifact, []byte("apk")); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	if err := s.WriteMetadata(meta.ID, meta); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}
}

func TestIsMaterialized(t *testing.T) {
	s := newTestStore(t)

	if s.IsMaterialized(1) {
		t.Error("missing directory should not be materialized")
	}

	if err := s.EnsureDir(1); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if s.IsMaterialized(1) {
		t.Error("empty directory should not be materialized")
	}

	if err := s.WriteArtifact(1, testArtifact, []byte("apk")); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	if s.IsMaterialized(1) {
		t.Error("artifact without metadata should not be materialized")
	}

	if err := s.WriteMetadata(1, contracts.RunMetadata{ID: 1, RunNumber: 1}); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}
	if !s.IsMaterialized(1) {
		t.Error("artifact plus metadata should be materialized")
	}
}

func TestIsMaterialized_MetadataOnly(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureDir(2); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if err := s.WriteMetadata(2, contracts.RunMetadata{ID: 2}); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}
	if s.IsMaterialized(2) {
		t.Error("metadata without artifact should not be materialized")
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 2; i++ {
		if err := s.EnsureDir(42); err != nil {
			t.Fatalf("EnsureDir call %d failed: %v", i+1, err)
		}
	}
}

func TestWriteMetadata_Shape(t *testing.T) {
	s := newTestStore(t)
	meta := contracts.RunMetadata{
		ID:        123,
		Branch:    "main",
		Commit:    contracts.Commit{ID: "abc123", Message: "fix things"},
		RunNumber: 7,
	}
	materialize(t, s, meta)

	data, err := os.ReadFile(filepath.Join(s.RunDir(123), MetadataFileName))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	want := `{"id":123,"branch":"main","commit":{"id":"abc123","message":"fix things"},"runNumber":7}`
	if string(data) != want {
		t.Errorf("metadata.json = %s, want %s", data, want)
	}

	got, err := s.ReadMetadata(123)
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if got != meta {
		t.Errorf("ReadMetadata() = %+v, want %+v", got, meta)
	}
}

func TestWriteArtifact_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	materialize(t, s, contracts.RunMetadata{ID: 5, RunNumber: 5})

	entries, err := os.ReadDir(s.RunDir(5))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 2 {
		t.Errorf("expected exactly 2 files, got %d", len(entries))
	}
}

func TestRescan_OrdersByRunNumberDescending(t *testing.T) {
	s := newTestStore(t)
	for i, n := range []int{3, 1, 4, 2} {
		materialize(t, s, contracts.RunMetadata{ID: int64(100 + i), RunNumber: n})
	}

	runs, err := s.Rescan()
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}

	var got []int
	for _, r := range runs {
		got = append(got, r.RunNumber)
	}
	want := []int{4, 3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("Rescan() returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rescan() order = %v, want %v", got, want)
		}
	}
}

func TestRescan_SkipsCorruptAndPartialRuns(t *testing.T) {
	s := newTestStore(t)
	materialize(t, s, contracts.RunMetadata{ID: 1, RunNumber: 1})
	materialize(t, s, contracts.RunMetadata{ID: 3, RunNumber: 3})

	// Corrupt metadata next to a valid artifact.
	if err := s.EnsureDir(2); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if err := s.WriteArtifact(2, testArtifact, []byte("apk")); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.RunDir(2), MetadataFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Interrupted downloads: empty directory and artifact-only directory.
	if err := s.EnsureDir(4); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if err := s.EnsureDir(5); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if err := s.WriteArtifact(5, testArtifact, []byte("apk")); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}

	// Stray file at the root.
	if err := os.WriteFile(filepath.Join(s.Root(), "README"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	runs, err := s.Rescan()
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Rescan() returned %d runs, want 2: %+v", len(runs), runs)
	}
	if runs[0].ID != 3 || runs[1].ID != 1 {
		t.Errorf("Rescan() ids = [%d %d], want [3 1]", runs[0].ID, runs[1].ID)
	}
}

func TestRescan_MissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), testArtifact, logger.NewSilentLogger())

	_, err := s.Rescan()
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Rescan() error = %v, want *StorageError", err)
	}
	if storageErr.Op != "list" {
		t.Errorf("StorageError.Op = %q, want list", storageErr.Op)
	}
}

func TestReadMetadata_ParseError(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureDir(9); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.RunDir(9), MetadataFileName), []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := s.ReadMetadata(9)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("ReadMetadata() error = %v, want *ParseError", err)
	}
}

func TestSortByRunNumber_TieBreaksOnID(t *testing.T) {
	runs := []contracts.RunMetadata{
		{ID: 10, RunNumber: 5},
		{ID: 30, RunNumber: 5},
		{ID: 20, RunNumber: 6},
	}
	SortByRunNumber(runs)

	want := []int64{20, 30, 10}
	for i, id := range want {
		if runs[i].ID != id {
			t.Fatalf("order = %+v, want ids %v", runs, want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	s := New("/srv/cache", testArtifact, logger.NewSilentLogger())
	if got := s.ArtifactPath(77); got != "77/app-release.apk" {
		t.Errorf("ArtifactPath() = %q, want 77/app-release.apk", got)
	}
}
