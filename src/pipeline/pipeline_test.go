package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"buildmirror/src/broker"
	"buildmirror/src/config"
	"buildmirror/src/contracts"
	"buildmirror/src/githubactions"
	"buildmirror/src/logger"
	"buildmirror/src/runstore"
	"buildmirror/src/store"
)

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name     string
		config   *config.Config
		expected Mode
	}{
		{"nil brokers", &config.Config{}, LocalMode},
		{"empty brokers", &config.Config{RedpandaBrokers: []string{}}, LocalMode},
		{"database alone stays local", &config.Config{DatabaseURL: "postgres://localhost/db"}, LocalMode},
		{"with brokers", &config.Config{RedpandaBrokers: []string{"localhost:19092"}}, DistributedMode},
		{"multiple brokers", &config.Config{RedpandaBrokers: []string{"broker1:9092", "broker2:9092"}}, DistributedMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if mode := DetectMode(tt.config); mode != tt.expected {
				t.Errorf("Expected mode %v, got %v", tt.expected, mode)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	if LocalMode.String() != "local" || DistributedMode.String() != "distributed" {
		t.Errorf("unexpected names %q %q", LocalMode, DistributedMode)
	}
}

func TestOpenSinks_Local(t *testing.T) {
	sinks, err := OpenSinks(context.Background(), &config.Config{}, logger.NewSilentLogger())
	if err != nil {
		t.Fatalf("OpenSinks failed: %v", err)
	}
	defer sinks.Close()

	if _, ok := sinks.Broker.(*broker.InMemoryBroker); !ok {
		t.Errorf("Broker = %T, want *broker.InMemoryBroker", sinks.Broker)
	}
	if _, ok := sinks.Index.(*store.MemoryIndex); !ok {
		t.Errorf("Index = %T, want *store.MemoryIndex", sinks.Index)
	}
	if n := len(sinks.Recorders()); n != 2 {
		t.Errorf("got %d recorders, want 2", n)
	}
}

// fakeGitHub serves the three endpoints the mirror uses for owner/repo.
func fakeGitHub(t *testing.T, runs []githubactions.WorkflowRun, archive []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/skyline-emu/skyline/actions/runs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(githubactions.WorkflowRunsResponse{TotalCount: len(runs), WorkflowRuns: runs})
	})
	for _, run := range runs {
		runID := run.ID
		mux.HandleFunc(fmt.Sprintf("/repos/skyline-emu/skyline/actions/runs/%d/artifacts", runID), func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(githubactions.ArtifactsResponse{
				TotalCount: 1,
				Artifacts:  []githubactions.Artifact{{ID: runID + 1000, Name: "app-release.apk"}},
			})
		})
		mux.HandleFunc(fmt.Sprintf("/repos/skyline-emu/skyline/actions/artifacts/%d/zip", runID+1000), func(w http.ResponseWriter, r *http.Request) {
			w.Write(archive)
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func apkArchive(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("app-release.apk")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(content))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func workflowRun(id int64, number int, owner string) githubactions.WorkflowRun {
	return githubactions.WorkflowRun{
		ID:         id,
		RunNumber:  number,
		Status:     "completed",
		HeadBranch: "main",
		HeadSHA:    fmt.Sprintf("sha%d", id),
		HeadCommit: &githubactions.HeadCommit{ID: fmt.Sprintf("sha%d", id), Message: "commit"},
		HeadRepository: &githubactions.Repository{
			Name:  "skyline",
			Owner: githubactions.Owner{Login: owner},
		},
	}
}

func testConfig(t *testing.T, apiURL string) *config.Config {
	return &config.Config{
		GitHubToken:  "token",
		APIBaseURL:   apiURL,
		Owner:        "skyline-emu",
		Repo:         "skyline",
		ArtifactName: "app-release.apk",
		CacheDir:     filepath.Join(t.TempDir(), "cache"),
		PollInterval: time.Hour,
		RunsPerPage:  30,
	}
}

func TestBuild_MirrorsRunsEndToEnd(t *testing.T) {
	server := fakeGitHub(t, []githubactions.WorkflowRun{
		workflowRun(501, 2, "skyline-emu"),
		workflowRun(502, 3, "someone-else"),
		workflowRun(500, 1, "skyline-emu"),
	}, apkArchive(t, "apk-content"))

	ctx := context.Background()
	cfg := testConfig(t, server.URL)
	m, err := Build(ctx, cfg, logger.NewSilentLogger())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	if m.Repository() != "skyline-emu/skyline" {
		t.Errorf("Repository() = %q", m.Repository())
	}

	events, err := m.Sinks.Broker.Subscribe(ctx, contracts.TopicRunsMaterialized, "test")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	m.Poller.RunCycle(ctx)

	for _, id := range []int64{500, 501} {
		data, err := os.ReadFile(filepath.Join(cfg.CacheDir, fmt.Sprint(id), "app-release.apk"))
		if err != nil || string(data) != "apk-content" {
			t.Errorf("run %d artifact = %q, %v", id, data, err)
		}
		if _, err := m.Sinks.Index.GetRun(ctx, id); err != nil {
			t.Errorf("run %d not indexed: %v", id, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.CacheDir, "502")); !os.IsNotExist(err) {
		t.Error("fork run should not be mirrored")
	}

	received := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-events:
			received[msg.Key] = true
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for run events")
		}
	}
	if !received["500"] || !received["501"] {
		t.Errorf("events for %v, want 500 and 501", received)
	}

	// The next cycle publishes the new runs to the catalog.
	m.Poller.RunCycle(ctx)
	builds := m.Catalog.Builds()
	if len(builds) != 2 || builds[0].ID != 501 || builds[1].ID != 500 {
		t.Errorf("catalog = %+v", builds)
	}
}

func TestBuild_CacheRootFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t, "")
	cfg.CacheDir = filepath.Join(blocker, "cache")

	_, err := Build(context.Background(), cfg, logger.NewSilentLogger())
	var storageErr *runstore.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("Build error = %v, want *runstore.StorageError", err)
	}
}
