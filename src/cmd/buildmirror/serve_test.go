package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"buildmirror/src/broker"
	"buildmirror/src/config"
	"buildmirror/src/contracts"
	"buildmirror/src/logger"
	"buildmirror/src/pipeline"
)

type lineLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLogger) add(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(msg, args...))
}

func (l *lineLogger) Info(msg string, args ...interface{})  { l.add(msg, args...) }
func (l *lineLogger) Error(msg string, args ...interface{}) { l.add(msg, args...) }
func (l *lineLogger) Debug(msg string, args ...interface{}) {}

func (l *lineLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// newServeMirror wires a local-mode mirror against a GitHub fake with no runs.
func newServeMirror(t *testing.T, log logger.Logger) (*pipeline.Mirror, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"total_count":0,"workflow_runs":[]}`))
	}))
	t.Cleanup(github.Close)

	cfg := &config.Config{
		GitHubToken:  "token",
		APIBaseURL:   github.URL,
		Owner:        "skyline-emu",
		Repo:         "skyline",
		ArtifactName: "app-release.apk",
		CacheDir:     t.TempDir(),
		PollInterval: time.Hour,
		RunsPerPage:  30,
	}
	m, err := pipeline.Build(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, &requests
}

func testHTTPServer() *http.Server {
	return &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
}

func TestRunServices_SubscribeFailureStartsNothing(t *testing.T) {
	m, requests := newServeMirror(t, logger.NewSilentLogger())
	m.Sinks.Broker.Close()

	done := make(chan error, 1)
	go func() { done <- runServices(context.Background(), m, testHTTPServer(), logger.NewSilentLogger()) }()

	select {
	case err := <-done:
		if !errors.Is(err, broker.ErrClosed) {
			t.Fatalf("runServices = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runServices did not return after a failed subscription")
	}

	time.Sleep(50 * time.Millisecond)
	if n := requests.Load(); n != 0 {
		t.Errorf("poller reached GitHub %d times, want no cycle started", n)
	}
}

func TestRunServices_LogsRunEventsUntilCancelled(t *testing.T) {
	log := &lineLogger{}
	m, requests := newServeMirror(t, logger.NewSilentLogger())
	publisher := broker.NewRunPublisher(m.Sinks.Broker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServices(ctx, m, testHTTPServer(), log) }()

	event := contracts.RunMaterializedEvent{
		Run:          contracts.RunMetadata{ID: 77, Branch: "main", RunNumber: 9},
		ArtifactPath: "77/app-release.apk",
		SizeBytes:    3,
	}
	// Events published before the subscription exists are not delivered; retry until one is.
	deadline := time.Now().Add(2 * time.Second)
	for !log.contains("Mirrored run #9") || requests.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("run event was never logged or the poller never reached GitHub")
		}
		if err := publisher.Record(context.Background(), event); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServices = %v, want nil after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runServices did not stop after cancel")
	}

	if !log.contains("Stopped") {
		t.Error("missing shutdown log line")
	}
}
