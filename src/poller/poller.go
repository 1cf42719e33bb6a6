// Package poller drives the mirror: on a fixed interval it refreshes the
// catalog from disk and feeds newly completed runs to the downloader.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"buildmirror/src/catalog"
	"buildmirror/src/contracts"
	"buildmirror/src/download"
	"buildmirror/src/githubactions"
	"buildmirror/src/logger"
)

// RunLister lists recent workflow runs of the mirrored repository.
type RunLister interface {
	ListRuns(ctx context.Context) ([]githubactions.WorkflowRun, error)
}

// Downloader mirrors one run.
type Downloader interface {
	Download(ctx context.Context, meta contracts.RunMetadata) download.Outcome
}

// CycleStats summarises one poll cycle.
type CycleStats struct {
	CycleID    string
	Cataloged  int // runs in the catalog after the rescan, -1 if the rescan failed
	Listed     int // runs returned by the upstream
	Candidates int // completed runs of the target repository
	Outcomes   map[download.Outcome]int
	Duration   time.Duration
}

// Poller runs poll cycles. Cycles may overlap; the downloader's lock set
// keeps them from fetching the same run twice.
type Poller struct {
	scanner    catalog.Scanner
	catalog    *catalog.Catalog
	runs       RunLister
	downloader Downloader
	owner      string
	repo       string
	interval   time.Duration
	logger     logger.Logger

	wg sync.WaitGroup
}

// New creates a poller for owner/repo.
func New(scanner catalog.Scanner, cat *catalog.Catalog, runs RunLister, downloader Downloader,
	owner, repo string, interval time.Duration, log logger.Logger) *Poller {
	return &Poller{
		scanner:    scanner,
		catalog:    cat,
		runs:       runs,
		downloader: downloader,
		owner:      owner,
		repo:       repo,
		interval:   interval,
		logger:     logger.WithPrefix(log, "Poller"),
	}
}

// Run starts a cycle immediately and then one per interval, each in its own
// goroutine, without waiting for earlier cycles to finish. It returns when ctx
// is cancelled, after every started cycle has returned.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Polling %s/%s every %v", p.owner, p.repo, p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.launch(ctx)
	for {
		select {
		case <-ticker.C:
			p.launch(ctx)
		case <-ctx.Done():
			p.logger.Info("Context cancelled, waiting for running cycles")
			p.wg.Wait()
			return ctx.Err()
		}
	}
}

func (p *Poller) launch(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.RunCycle(ctx)
	}()
}

// RunCycle performs one poll cycle: refresh the catalog, list runs, and
// download every completed run of the target repository in upstream order.
func (p *Poller) RunCycle(ctx context.Context) CycleStats {
	start := time.Now()
	stats := CycleStats{
		CycleID:  uuid.NewString()[:8],
		Outcomes: make(map[download.Outcome]int),
	}

	stats.Cataloged = p.RefreshCatalog()

	runs, err := p.runs.ListRuns(ctx)
	if err != nil {
		p.logger.Error("cycle %s: failed to list runs: %v", stats.CycleID, err)
		stats.Duration = time.Since(start)
		return stats
	}
	stats.Listed = len(runs)

	candidates := FilterRuns(runs, p.owner, p.repo)
	stats.Candidates = len(candidates)
	p.logger.Debug("cycle %s: %d runs listed, %d candidates", stats.CycleID, stats.Listed, stats.Candidates)

	for _, run := range candidates {
		outcome := p.downloader.Download(ctx, githubactions.ToRunMetadata(run))
		stats.Outcomes[outcome]++
	}

	stats.Duration = time.Since(start)
	if n := stats.Outcomes[download.OutcomeDownloaded]; n > 0 {
		p.logger.Info("cycle %s: downloaded %d new runs in %v", stats.CycleID, n, stats.Duration.Round(time.Millisecond))
	}
	return stats
}

// RefreshCatalog rescans the run store and swaps the catalog.
// If the rescan fails the previous catalog stays in place and -1 is returned.
func (p *Poller) RefreshCatalog() int {
	runs, err := p.scanner.Rescan()
	if err != nil {
		p.logger.Error("Rescan failed, keeping previous catalog: %v", err)
		return -1
	}
	p.catalog.Replace(runs)
	return len(runs)
}

// FilterRuns keeps completed runs whose head repository is exactly owner/repo, in input order.
func FilterRuns(runs []githubactions.WorkflowRun, owner, repo string) []githubactions.WorkflowRun {
	out := make([]githubactions.WorkflowRun, 0, len(runs))
	for _, run := range runs {
		if !githubactions.IsCompleted(run) || !githubactions.IsFromRepository(run, owner, repo) {
			continue
		}
		out = append(out, run)
	}
	return out
}
