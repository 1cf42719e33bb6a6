package pipeline

import (
	"context"
	"fmt"

	"buildmirror/src/catalog"
	"buildmirror/src/config"
	"buildmirror/src/download"
	"buildmirror/src/githubactions"
	"buildmirror/src/logger"
	"buildmirror/src/poller"
	"buildmirror/src/runstore"
)

// Mirror is a fully wired mirror process.
type Mirror struct {
	Config      *config.Config
	Store       *runstore.Store
	Catalog     *catalog.Catalog
	Coordinator *download.Coordinator
	Poller      *poller.Poller
	Sinks       *Sinks
}

// Build wires a Mirror from configuration. The cache root is created here;
// failing to create it is fatal for the caller.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Mirror, error) {
	rs := runstore.New(cfg.CacheDir, cfg.ArtifactName, log)
	if err := rs.Init(); err != nil {
		return nil, err
	}

	sinks, err := OpenSinks(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client := githubactions.NewClient(cfg.GitHubToken)
	client.SetBaseURL(cfg.APIBaseURL)
	client.SetRunsPerPage(cfg.RunsPerPage)
	source := githubactions.NewSource(client, cfg.Owner, cfg.Repo)

	coordinator := download.NewCoordinator(source, rs, download.NewLockSet(), download.Options{
		ArtifactName: cfg.ArtifactName,
		Owner:        cfg.Owner,
		Repo:         cfg.Repo,
		Recorders:    sinks.Recorders(),
	}, log)

	cat := catalog.New()
	p := poller.New(rs, cat, source, coordinator, cfg.Owner, cfg.Repo, cfg.PollInterval, log)

	log.Info("Mirroring %s/%s artifact %q into %s (%s mode)", cfg.Owner, cfg.Repo, cfg.ArtifactName, rs.Root(), sinks.Mode)

	return &Mirror{
		Config:      cfg,
		Store:       rs,
		Catalog:     cat,
		Coordinator: coordinator,
		Poller:      p,
		Sinks:       sinks,
	}, nil
}

// Repository returns "owner/repo".
func (m *Mirror) Repository() string {
	return fmt.Sprintf("%s/%s", m.Config.Owner, m.Config.Repo)
}

// Close releases the sinks.
func (m *Mirror) Close() error {
	return m.Sinks.Close()
}
