package githubactions

import (
	"context"

	"buildmirror/src/contracts"
)

// Source is the GitHub Actions view of the one repository being mirrored.
// It binds owner/repo so callers deal only in run and artifact ids.
type Source struct {
	client *Client
	owner  string
	repo   string
}

// NewSource creates a Source for owner/repo backed by client
func NewSource(client *Client, owner, repo string) *Source {
	return &Source{
		client: client,
		owner:  owner,
		repo:   repo,
	}
}

// Owner returns the repository owner
func (s *Source) Owner() string {
	return s.owner
}

// Repo returns the repository name
func (s *Source) Repo() string {
	return s.repo
}

// ListRuns returns recent workflow runs of the repository, in API order
func (s *Source) ListRuns(ctx context.Context) ([]WorkflowRun, error) {
	return s.client.ListWorkflowRuns(ctx, s.owner, s.repo)
}

// ListArtifacts returns the artifacts uploaded by a run
func (s *Source) ListArtifacts(ctx context.Context, runID int64) ([]Artifact, error) {
	return s.client.ListRunArtifacts(ctx, s.owner, s.repo, runID)
}

// FetchArtifactArchive returns the zip archive of an artifact
func (s *Source) FetchArtifactArchive(ctx context.Context, artifactID int64) ([]byte, error) {
	return s.client.DownloadArtifactArchive(ctx, s.owner, s.repo, artifactID)
}

// ToRunMetadata maps an API run onto the record written next to its artifact.
// Runs without a head branch (tag pushes, some dispatches) use the head SHA instead.
func ToRunMetadata(run WorkflowRun) contracts.RunMetadata {
	branch := run.HeadBranch
	if branch == "" {
		branch = run.HeadSHA
	}

	message := ""
	if run.HeadCommit != nil {
		message = run.HeadCommit.Message
	}

	return contracts.RunMetadata{
		ID:     run.ID,
		Branch: branch,
		Commit: contracts.Commit{
			ID:      run.HeadSHA,
			Message: message,
		},
		RunNumber: run.RunNumber,
	}
}

// IsFromRepository reports whether the run's head commit lives in owner/repo.
// Pull requests from forks carry the fork as head repository and are excluded.
func IsFromRepository(run WorkflowRun, owner, repo string) bool {
	if run.HeadRepository == nil {
		return false
	}
	return run.HeadRepository.Name == repo && run.HeadRepository.Owner.Login == owner
}

// IsCompleted reports whether the run has finished, regardless of conclusion
func IsCompleted(run WorkflowRun) bool {
	return run.Status == "completed"
}
