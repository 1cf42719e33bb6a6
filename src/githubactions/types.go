package githubactions

import "time"

// WorkflowRun represents a GitHub Actions workflow run
type WorkflowRun struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	RunNumber      int         `json:"run_number"`
	Status         string      `json:"status"`
	Conclusion     string      `json:"conclusion"`
	HeadBranch     string      `json:"head_branch"`
	HeadSHA        string      `json:"head_sha"`
	HeadCommit     *HeadCommit `json:"head_commit"`
	HeadRepository *Repository `json:"head_repository"`
	HTMLURL        string      `json:"html_url"`
	CreatedAt      time.Time   `json:"created_at"`
}

// HeadCommit is the commit a run was triggered for
type HeadCommit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Repository is the repository a run's head commit lives in (differs from the base repo for forks)
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    Owner  `json:"owner"`
}

// Owner is a repository owner
type Owner struct {
	Login string `json:"login"`
}

// Artifact represents a workflow artifact
type Artifact struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SizeInBytes        int64     `json:"size_in_bytes"`
	ArchiveDownloadURL string    `json:"archive_download_url"`
	Expired            bool      `json:"expired"`
	CreatedAt          time.Time `json:"created_at"`
}

// WorkflowRunsResponse is the API response for listing workflow runs
type WorkflowRunsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// ArtifactsResponse is the API response for listing artifacts
type ArtifactsResponse struct {
	TotalCount int        `json:"total_count"`
	Artifacts  []Artifact `json:"artifacts"`
}

// FindArtifact returns the first artifact called name.
func FindArtifact(artifacts []Artifact, name string) (Artifact, bool) {
	for _, a := range artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}
