// Package mcp exposes the mirrored build catalog to LLM agents as MCP tools.
package mcp

import "buildmirror/src/contracts"

// BuildList is the list_builds response.
type BuildList struct {
	Total  int            `json:"total"`
	Branch string         `json:"branch,omitempty"`
	Builds []BuildSummary `json:"builds"`
}

// BuildSummary is one catalog entry trimmed for listing.
type BuildSummary struct {
	ID        int64  `json:"id"`
	RunNumber int    `json:"run_number"`
	Branch    string `json:"branch"`
	CommitID  string `json:"commit_id"`
	Title     string `json:"title"` // first line of the commit message
}

// BuildDetail is the get_build response.
type BuildDetail struct {
	Run          contracts.RunMetadata `json:"run"`
	ArtifactPath string                `json:"artifact_path"` // relative to the cache root
	DownloadPath string                `json:"download_path"` // HTTP path served by the mirror
	SizeBytes    int64                 `json:"size_bytes,omitempty"`
	MirroredAt   string                `json:"mirrored_at,omitempty"`
}
