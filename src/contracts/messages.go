// Package contracts defines the records shared between the mirror's components
// and the payloads it publishes to other systems.
package contracts

import "strconv"

// Commit identifies the head commit a run was built from.
type Commit struct {
	// Full commit SHA.
	ID string `json:"id"`
	// Commit message, empty when the provider did not report one.
	Message string `json:"message"`
}

// RunMetadata describes one mirrored CI run.
// It is written once as metadata.json next to the artifact and never changes.
type RunMetadata struct {
	// Upstream run id. Sole key for placement on disk and for in-flight dedupe.
	ID int64 `json:"id"`
	// Head branch, or the head SHA when the run has no branch.
	Branch string `json:"branch"`
	// Head commit of the run.
	Commit Commit `json:"commit"`
	// Repository-scoped run number. Only used for ordering.
	RunNumber int `json:"runNumber"`
}

// Key returns the run id in the form used for directory names and message keys.
func (m RunMetadata) Key() string {
	return strconv.FormatInt(m.ID, 10)
}

// RunMaterializedEvent is published after a run's artifact and metadata are on disk.
// Published to: buildmirror.runs.materialized
// Key: {run_id}
type RunMaterializedEvent struct {
	Run          RunMetadata `json:"run"`
	Owner        string      `json:"owner"`
	Repo         string      `json:"repo"`
	ArtifactName string      `json:"artifact_name"`
	ArtifactPath string      `json:"artifact_path"` // relative to the cache root
	SizeBytes    int64       `json:"size_bytes"`
	Timestamp    string      `json:"timestamp"`
}

// TopicNames defines the Redpanda topic names used by the mirror
const (
	// TopicRunsMaterialized receives one event per newly mirrored run
	TopicRunsMaterialized = "buildmirror.runs.materialized"
)
