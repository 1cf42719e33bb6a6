// Package config provides configuration management for the build mirror.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the fixed source repository and artifact.
const (
	DefaultOwner        = "skyline-emu"
	DefaultRepo         = "skyline"
	DefaultArtifactName = "app-release.apk"
	DefaultCacheDir     = "./cache"
	DefaultStaticDir    = "./static"
	DefaultIndexFile    = "./index.html"
	DefaultPort         = "3333"
	DefaultPollInterval = 90 * time.Second
	DefaultRunsPerPage  = 30
)

// ErrMissingToken is returned when GITHUB_TOKEN is not set for commands that talk to GitHub.
var ErrMissingToken = errors.New("GITHUB_TOKEN environment variable is required")

// Config holds the application configuration.
type Config struct {
	// GitHubToken authenticates against the GitHub REST API.
	GitHubToken string

	// APIBaseURL overrides https://api.github.com when set.
	APIBaseURL string

	// Owner and Repo identify the only repository whose runs are mirrored.
	Owner string
	Repo  string

	// ArtifactName is both the artifact name in the run listing and the entry name inside its archive.
	ArtifactName string

	// CacheDir is the Run Store root. One subdirectory per run id.
	CacheDir string

	// PollInterval is the fixed period between poll cycles.
	PollInterval time.Duration

	// RunsPerPage bounds how many recent runs one cycle asks GitHub for.
	RunsPerPage int

	// Port, StaticDir and IndexFile configure the HTTP serving layer.
	Port      string
	StaticDir string
	IndexFile string

	// RedpandaBrokers enables run events when non-empty.
	RedpandaBrokers []string

	// DatabaseURL enables the Postgres build index when non-empty.
	DatabaseURL string

	// Debug turns on debug logging.
	Debug bool
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is read first when present;
// variables already set in the environment win.
func LoadFromEnv() (*Config, error) {
	cfg, err := LoadForReading()
	if err != nil {
		return nil, err
	}
	if cfg.GitHubToken == "" {
		return nil, ErrMissingToken
	}
	return cfg, nil
}

// LoadForReading loads configuration like LoadFromEnv but does not require a token.
// Used by commands that only read the local cache.
func LoadForReading() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	interval, err := getEnvDuration("BUILDMIRROR_POLL_INTERVAL", DefaultPollInterval)
	if err != nil {
		return nil, err
	}
	perPage, err := getEnvInt("BUILDMIRROR_RUNS_PER_PAGE", DefaultRunsPerPage)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		APIBaseURL:      os.Getenv("GITHUB_API_URL"),
		Owner:           getEnv("BUILDMIRROR_OWNER", DefaultOwner),
		Repo:            getEnv("BUILDMIRROR_REPO", DefaultRepo),
		ArtifactName:    getEnv("BUILDMIRROR_ARTIFACT", DefaultArtifactName),
		CacheDir:        getEnv("BUILDMIRROR_CACHE_DIR", DefaultCacheDir),
		PollInterval:    interval,
		RunsPerPage:     perPage,
		Port:            getEnv("PORT", DefaultPort),
		StaticDir:       getEnv("BUILDMIRROR_STATIC_DIR", DefaultStaticDir),
		IndexFile:       getEnv("BUILDMIRROR_INDEX_FILE", DefaultIndexFile),
		RedpandaBrokers: splitList(os.Getenv("REDPANDA_BROKERS")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Debug:           isTruthy(os.Getenv("BUILDMIRROR_DEBUG")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("owner and repo must not be empty")
	}
	if c.ArtifactName == "" {
		return fmt.Errorf("artifact name must not be empty")
	}
	if strings.ContainsAny(c.ArtifactName, `/\`) {
		return fmt.Errorf("artifact name %q must be a plain file name", c.ArtifactName)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.RunsPerPage <= 0 || c.RunsPerPage > 100 {
		return fmt.Errorf("runs per page must be between 1 and 100, got %d", c.RunsPerPage)
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
