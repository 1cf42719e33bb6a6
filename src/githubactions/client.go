package githubactions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://api.github.com"
	apiVersion      = "2022-11-28"
	defaultPerPage  = 30
	maxPerPage      = 100
	metadataTimeout = 30 * time.Second
	// Artifact archives can be tens of megabytes; give the download its own budget.
	downloadTimeout = 10 * time.Minute
)

// Client is a GitHub Actions API client
type Client struct {
	token          string
	httpClient     *http.Client
	downloadClient *http.Client
	baseURL        string
	perPage        int
}

// NewClient creates a new GitHub Actions client
func NewClient(token string) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: metadataTimeout,
		},
		downloadClient: &http.Client{
			Timeout: downloadTimeout,
		},
		baseURL: defaultBaseURL,
		perPage: defaultPerPage,
	}
}

// SetBaseURL points the client at a different API root, such as a GitHub Enterprise server.
func (c *Client) SetBaseURL(url string) {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// SetRunsPerPage sets how many recent runs ListWorkflowRuns asks for.
func (c *Client) SetRunsPerPage(n int) {
	if n <= 0 {
		n = defaultPerPage
	}
	if n > maxPerPage {
		n = maxPerPage
	}
	c.perPage = n
}

// ListWorkflowRuns fetches the most recent workflow runs of a repository, newest first.
// Only the first page is read; older runs were mirrored by earlier cycles.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo string) ([]WorkflowRun, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/runs?per_page=%d", c.baseURL, owner, repo, c.perPage)

	var runsResp WorkflowRunsResponse
	if err := c.getJSON(ctx, url, &runsResp); err != nil {
		return nil, err
	}
	return runsResp.WorkflowRuns, nil
}

// ListRunArtifacts fetches artifacts for a workflow run (handles pagination)
func (c *Client) ListRunArtifacts(ctx context.Context, owner, repo string, runID int64) ([]Artifact, error) {
	var all []Artifact
	page := 1

	for {
		url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/artifacts?per_page=%d&page=%d",
			c.baseURL, owner, repo, runID, maxPerPage, page)

		var artifactsResp ArtifactsResponse
		if err := c.getJSON(ctx, url, &artifactsResp); err != nil {
			return nil, err
		}

		all = append(all, artifactsResp.Artifacts...)

		if len(all) >= artifactsResp.TotalCount || len(artifactsResp.Artifacts) < maxPerPage {
			break
		}
		page++
	}

	return all, nil
}

// DownloadArtifactArchive downloads the raw zip archive of an artifact.
// GitHub answers with a redirect to blob storage; net/http follows it and
// drops the Authorization header on the cross-host hop.
func (c *Client) DownloadArtifactArchive(ctx context.Context, owner, repo string, artifactID int64) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/artifacts/%d/zip", c.baseURL, owner, repo, artifactID)

	resp, err := c.do(ctx, c.downloadClient, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.do(ctx, c.httpClient, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// do issues an authenticated GET and returns the response only for 200 OK.
func (c *Client) do(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{
			StatusCode:         resp.StatusCode,
			Body:               string(body),
			RateLimitRemaining: parseRateLimitRemaining(resp.Header),
		}
	}

	return resp, nil
}
