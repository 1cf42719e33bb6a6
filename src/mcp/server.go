package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"buildmirror/src/catalog"
	"buildmirror/src/contracts"
	"buildmirror/src/sanitize"
	"buildmirror/src/store"
)

const defaultListLimit = 20

// Artifacts locates mirrored files. Implemented by runstore.Store.
type Artifacts interface {
	Root() string
	ArtifactPath(runID int64) string
}

// Server is the MCP server for the build mirror.
type Server struct {
	mcpServer *server.MCPServer
	builds    catalog.Source
	artifacts Artifacts
	index     store.Index // optional
}

// NewServer creates a new MCP server. index may be nil.
func NewServer(builds catalog.Source, artifacts Artifacts, index store.Index, version string) *Server {
	s := server.NewMCPServer(
		"buildmirror",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		builds:    builds,
		artifacts: artifacts,
		index:     index,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_builds",
		mcp.WithDescription("List mirrored builds, newest run number first. Each entry has the run id, branch, commit and the first line of the commit message."),
		mcp.WithString("branch",
			mcp.Description("Only return builds of this branch"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of builds (default: 20, 0 for all)"),
		),
	)

	getTool := mcp.NewTool("get_build",
		mcp.WithDescription("Get one mirrored build with its full commit message and the path of its downloadable artifact."),
		mcp.WithNumber("run_id",
			mcp.Required(),
			mcp.Description("Run id from list_builds"),
		),
	)

	latestTool := mcp.NewTool("latest_build",
		mcp.WithDescription("Get the newest mirrored build, optionally restricted to a branch."),
		mcp.WithString("branch",
			mcp.Description("Branch name (default: any branch)"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListBuilds)
	s.mcpServer.AddTool(getTool, s.handleGetBuild)
	s.mcpServer.AddTool(latestTool, s.handleLatestBuild)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	branch := request.GetString("branch", "")
	limit := request.GetInt("limit", defaultListLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	runs := s.builds.Builds()
	if branch != "" {
		runs = catalog.FilterBranch(runs, branch)
	}

	list := BuildList{Total: len(runs), Branch: branch, Builds: []BuildSummary{}}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	for _, run := range runs {
		list.Builds = append(list.Builds, summarize(run))
	}

	return jsonResult(list)
}

func (s *Server) handleGetBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := int64(request.GetInt("run_id", 0))
	if runID <= 0 {
		return mcp.NewToolResultError("run_id parameter is required"), nil
	}

	run, found := catalog.Find(s.builds, runID)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("build not found: run_id=%d", runID)), nil
	}

	return jsonResult(s.detail(ctx, run))
}

func (s *Server) handleLatestBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	branch := request.GetString("branch", "")

	runs := s.builds.Builds()
	if branch != "" {
		runs = catalog.FilterBranch(runs, branch)
	}
	if len(runs) == 0 {
		if branch != "" {
			return mcp.NewToolResultError(fmt.Sprintf("no builds mirrored for branch %q", branch)), nil
		}
		return mcp.NewToolResultError("no builds mirrored yet"), nil
	}

	return jsonResult(s.detail(ctx, runs[0]))
}

// detail enriches a catalog entry with file size and, when an index is
// configured, the time it was mirrored.
func (s *Server) detail(ctx context.Context, run contracts.RunMetadata) BuildDetail {
	rel := s.artifacts.ArtifactPath(run.ID)
	run.Commit.Message = sanitize.Clean(run.Commit.Message)
	d := BuildDetail{
		Run:          run,
		ArtifactPath: rel,
		DownloadPath: "/cache/" + rel,
	}

	if info, err := os.Stat(filepath.Join(s.artifacts.Root(), filepath.FromSlash(rel))); err == nil {
		d.SizeBytes = info.Size()
	}

	if s.index != nil {
		if indexed, err := s.index.GetRun(ctx, run.ID); err == nil {
			d.MirroredAt = indexed.MirroredAt.Format(time.RFC3339)
		}
	}
	return d
}

func summarize(run contracts.RunMetadata) BuildSummary {
	title, _, _ := strings.Cut(sanitize.Clean(run.Commit.Message), "\n")
	return BuildSummary{
		ID:        run.ID,
		RunNumber: run.RunNumber,
		Branch:    run.Branch,
		CommitID:  run.Commit.ID,
		Title:     strings.TrimSpace(title),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
