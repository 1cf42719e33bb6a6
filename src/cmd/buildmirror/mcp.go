package main

import (
	"github.com/spf13/cobra"

	"buildmirror/src/catalog"
	"buildmirror/src/logger"
	"buildmirror/src/mcp"
	"buildmirror/src/runstore"
	"buildmirror/src/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the build catalog as MCP tools over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout with the tools
list_builds, get_build and latest_build. The catalog is read from the local
cache on every call, so a separately running "serve" keeps it current.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		// stdout carries the protocol; keep logs off it.
		log := logger.NewSilentLogger()
		rs := runstore.New(cfg.CacheDir, cfg.ArtifactName, log)

		var index store.Index
		if cfg.DatabaseURL != "" {
			idx, err := store.NewPostgresIndex(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer idx.Close()
			index = idx
		}

		return mcp.NewServer(catalog.NewLive(rs, log), rs, index, version).Run()
	},
}
