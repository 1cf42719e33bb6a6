package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildmirror/src/catalog"
	"buildmirror/src/logger"
	"buildmirror/src/runstore"
	"buildmirror/src/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse the mirrored builds in a terminal UI",
	Long: `Opens an interactive table of the builds in the local cache.
Press r to rescan the cache, tab to filter by branch, enter for details and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		// Log output would corrupt the full-screen display.
		rs := runstore.New(cfg.CacheDir, cfg.ArtifactName, logger.NewSilentLogger())
		live := catalog.NewLive(rs, logger.NewSilentLogger())

		if err := tui.Run(live, fmt.Sprintf("%s/%s", cfg.Owner, cfg.Repo)); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}
