package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"buildmirror/src/catalog"
	"buildmirror/src/contracts"
	"buildmirror/src/runstore"
	"buildmirror/src/store"
	"buildmirror/src/tui"
)

var (
	listBranch    string
	listLimit     int
	listJSON      bool
	listWidth     int
	listFromIndex bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the mirrored builds",
	Long: `Prints the builds in the local cache, newest run number first.
With --index the Postgres index (DATABASE_URL) is queried instead of the cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		ctx := cmd.Context()

		var builds []contracts.RunMetadata
		if listFromIndex {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("--index requires DATABASE_URL")
			}
			idx, err := store.NewPostgresIndex(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer idx.Close()

			runs, err := idx.ListRuns(ctx, 0)
			if err != nil {
				return err
			}
			for _, r := range runs {
				builds = append(builds, r.Run)
			}
		} else {
			rs := runstore.New(cfg.CacheDir, cfg.ArtifactName, log)
			builds, err = rs.Rescan()
			if err != nil {
				return err
			}
		}

		if listBranch != "" {
			builds = catalog.FilterBranch(builds, listBranch)
		}
		if listLimit > 0 && len(builds) > listLimit {
			builds = builds[:listLimit]
		}

		out := cmd.OutOrStdout()
		if listJSON {
			if builds == nil {
				builds = []contracts.RunMetadata{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(builds)
		}
		fmt.Fprint(out, tui.RenderList(builds, listWidth))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listBranch, "branch", "", "Only show builds of this branch")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of builds (0 for all)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
	listCmd.Flags().IntVar(&listWidth, "width", 100, "Table width in columns")
	listCmd.Flags().BoolVar(&listFromIndex, "index", false, "Read from the Postgres index instead of the cache")
}
