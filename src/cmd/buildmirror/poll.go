package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"buildmirror/src/download"
	"buildmirror/src/pipeline"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run a single poll cycle and exit",
	Long: `Lists recent workflow runs once, downloads every run that is not cached
yet and prints a summary. Useful from cron or to seed a new cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		ctx := cmd.Context()

		m, err := pipeline.Build(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer m.Close()

		stats := m.Poller.RunCycle(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cycle %s: %d runs listed, %d candidates, %v\n",
			stats.CycleID, stats.Listed, stats.Candidates, stats.Duration.Round(time.Millisecond))

		outcomes := make([]download.Outcome, 0, len(stats.Outcomes))
		for o := range stats.Outcomes {
			outcomes = append(outcomes, o)
		}
		sort.Slice(outcomes, func(i, j int) bool { return outcomes[i] < outcomes[j] })
		for _, o := range outcomes {
			fmt.Fprintf(out, "  %-16s %d\n", o, stats.Outcomes[o])
		}

		if stats.Outcomes[download.OutcomeFailed] > 0 {
			return fmt.Errorf("%d runs failed to download", stats.Outcomes[download.OutcomeFailed])
		}
		return nil
	},
}
