// Package main provides the buildmirror CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"buildmirror/src/config"
	"buildmirror/src/githubactions"
	"buildmirror/src/logger"
)

var version = "dev"

var (
	debugFlag    bool
	portFlag     string
	cacheDirFlag string
	intervalFlag time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "buildmirror",
	Short: "Mirror GitHub Actions build artifacts and serve them over HTTP",
	Long: `buildmirror polls a GitHub repository for completed workflow runs,
downloads one artifact per run exactly once into a local cache and serves
the cached builds as a JSON catalog and static files.

Configuration comes from the environment (and a .env file if present).
Set REDPANDA_BROKERS to publish run events and DATABASE_URL to keep a
Postgres index of mirrored runs.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "Cache directory (overrides BUILDMIRROR_CACHE_DIR)")

	rootCmd.AddCommand(serveCmd, pollCmd, listCmd, viewCmd, mcpCmd)
}

// loadConfig reads the environment and applies flag overrides.
// Commands that only read the cache pass requireToken=false.
func loadConfig(cmd *cobra.Command, requireToken bool) (*config.Config, error) {
	load := config.LoadForReading
	if requireToken {
		load = config.LoadFromEnv
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDirFlag
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port = portFlag
	}
	if flags.Lookup("interval") != nil && flags.Changed("interval") {
		cfg.PollInterval = intervalFlag
	}
	if debugFlag {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.NewConsoleLogger(cfg.Debug)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", githubactions.WrapError(err))
		os.Exit(1)
	}
}
