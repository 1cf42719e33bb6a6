package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"buildmirror/src/broker"
	"buildmirror/src/contracts"
	"buildmirror/src/logger"
	"buildmirror/src/pipeline"
	"buildmirror/src/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll GitHub and serve the mirrored builds",
	Long: `Runs the poll loop and the HTTP server until interrupted.

Routes:
  GET /builds         catalog of mirrored runs, newest first
  GET /builds/{id}    one run
  GET /cache/...      artifacts and metadata.json files
  GET /static/...     static assets
  GET /               index page
  GET /health         liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m, err := pipeline.Build(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer m.Close()

		srv := server.New(server.Options{
			CacheDir:  cfg.CacheDir,
			StaticDir: cfg.StaticDir,
			IndexFile: cfg.IndexFile,
		}, m.Catalog, log)
		httpServer := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		return runServices(ctx, m, httpServer, log)
	},
}

// runServices runs the poller, the HTTP server and the run-event log until
// ctx is done or one of them fails.
func runServices(ctx context.Context, m *pipeline.Mirror, httpServer *http.Server, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	// Nothing is started if the subscription fails.
	events, err := m.Sinks.Broker.Subscribe(gctx, contracts.TopicRunsMaterialized, runLogGroup())
	if err != nil {
		return fmt.Errorf("failed to subscribe to run events: %w", err)
	}

	g.Go(func() error {
		logRunEvents(events, log)
		return nil
	})

	g.Go(func() error {
		if err := m.Poller.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("Listening on http://localhost%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("Stopped")
	return err
}

// runLogGroup is the consumer group of this process's run-event log. Each
// host gets its own group so every serve instance logs every mirrored run.
func runLogGroup() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "buildmirror-serve"
	}
	return "buildmirror-serve-" + host
}

// logRunEvents announces each mirrored run until the channel closes.
func logRunEvents(events <-chan broker.Message, log logger.Logger) {
	for msg := range events {
		event, err := broker.DecodeRunEvent(msg)
		if err != nil {
			log.Error("%v", err)
			continue
		}
		log.Info("Mirrored run #%d (%s) %s, %d bytes", event.Run.RunNumber, event.Run.Branch, event.ArtifactPath, event.SizeBytes)
	}
}

func init() {
	serveCmd.Flags().StringVar(&portFlag, "port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "Poll interval (overrides BUILDMIRROR_POLL_INTERVAL)")
}
