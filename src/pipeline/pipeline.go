// Package pipeline assembles the mirror: upstream source, run store, download
// coordinator, catalog, poller and the optional event and index sinks.
package pipeline

import (
	"context"
	"fmt"

	"buildmirror/src/broker"
	"buildmirror/src/config"
	"buildmirror/src/download"
	"buildmirror/src/logger"
	"buildmirror/src/store"
)

// Mode selects where run events and the build index go.
type Mode int

const (
	// LocalMode keeps events in process and the index in memory.
	LocalMode Mode = iota
	// DistributedMode publishes events to Redpanda.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// DetectMode returns DistributedMode when Redpanda brokers are configured.
func DetectMode(cfg *config.Config) Mode {
	if len(cfg.RedpandaBrokers) > 0 {
		return DistributedMode
	}
	return LocalMode
}

// Sinks receive every newly mirrored run.
type Sinks struct {
	Mode   Mode
	Broker broker.Broker
	Index  store.Index
}

// OpenSinks connects the broker and index the configuration asks for.
// Postgres is used whenever DATABASE_URL is set, independent of the mode.
func OpenSinks(ctx context.Context, cfg *config.Config, log logger.Logger) (*Sinks, error) {
	s := &Sinks{Mode: DetectMode(cfg)}

	switch s.Mode {
	case DistributedMode:
		b, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		s.Broker = b
	default:
		s.Broker = broker.NewInMemoryBroker(log)
	}

	if cfg.DatabaseURL != "" {
		idx, err := store.NewPostgresIndex(ctx, cfg.DatabaseURL)
		if err != nil {
			s.Broker.Close()
			return nil, fmt.Errorf("failed to open Postgres index: %w", err)
		}
		s.Index = idx
	} else {
		s.Index = store.NewMemoryIndex()
	}

	return s, nil
}

// Recorders returns the sinks as download recorders, index first.
func (s *Sinks) Recorders() []download.Recorder {
	return []download.Recorder{s.Index, broker.NewRunPublisher(s.Broker)}
}

// Close shuts down the broker and the index.
func (s *Sinks) Close() error {
	if err := s.Broker.Close(); err != nil {
		s.Index.Close()
		return err
	}
	return s.Index.Close()
}
