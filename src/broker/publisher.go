package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"buildmirror/src/contracts"
)

// RunPublisher publishes a RunMaterializedEvent for every committed run.
// It satisfies download.Recorder.
type RunPublisher struct {
	broker Broker
	topic  string
}

// NewRunPublisher publishes to contracts.TopicRunsMaterialized.
func NewRunPublisher(b Broker) *RunPublisher {
	return &RunPublisher{broker: b, topic: contracts.TopicRunsMaterialized}
}

// Record publishes the event keyed by run id.
func (p *RunPublisher) Record(ctx context.Context, event contracts.RunMaterializedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for run %d: %w", event.Run.ID, err)
	}
	if err := p.broker.Publish(ctx, p.topic, event.Run.Key(), data); err != nil {
		return fmt.Errorf("failed to publish run %d: %w", event.Run.ID, err)
	}
	return nil
}

// DecodeRunEvent parses a message published by RunPublisher.
func DecodeRunEvent(msg Message) (contracts.RunMaterializedEvent, error) {
	var event contracts.RunMaterializedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("failed to decode run event at offset %d: %w", msg.Offset, err)
	}
	return event, nil
}
