package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"buildmirror/src/logger"
)

// producer is the part of *kgo.Client used for publishing.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// consumer is the part of a group-consuming *kgo.Client used by Subscribe.
type consumer interface {
	PollFetches(ctx context.Context) kgo.Fetches
	Close()
}

// RedpandaBroker publishes run events to Redpanda and consumes them in
// consumer groups. One kgo client per subscription.
type RedpandaBroker struct {
	mu          sync.Mutex
	producer    producer
	newConsumer func(topic, groupID string) (consumer, error)
	consumers   map[string]consumer // topic/groupID
	closed      bool
	logger      logger.Logger
}

// NewRedpandaBroker connects to the seed brokers, e.g. ["localhost:19092"].
// New subscriber groups start at the end of the topic: only runs mirrored
// after the first subscription are delivered.
func NewRedpandaBroker(brokers []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	newConsumer := func(topic, groupID string) (consumer, error) {
		return kgo.NewClient(
			kgo.SeedBrokers(brokers...),
			kgo.ConsumerGroup(groupID),
			kgo.ConsumeTopics(topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		)
	}

	return newRedpandaBroker(client, newConsumer, log), nil
}

func newRedpandaBroker(p producer, newConsumer func(topic, groupID string) (consumer, error), log logger.Logger) *RedpandaBroker {
	return &RedpandaBroker{
		producer:    p,
		newConsumer: newConsumer,
		consumers:   make(map[string]consumer),
		logger:      logger.WithPrefix(log, "RedpandaBroker"),
	}
}

// Publish produces one record and waits for the broker to acknowledge it.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	if err := b.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Subscribe joins groupID on topic. The channel closes when ctx is done or
// the broker closes. A group may only be subscribed once per broker.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	id := topic + "/" + groupID
	if _, exists := b.consumers[id]; exists {
		return nil, fmt.Errorf("group %s already subscribed to %s", groupID, topic)
	}

	c, err := b.newConsumer(topic, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer for %s: %w", id, err)
	}
	b.consumers[id] = c

	out := make(chan Message, subscriberBuffer)
	go b.consume(ctx, id, c, out)
	return out, nil
}

func (b *RedpandaBroker) consume(ctx context.Context, id string, c consumer, out chan<- Message) {
	defer close(out)
	defer b.release(id, c)

	for {
		fetches := c.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			b.logger.Error("fetch error on %s[%d]: %v", topic, partition, err)
		})

		stopped := false
		fetches.EachRecord(func(r *kgo.Record) {
			if stopped {
				return
			}
			select {
			case out <- recordMessage(r):
			case <-ctx.Done():
				stopped = true
			}
		})
		if stopped {
			return
		}
	}
}

// release closes a consumer that is still registered. After Close the map
// is empty and the client was already closed there.
func (b *RedpandaBroker) release(id string, c consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.consumers[id]; ok && current == c {
		delete(b.consumers, id)
		c.Close()
	}
}

func recordMessage(r *kgo.Record) Message {
	return Message{
		Topic:     r.Topic,
		Key:       string(r.Key),
		Value:     r.Value,
		Offset:    r.Offset,
		Partition: r.Partition,
		Timestamp: r.Timestamp.UnixMilli(),
	}
}

// Close stops every subscription and the producer.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, c := range b.consumers {
		c.Close()
		delete(b.consumers, id)
	}
	b.producer.Close()
	return nil
}
