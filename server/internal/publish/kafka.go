package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/localrank/localrank/pkg/types"
)

const writeTimeout = 5 * time.Second

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes every ingested ScoreSnapshot as JSON, keyed by
// business id so that all snapshots of one business land on one partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}}
}

// PublishBatch writes snaps in a single WriteMessages call. It blocks until
// the broker acknowledges the write or a short timeout elapses.
func (p *KafkaPublisher) PublishBatch(ctx context.Context, snaps []*types.ScoreSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(snaps))
	for _, snap := range snaps {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("publish: marshal snapshot %s: %w", snap.BusinessID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(snap.BusinessID),
			Value: payload,
			Time:  time.Unix(snap.TimestampUnix, 0),
		})
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish: write %d snapshots: %w", len(msgs), err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
