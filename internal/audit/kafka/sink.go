// Package kafka ships vault events to a Kafka topic for downstream audit
// consumers. Delivery is a fan-out on top of the store append, not a
// replacement for it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"custodia/internal/audit"
)

// Sink publishes events to a single topic, keyed by vault address so a
// vault's events stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

func NewSink(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// payload is the wire shape; field names are stable API for consumers.
type payload struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Vault         string `json:"vault"`
	Kind          string `json:"kind"`
	ActingOwner   string `json:"acting_owner"`
	Asset         string `json:"asset,omitempty"`
	Amount        uint64 `json:"amount,omitempty"`
	OldUnlockTime uint64 `json:"old_unlock_time,omitempty"`
	NewUnlockTime uint64 `json:"new_unlock_time,omitempty"`
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(payload{
		ID:            event.ID.String(),
		Timestamp:     event.Timestamp.Format(time.RFC3339Nano),
		Vault:         event.Vault.String(),
		Kind:          string(event.Kind),
		ActingOwner:   event.ActingOwner.String(),
		Asset:         event.Asset.String(),
		Amount:        event.Amount,
		OldUnlockTime: event.OldUnlockTime,
		NewUnlockTime: event.NewUnlockTime,
	})
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Vault.String()),
		Value: body,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
