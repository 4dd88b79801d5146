// Package kafka publishes history.Entry events onto a Kafka topic as
// they are recorded, for external audit or replication pipelines. It
// is a producer, mirroring the client construction the teacher uses
// for its Kafka consumer ingester, pointed the other direction.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/J-Cake/fsdb/internal/history"
	"github.com/J-Cake/fsdb/internal/logging"
)

// Config configures the Kafka history sink.
type Config struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// Sink publishes history.Entry values to a Kafka topic.
type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New constructs a Sink from cfg.
func New(cfg Config) (*Sink, error) {
	logger := logging.Default(cfg.Logger).With("component", "journal", "type", "kafka")

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
	)
	if err != nil {
		return nil, err
	}

	return &Sink{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Publish is a history.Log sink function: pass it to
// fsdb.WithHistorySink.
func (s *Sink) Publish(e history.Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("marshal history entry", "error", err)
		return
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(e.Page), Value: data}
	s.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("publish history entry", "error", err)
		}
	})
}

// Close releases the underlying Kafka client.
func (s *Sink) Close() {
	s.client.Close()
}
