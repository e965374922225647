package kafka

import (
	"context"
	"encoding/json"

	"github.com/farmlinkgh/wallet-backend/internal/events"
	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish keys messages by user so per-user ordering survives partitioning.
func (p *Publisher) Publish(ctx context.Context, ev events.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: data,
	})
}

func (p *Publisher) Close() error { return p.writer.Close() }
