package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/aws"
	"github.com/matsalen/desafio-procion/internal/config"
	orderevents "github.com/matsalen/desafio-procion/internal/events"
	"github.com/matsalen/desafio-procion/internal/kafka"
)

// newPublisher picks the order event transport from EVENT_BACKEND.
// The returned func releases transport resources.
func newPublisher(ctx context.Context, cfg config.Config) (orderevents.Publisher, func(), error) {
	noop := func() {}

	switch cfg.EventBackend {
	case "", "none", "log":
		return orderevents.LogPublisher{}, noop, nil
	case "sqs":
		if cfg.QueueURL == "" {
			return nil, noop, fmt.Errorf("ORDERS_QUEUE_URL is required for the sqs backend")
		}
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			return nil, noop, err
		}
		return orderevents.QueuePublisher{Sender: aws.NewPublisher(clients.SQS, cfg.QueueURL)}, noop, nil
	case "kafka":
		client := kafka.NewClient(cfg.KafkaBrokers)
		if !client.Enabled() {
			return nil, noop, fmt.Errorf("KAFKA_BROKERS is required for the kafka backend: %w", kafka.ErrDisabled)
		}
		w := client.NewWriter(cfg.KafkaTopic)
		return kafka.EventPublisher{Writer: w}, func() {
			if err := w.Close(); err != nil {
				zap.L().Warn("kafka writer close", zap.Error(err))
			}
		}, nil
	default:
		return nil, noop, fmt.Errorf("unknown EVENT_BACKEND %q", cfg.EventBackend)
	}
}
