package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/aws"
	"github.com/matsalen/desafio-procion/internal/config"
	"github.com/matsalen/desafio-procion/internal/kafka"
	"github.com/matsalen/desafio-procion/internal/logging"
)

func main() {
	cfg, envErr := config.Load()
	logger, flush := logging.Init(logging.Options{Mode: cfg.LogMode, Filename: cfg.LogFile})
	defer flush()
	if envErr != nil {
		logger.Warn(".env not loaded", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		logger.Fatal("failed to load aws config", zap.Error(err))
	}
	p := NewProcessor(clients, cfg)

	switch {
	case cfg.EventBackend == "kafka":
		client := kafka.NewClient(cfg.KafkaBrokers)
		if !client.Enabled() {
			logger.Fatal("KAFKA_BROKERS is required for the kafka backend")
		}
		reader := client.NewReader(cfg.KafkaTopic, cfg.KafkaGroupID)
		defer reader.Close()

		logger.Info("consuming order events", zap.String("topic", cfg.KafkaTopic), zap.String("group", cfg.KafkaGroupID))
		if err := kafka.Consume(ctx, reader, p.HandleMessage); err != nil {
			// uncommitted message is redelivered after restart
			logger.Fatal("kafka consumer stopped", zap.Error(err))
		}

	case cfg.RunLocal:
		// LOCAL_EVENT_FILE holds one order.created body, handy with a localstack table
		path := os.Getenv("LOCAL_EVENT_FILE")
		if path == "" {
			logger.Fatal("LOCAL_EVENT_FILE is required when RUN_LOCAL=true")
		}
		body, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("failed to read local event", zap.Error(err))
		}
		if err := p.HandleMessage(ctx, body); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}

	default:
		lambda.Start(p.Handle)
	}
}
