package main

import (
	"context"
	"os/signal"
	"runtime"
	"syscall"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/config"
	"risk-assessor/internal/evidence"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/queue"
	"risk-assessor/internal/services"
)

func main() {
	// Setup panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)

			logger.Log.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": string(buf[:n]),
			}).Fatal("Worker application panicked")
		}
	}()

	logger.Log.Info("Starting Risk Assessor Worker")

	logger.Log.Info("Loading worker configuration")
	cfg, err := config.Load()
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "config_load",
		})
		logger.Log.WithError(err).Fatal("Failed to load worker configuration")
	}
	logger.Log.WithField("log_level", cfg.LogLevel).Info("Worker configuration loaded")

	logger.SetLevel(cfg.LogLevel)

	// Initialize Kafka service
	logger.Log.WithField("kafka_servers", cfg.KafkaBootstrapServers).Info("Initializing Kafka service")
	kafkaService := queue.NewService(queue.Config{
		Brokers:      cfg.KafkaBrokers(),
		RequestTopic: cfg.KafkaTopicRequests,
		ResultTopic:  cfg.KafkaTopicResults,
		GroupID:      cfg.KafkaGroupID,
	})
	defer func() {
		logger.Log.Info("Closing Kafka service")
		if err := kafkaService.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close Kafka service")
		}
	}()

	consumer := kafkaService.CreateConsumer("")
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close Kafka consumer")
		}
	}()
	logger.Log.WithFields(map[string]interface{}{
		"request_topic": cfg.KafkaTopicRequests,
		"result_topic":  cfg.KafkaTopicResults,
		"group_id":      cfg.KafkaGroupID,
	}).Info("Kafka service initialized")

	assessmentService := services.NewAssessmentService(cfg, evidence.NewCollectorFromConfig(cfg), clients.NewCompletionClient(cfg))
	worker := queue.NewWorker(consumer, kafkaService, assessmentService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "worker_run",
		})
		logger.Log.WithError(err).Error("Worker stopped with error")
		return
	}

	logger.Log.Info("Worker stopped")
}
