package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// fetchRetryDelay paces the loop after a broker read error
const fetchRetryDelay = time.Second

// MessageReader is the subset of *kafka.Reader the worker uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ResultPublisher emits finished assessments
type ResultPublisher interface {
	PublishResult(ctx context.Context, result models.CompanyAssessment) error
}

// Assessor runs one company's assessment
type Assessor interface {
	Assess(ctx context.Context, in models.AssessmentInput) models.CompanyAssessment
}

// Worker consumes assessment requests and publishes their results. Nothing is stored:
// each message is assessed, published and committed.
type Worker struct {
	reader    MessageReader
	publisher ResultPublisher
	assessor  Assessor
	logger    *logrus.Logger
}

// NewWorker creates a new assessment worker
func NewWorker(reader MessageReader, publisher ResultPublisher, assessor Assessor) *Worker {
	return &Worker{
		reader:    reader,
		publisher: publisher,
		assessor:  assessor,
		logger:    logger.Log,
	}
}

// Run processes messages until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker ready to process assessment requests")

	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Context cancelled, stopping worker")
				return nil
			}
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "kafka_fetch_message",
			})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := w.processMessage(ctx, msg); err != nil {
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "process_assessment_message",
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
		}

		if err := w.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "kafka_commit_message",
				"offset":    msg.Offset,
			})
		}
	}
}

// processMessage decodes, assesses and publishes one message
func (w *Worker) processMessage(ctx context.Context, msg kafka.Message) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)

			w.logger.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": string(buf[:n]),
				"offset":      msg.Offset,
			}).Error("Worker panic in message processing")

			retErr = fmt.Errorf("worker panicked: %v", r)
		}
	}()

	in, err := DecodeRequest(msg)
	if err != nil {
		return err
	}

	log := logger.WithCorrelationID(in.RequestID)
	log.WithFields(map[string]interface{}{
		"company":          in.CompanyName,
		"assessment_types": in.AssessmentTypes,
		"offset":           msg.Offset,
	}).Info("Worker picked up assessment request")

	ctx = logger.ContextWithCorrelationID(ctx, in.RequestID)
	start := time.Now()
	result := w.assessor.Assess(ctx, in)

	if err := w.publisher.PublishResult(ctx, result); err != nil {
		return fmt.Errorf("failed to publish result for %s: %w", in.RequestID, err)
	}

	log.WithFields(map[string]interface{}{
		"company":     result.CompanyName,
		"error":       result.Error,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Assessment result published")
	return nil
}
