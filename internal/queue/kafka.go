package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// CorrelationHeader is the Kafka header carrying the request's correlation id
const CorrelationHeader = "correlation_id"

// Config holds the broker and topic settings
type Config struct {
	Brokers      []string
	RequestTopic string
	ResultTopic  string
	GroupID      string
}

// messageWriter is the subset of *kafka.Writer the service uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Service publishes assessment requests and results
type Service struct {
	config Config
	writer messageWriter
	logger *logrus.Logger
}

// NewService creates a Kafka service. The writer has no default topic; every
// message names its own.
func NewService(cfg Config) *Service {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}

	return &Service{
		config: cfg,
		writer: writer,
		logger: logger.Log,
	}
}

// PublishRequest queues one company for the worker
func (s *Service) PublishRequest(ctx context.Context, in models.AssessmentInput) error {
	msg, err := RequestMessage(s.config.RequestTopic, in)
	if err != nil {
		return err
	}
	return s.publish(ctx, msg)
}

// PublishResult emits one finished assessment keyed by its request id
func (s *Service) PublishResult(ctx context.Context, result models.CompanyAssessment) error {
	msg, err := ResultMessage(s.config.ResultTopic, result)
	if err != nil {
		return err
	}
	return s.publish(ctx, msg)
}

func (s *Service) publish(ctx context.Context, msg kafka.Message) error {
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"correlation_id": string(msg.Key),
		"topic":          msg.Topic,
		"bytes":          len(msg.Value),
	}).Info("Message published")
	return nil
}

// CreateConsumer returns a group reader on the request topic
func (s *Service) CreateConsumer(groupID string) *kafka.Reader {
	if groupID == "" {
		groupID = s.config.GroupID
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        s.config.Brokers,
		GroupID:        groupID,
		Topic:          s.config.RequestTopic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// Close flushes and closes the writer
func (s *Service) Close() error {
	return s.writer.Close()
}

// RequestMessage encodes an input keyed by its request id, which must be set
func RequestMessage(topic string, in models.AssessmentInput) (kafka.Message, error) {
	if strings.TrimSpace(in.RequestID) == "" {
		return kafka.Message{}, fmt.Errorf("request for %q has no request id", in.CompanyName)
	}
	value, err := json.Marshal(in)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode assessment request: %w", err)
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(in.RequestID),
		Value:   value,
		Headers: []kafka.Header{{Key: CorrelationHeader, Value: []byte(in.RequestID)}},
	}, nil
}

// ResultMessage encodes a finished assessment
func ResultMessage(topic string, result models.CompanyAssessment) (kafka.Message, error) {
	value, err := json.Marshal(result)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode assessment result: %w", err)
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(result.RequestID),
		Value:   value,
		Headers: []kafka.Header{{Key: CorrelationHeader, Value: []byte(result.RequestID)}},
	}, nil
}

// DecodeRequest parses a request message. A missing request id is taken from the
// correlation header, then from the message key.
func DecodeRequest(msg kafka.Message) (models.AssessmentInput, error) {
	var in models.AssessmentInput
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		return models.AssessmentInput{}, fmt.Errorf("failed to decode assessment request: %w", err)
	}
	if in.RequestID == "" {
		in.RequestID = headerValue(msg.Headers, CorrelationHeader)
	}
	if in.RequestID == "" {
		in.RequestID = string(msg.Key)
	}
	return in, nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
