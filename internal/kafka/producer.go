package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-request/internal/logger"
	"ms-request/internal/models"
)

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
	logger *logger.Logger
}

// NewProducer publishes request changes to topic. Messages are keyed by
// request id so all changes of one request land on the same partition.
func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, topic, log)
}

func newProducer(w messageWriter, topic string, log *logger.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: log}
}

// PublishRequestChange streams a committed request change to Kafka
func (p *Producer) PublishRequestChange(ctx context.Context, change models.RequestChange) error {
	msgBytes, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", change.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(change.Request.ID, 10)),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(change.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", change.Type, p.topic, err)
	}

	p.logger.LogKafka("PUBLISH", p.topic, fmt.Sprintf("%s request=%d", change.Type, change.Request.ID))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
