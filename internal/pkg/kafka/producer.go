package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

const dialTimeout = 5 * time.Second

type Producer interface {
	Publish(ctx context.Context, event entity.ResizeEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the first reachable broker and makes sure the
// topic exists. When no broker answers it falls back to a producer that
// only logs, so a missing broker never blocks resizing.
func NewProducer(brokers []string, topic string) Producer {
	if len(brokers) == 0 {
		logrus.Warn("No Kafka brokers configured, using mock producer")
		return NewMockProducer(topic)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logrus.Infof("Kafka producer configured for brokers: %v", brokers)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	var conn *kafka.Conn
	var err error
	for _, broker := range brokers {
		conn, err = kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			break
		}
	}
	if conn == nil {
		logrus.Warnf("Kafka connection failed: %v", err)
		logrus.Warn("Using mock producer instead")
		writer.Close()
		return NewMockProducer(topic)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.Debugf("Could not create topic (might already exist): %v", err)
	}

	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) Publish(ctx context.Context, event entity.ResizeEvent) error {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Name),
		Value: messageBytes,
		Time:  event.Time,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.Errorf("Failed to write message to Kafka: %v", err)
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.topic, "asset": event.Name}).Debug("Resize event published")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// MockProducer records published events in memory and logs them.
type MockProducer struct {
	topic  string
	Events []entity.ResizeEvent
}

func NewMockProducer(topic string) *MockProducer {
	return &MockProducer{topic: topic}
}

func (m *MockProducer) Publish(ctx context.Context, event entity.ResizeEvent) error {
	logrus.WithFields(logrus.Fields{"topic": m.topic, "asset": event.Name}).Debug("MOCK: resize event")
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockProducer) Close() error {
	return nil
}

type noopProducer struct{}

// NewNoopProducer is used when events are disabled.
func NewNoopProducer() Producer { return noopProducer{} }

func (noopProducer) Publish(ctx context.Context, event entity.ResizeEvent) error { return nil }
func (noopProducer) Close() error                                                  { return nil }
