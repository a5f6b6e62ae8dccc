// Package events publishes client lifecycle notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const clientEventsTopic = "client_events"

// ClientRegistered is emitted after a successful signup.
type ClientRegistered struct {
	EventID    string    `json:"event_id"`
	ClientID   int       `json:"client_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CallbackUpdated is emitted after a callback-URL change.
type CallbackUpdated struct {
	EventID    string    `json:"event_id"`
	ClientID   int       `json:"client_id"`
	Callback   string    `json:"callback"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaPublisher lazily manages writers per topic. Publishing is
// best-effort: failures are logged, never surfaced to the caller.
type KafkaPublisher struct {
	brokers []string
	log     *logrus.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, log *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		log:     log,
		writers: make(map[string]*kafka.Writer),
	}
}

// ClientRegistered implements registry.Publisher.
func (p *KafkaPublisher) ClientRegistered(ctx context.Context, clientID int, name string) {
	p.publish(ctx, clientID, "client.registered", ClientRegistered{
		EventID:    uuid.NewString(),
		ClientID:   clientID,
		Name:       name,
		OccurredAt: time.Now().UTC(),
	})
}

// CallbackUpdated implements registry.Publisher.
func (p *KafkaPublisher) CallbackUpdated(ctx context.Context, clientID int, callback string) {
	p.publish(ctx, clientID, "client.callback_updated", CallbackUpdated{
		EventID:    uuid.NewString(),
		ClientID:   clientID,
		Callback:   callback,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, clientID int, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.WithFields(logrus.Fields{"event": eventType, "err": err}).Error("failed to marshal client event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(clientID)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writerForTopic(clientEventsTopic).WriteMessages(ctx, msg); err != nil {
		p.log.WithFields(logrus.Fields{"event": eventType, "err": err}).Error("failed to publish client event")
	}
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
