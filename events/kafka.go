package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// NewKafkaWriter builds a writer for the ledger event topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// envelope is the wire shape of a relayed event
type envelope struct {
	Type    EventType `json:"type"`
	Payload Event     `json:"payload"`
}

// KafkaRelay forwards ledger events from the in-process bus to a Kafka
// topic so downstream consumers (analytics, fraud review) can follow the
// ledger without touching the database.
type KafkaRelay struct {
	writer *kafka.Writer
}

// NewKafkaRelay subscribes a relay to every event type on the bus
func NewKafkaRelay(bus *Bus, writer *kafka.Writer) *KafkaRelay {
	r := &KafkaRelay{writer: writer}
	for _, t := range []EventType{
		EventTypeAccountCreated,
		EventTypeAccountDeleted,
		EventTypeBalanceChange,
		EventTypeBetPlaced,
		EventTypeBetSettled,
		EventTypeTransactionResolved,
		EventTypeMatchResolved,
		EventTypeNotificationPosted,
	} {
		bus.Subscribe(t, r.relay)
	}
	return r
}

func (r *KafkaRelay) relay(ctx context.Context, event Event) {
	value, err := json.Marshal(envelope{Type: event.Type(), Payload: event})
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event for relay")
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.Type()),
		Value: value,
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Warn("Failed to relay event to kafka")
	}
}

// Close flushes and closes the underlying writer
func (r *KafkaRelay) Close() error {
	return r.writer.Close()
}
