package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shubilet/expedition-service/internal/config"
	"github.com/sirupsen/logrus"
)

// EventType names a booking event
type EventType string

const (
	// TicketBooked is published after a ticket has been issued
	TicketBooked EventType = "ticket_booked"
	// BookingCompensated is published when a charged booking failed and was refunded
	BookingCompensated EventType = "booking_compensated"
)

// BookingEvent is the payload written to the booking topic
type BookingEvent struct {
	Type         EventType `json:"type"`
	HoldID       string    `json:"hold_id"`
	PNR          string    `json:"pnr,omitempty"`
	CustomerID   int64     `json:"customer_id"`
	ExpeditionID int64     `json:"expedition_id"`
	SeatNo       int       `json:"seat_no"`
	PaymentID    int64     `json:"payment_id,omitempty"`
	AmountCents  int64     `json:"amount_cents"`
	Refunded     bool      `json:"refunded,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Key partitions events of one booking together
func (e BookingEvent) Key() string {
	if e.PNR != "" {
		return e.PNR
	}
	return e.HoldID
}

// Publisher publishes booking events
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// messageWriter is the part of kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes booking events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

// NewPublisher returns a Kafka producer, or a no-op publisher when no brokers are configured
func NewPublisher(cfg config.KafkaConfig, logger *logrus.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("Kafka brokers not configured, booking events disabled")
		return NoopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newProducer(writer, cfg.BookingTopic, logger)
}

func newProducer(writer messageWriter, topic string, logger *logrus.Logger) *Producer {
	return &Producer{writer: writer, topic: topic, logger: logger}
}

// Publish writes one event keyed by PNR or hold id
func (p *Producer) Publish(ctx context.Context, event BookingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: data,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write booking event to Kafka: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic": p.topic,
		"key":   event.Key(),
		"type":  event.Type,
	}).Debug("Booking event published")
	return nil
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// Close does nothing
func (NoopPublisher) Close() error { return nil }
