package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"voicebook/pkg/kafka"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

type mockProducer struct {
	published   []kafka.Message
	publishFunc func(ctx context.Context, msg kafka.Message) error
}

func (m *mockProducer) Publish(ctx context.Context, msg kafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, msg)
	}
	m.published = append(m.published, msg)
	return nil
}

func TestPublishBookingEvent(t *testing.T) {
	producer := &mockProducer{}
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	publisher := NewKafkaPublisher(producer, log)

	booking := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		TenantID:    "tenant-1",
		ResourceID:  "507f1f77bcf86cd799439012",
		ScheduledAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Duration:    30,
		Status:      model.BookingStatusBooked,
	}

	if err := publisher.PublishBookingEvent(context.Background(), model.EventBookingCreated, booking); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(producer.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(producer.published))
	}
	msg := producer.published[0]
	if msg.Key != "tenant-1/507f1f77bcf86cd799439012" {
		t.Errorf("expected tenant/resource partition key, got %q", msg.Key)
	}
	if msg.GetEventType() != model.EventBookingCreated {
		t.Errorf("expected event type %q, got %q", model.EventBookingCreated, msg.GetEventType())
	}

	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		t.Fatalf("decoding event payload: %v", err)
	}
	if event.BookingID != booking.ID {
		t.Errorf("expected booking id %q, got %q", booking.ID, event.BookingID)
	}
	if event.OccurredAt.IsZero() {
		t.Error("expected occurred_at to be set")
	}
}

func TestPublishBookingEventProducerFailure(t *testing.T) {
	producer := &mockProducer{
		publishFunc: func(_ context.Context, _ kafka.Message) error {
			return errors.New("broker unavailable")
		},
	}
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	publisher := NewKafkaPublisher(producer, log)

	err := publisher.PublishBookingEvent(context.Background(), model.EventBookingCancelled, &model.Booking{
		ID:         "507f1f77bcf86cd799439011",
		TenantID:   "tenant-1",
		ResourceID: "507f1f77bcf86cd799439012",
	})
	if err == nil {
		t.Fatal("expected error when producer fails")
	}
}
