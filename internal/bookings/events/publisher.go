package events

import (
	"context"
	"time"

	"voicebook/pkg/kafka"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

const sourceService = "bookings-api"

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher emits booking lifecycle events onto the booking stream,
// keyed by tenant and resource so per-calendar ordering holds.
type KafkaPublisher struct {
	producer messagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer messagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (p *KafkaPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) error {
	event := model.BookingEvent{
		BookingID:        booking.ID,
		TenantID:         booking.TenantID,
		ResourceID:       booking.ResourceID,
		RequesterName:    booking.RequesterName,
		RequesterContact: booking.RequesterContact,
		ScheduledAt:      booking.ScheduledAt,
		Duration:         booking.Duration,
		Status:           booking.Status,
		OccurredAt:       time.Now().UTC(),
	}

	msg, err := kafka.NewEventMessage(event.EventKey(), eventType, sourceService, event)
	if err != nil {
		return err
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return err
	}

	p.log.Debug("Published booking event",
		"event_type", eventType,
		"booking_id", booking.ID,
		"tenant_id", booking.TenantID,
	)
	return nil
}
