package model

import "time"

// Kafka topics for the booking event stream and reminder intake.
const (
	TopicBookings     = "voicebook.bookings"
	TopicBookingsDLQ  = "voicebook.bookings.dlq"
	TopicReminders    = "voicebook.reminders"
	TopicRemindersDLQ = "voicebook.reminders.dlq"
)

// Event types published on TopicBookings.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload emitted whenever a booking changes state.
// Downstream consumers (the reminder scheduler, dashboards) use it to
// react without reading the primary store.
type BookingEvent struct {
	BookingID        string    `json:"booking_id"`
	TenantID         string    `json:"tenant_id"`
	ResourceID       string    `json:"resource_id"`
	RequesterName    string    `json:"requester_name"`
	RequesterContact string    `json:"requester_contact"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	Duration         int       `json:"duration_minutes"`
	Status           string    `json:"status"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// EventKey returns the partition key so all events for one calendar stay
// ordered.
func (e BookingEvent) EventKey() string {
	return e.TenantID + "/" + e.ResourceID
}

// ReminderRequest arrives on TopicReminders from callers that schedule
// reminders out of band (CRM syncs, ops tooling). The notifier turns each
// one into a queued notification job.
type ReminderRequest struct {
	TenantID  string    `json:"tenant_id"`
	BookingID string    `json:"booking_id,omitempty"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	RemindAt  time.Time `json:"remind_at"`
}
