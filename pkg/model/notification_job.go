package model

import "time"

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusDelivered  = "delivered"
	JobStatusFailed     = "failed"
	JobStatusDeadLetter = "dead_letter"
)

const (
	TriggerConfirmation = "confirmation"
	TriggerReminder     = "reminder"
)

// Job priorities. Lower sorts first when claiming work, so booking
// confirmations are always delivered ahead of best-effort reminders.
const (
	PriorityConfirmation = 0
	PriorityReminder     = 10
)

type NotificationJob struct {
	ID            string    `json:"id" bson:"_id"`
	TenantID      string    `json:"tenant_id" bson:"tenant_id"`
	BookingID     string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Recipient     string    `json:"recipient" bson:"recipient"`
	Channel       string    `json:"channel" bson:"channel"`
	Payload       string    `json:"payload" bson:"payload"`
	TriggerType   string    `json:"trigger_type" bson:"trigger_type"`
	Priority      int       `json:"priority" bson:"priority"`
	Attempt       int       `json:"attempt" bson:"attempt"`
	MaxAttempts   int       `json:"max_attempts" bson:"max_attempts"`
	Status        string    `json:"status" bson:"status"`
	LastError     string    `json:"last_error,omitempty" bson:"last_error,omitempty"`
	NextAttemptAt time.Time `json:"next_attempt_at" bson:"next_attempt_at"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitempty" bson:"last_attempt_at,omitempty"`
}

// Terminal reports whether the job reached a state that must never change.
func (j *NotificationJob) Terminal() bool {
	return j.Status == JobStatusDelivered || j.Status == JobStatusDeadLetter
}

type NotificationJobInput struct {
	TenantID    string
	BookingID   string
	Recipient   string
	Channel     string
	Payload     string
	TriggerType string
}

// DeliveryAttempt is one append-only audit record per delivery try.
type DeliveryAttempt struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	JobID       string    `json:"job_id" bson:"job_id"`
	Attempt     int       `json:"attempt" bson:"attempt"`
	Outcome     string    `json:"outcome" bson:"outcome"`
	Error       string    `json:"error,omitempty" bson:"error,omitempty"`
	ProviderRef string    `json:"provider_ref,omitempty" bson:"provider_ref,omitempty"`
	AttemptedAt time.Time `json:"attempted_at" bson:"attempted_at"`
}
