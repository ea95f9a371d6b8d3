package events

import (
	"context"
	"fmt"
	"time"

	"voicebook/internal/notifications/repository"
	"voicebook/pkg/kafka"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

// ReminderIntake turns reminder requests from the stream into queued
// notification jobs. Malformed messages are permanent failures so the
// consumer routes them straight to the DLQ instead of retrying.
type ReminderIntake struct {
	repo        repository.JobRepository
	maxAttempts int
	log         *logger.Logger
}

func NewReminderIntake(repo repository.JobRepository, maxAttempts int, log *logger.Logger) *ReminderIntake {
	return &ReminderIntake{repo: repo, maxAttempts: maxAttempts, log: log}
}

// Handle is the consumer entry point for one reminder request.
func (ri *ReminderIntake) Handle(ctx context.Context, msg kafka.Message) error {
	var req model.ReminderRequest
	if err := msg.DecodeValue(&req); err != nil {
		return kafka.Permanent(fmt.Errorf("decoding reminder request: %w", err))
	}

	if err := validateRequest(&req); err != nil {
		return kafka.Permanent(err)
	}

	notBefore := req.RemindAt
	if notBefore.Before(time.Now()) {
		notBefore = time.Now()
	}

	job, err := ri.repo.Enqueue(ctx, &model.NotificationJobInput{
		TenantID:    req.TenantID,
		BookingID:   req.BookingID,
		Recipient:   req.Recipient,
		Channel:     "sms",
		Payload:     req.Message,
		TriggerType: model.TriggerReminder,
	}, model.PriorityReminder, notBefore, ri.maxAttempts)
	if err != nil {
		return fmt.Errorf("enqueueing reminder job: %w", err)
	}

	ri.log.Info("Reminder request accepted",
		"job_id", job.ID,
		"tenant_id", req.TenantID,
		"event_id", msg.GetEventID(),
		"remind_at", req.RemindAt,
	)
	return nil
}

func validateRequest(req *model.ReminderRequest) error {
	if req.TenantID == "" {
		return fmt.Errorf("reminder request missing tenant_id")
	}
	if req.Recipient == "" {
		return fmt.Errorf("reminder request missing recipient")
	}
	if req.Message == "" {
		return fmt.Errorf("reminder request missing message")
	}
	return nil
}
