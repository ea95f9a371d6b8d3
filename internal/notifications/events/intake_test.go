package events

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"voicebook/pkg/kafka"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

type mockJobRepository struct {
	enqueued    []*model.NotificationJob
	enqueueFunc func(ctx context.Context, input *model.NotificationJobInput, triggerPriority int, notBefore time.Time, maxAttempts int) (*model.NotificationJob, error)
}

func (m *mockJobRepository) Enqueue(ctx context.Context, input *model.NotificationJobInput, triggerPriority int, notBefore time.Time, maxAttempts int) (*model.NotificationJob, error) {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, input, triggerPriority, notBefore, maxAttempts)
	}
	job := &model.NotificationJob{
		ID:            "job-1",
		TenantID:      input.TenantID,
		Recipient:     input.Recipient,
		Payload:       input.Payload,
		TriggerType:   input.TriggerType,
		Priority:      triggerPriority,
		MaxAttempts:   maxAttempts,
		Status:        model.JobStatusQueued,
		NextAttemptAt: notBefore,
	}
	m.enqueued = append(m.enqueued, job)
	return job, nil
}

func (m *mockJobRepository) ClaimNext(_ context.Context) (*model.NotificationJob, error) {
	return nil, nil
}
func (m *mockJobRepository) MarkDelivered(_ context.Context, _ string) error { return nil }
func (m *mockJobRepository) Reschedule(_ context.Context, _ string, _ int, _ time.Time, _ string) error {
	return nil
}
func (m *mockJobRepository) MarkDeadLetter(_ context.Context, _, _ string) error { return nil }
func (m *mockJobRepository) RecordAttempt(_ context.Context, _ *model.DeliveryAttempt) error {
	return nil
}
func (m *mockJobRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	return nil, nil
}
func (m *mockJobRepository) FindByBooking(_ context.Context, _, _ string) ([]*model.NotificationJob, error) {
	return nil, nil
}
func (m *mockJobRepository) AttemptsForJob(_ context.Context, _ string) ([]*model.DeliveryAttempt, error) {
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func reminderMessage(t *testing.T, req model.ReminderRequest) kafka.Message {
	t.Helper()
	value, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	return kafka.Message{Key: req.TenantID, Value: value, Topic: model.TopicReminders}
}

func TestHandleEnqueuesReminderJob(t *testing.T) {
	repo := &mockJobRepository{}
	intake := NewReminderIntake(repo, 5, testLogger())

	remindAt := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	msg := reminderMessage(t, model.ReminderRequest{
		TenantID:  "tenant-1",
		BookingID: "507f1f77bcf86cd799439011",
		Recipient: "+15551230001",
		Message:   "Reminder: appointment tomorrow at 10:00.",
		RemindAt:  remindAt,
	})

	if err := intake.Handle(context.Background(), msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(repo.enqueued))
	}
	job := repo.enqueued[0]
	if job.Priority != model.PriorityReminder {
		t.Errorf("expected reminder priority, got %d", job.Priority)
	}
	if job.TriggerType != model.TriggerReminder {
		t.Errorf("expected reminder trigger, got %q", job.TriggerType)
	}
	if !job.NextAttemptAt.Equal(remindAt) {
		t.Errorf("expected job scheduled at %v, got %v", remindAt, job.NextAttemptAt)
	}
}

func TestHandlePastRemindAtDeliversImmediately(t *testing.T) {
	repo := &mockJobRepository{}
	intake := NewReminderIntake(repo, 5, testLogger())

	msg := reminderMessage(t, model.ReminderRequest{
		TenantID:  "tenant-1",
		Recipient: "+15551230001",
		Message:   "Overdue reminder.",
		RemindAt:  time.Now().Add(-1 * time.Hour),
	})

	if err := intake.Handle(context.Background(), msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(repo.enqueued))
	}
	if repo.enqueued[0].NextAttemptAt.After(time.Now().Add(time.Second)) {
		t.Error("expected past remind_at clamped to now")
	}
}

func TestHandleRejectsMalformedPayloadPermanently(t *testing.T) {
	repo := &mockJobRepository{}
	intake := NewReminderIntake(repo, 5, testLogger())

	msg := kafka.Message{Key: "tenant-1", Value: []byte("{not json"), Topic: model.TopicReminders}
	err := intake.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if kafka.IsRetryable(err) {
		t.Error("expected malformed payload to be permanent")
	}
	if len(repo.enqueued) != 0 {
		t.Error("expected nothing enqueued")
	}
}

func TestHandleRejectsIncompleteRequests(t *testing.T) {
	tests := []struct {
		name string
		req  model.ReminderRequest
	}{
		{
			name: "missing tenant",
			req:  model.ReminderRequest{Recipient: "+15551230001", Message: "hi", RemindAt: time.Now()},
		},
		{
			name: "missing recipient",
			req:  model.ReminderRequest{TenantID: "tenant-1", Message: "hi", RemindAt: time.Now()},
		},
		{
			name: "missing message",
			req:  model.ReminderRequest{TenantID: "tenant-1", Recipient: "+15551230001", RemindAt: time.Now()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockJobRepository{}
			intake := NewReminderIntake(repo, 5, testLogger())

			err := intake.Handle(context.Background(), reminderMessage(t, tt.req))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if kafka.IsRetryable(err) {
				t.Error("expected validation failure to be permanent")
			}
			if len(repo.enqueued) != 0 {
				t.Error("expected nothing enqueued")
			}
		})
	}
}
