package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"voicebook/internal/notifications/repository"
	"voicebook/internal/notifications/transport"
	"voicebook/pkg/config"
	"voicebook/pkg/logger"
	"voicebook/pkg/metrics"
	"voicebook/pkg/model"
)

type mockJobRepository struct {
	mu           sync.Mutex
	enqueued     []*model.NotificationJob
	attempts     []*model.DeliveryAttempt
	delivered    []string
	rescheduled  []rescheduleCall
	deadLettered []deadLetterCall

	claimNextFunc func(ctx context.Context) (*model.NotificationJob, error)
}

type rescheduleCall struct {
	jobID         string
	attempt       int
	nextAttemptAt time.Time
	lastError     string
}

type deadLetterCall struct {
	jobID     string
	lastError string
}

func (m *mockJobRepository) Enqueue(_ context.Context, input *model.NotificationJobInput, triggerPriority int, notBefore time.Time, maxAttempts int) (*model.NotificationJob, error) {
	job := &model.NotificationJob{
		ID:            "job-1",
		TenantID:      input.TenantID,
		BookingID:     input.BookingID,
		Recipient:     input.Recipient,
		Channel:       input.Channel,
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

func (m *mockJobRepository) ClaimNext(ctx context.Context) (*model.NotificationJob, error) {
	if m.claimNextFunc != nil {
		return m.claimNextFunc(ctx)
	}
	return nil, repository.ErrNoJob
}

func (m *mockJobRepository) MarkDelivered(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, jobID)
	return nil
}

func (m *mockJobRepository) Reschedule(_ context.Context, jobID string, attempt int, nextAttemptAt time.Time, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rescheduled = append(m.rescheduled, rescheduleCall{jobID, attempt, nextAttemptAt, lastError})
	return nil
}

func (m *mockJobRepository) MarkDeadLetter(_ context.Context, jobID string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadLettered = append(m.deadLettered, deadLetterCall{jobID, lastError})
	return nil
}

func (m *mockJobRepository) RecordAttempt(_ context.Context, attempt *model.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
	return nil
}

func (m *mockJobRepository) deliveredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.delivered)
}

func (m *mockJobRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (m *mockJobRepository) FindByBooking(_ context.Context, _, _ string) ([]*model.NotificationJob, error) {
	return nil, nil
}

func (m *mockJobRepository) AttemptsForJob(_ context.Context, _ string) ([]*model.DeliveryAttempt, error) {
	return nil, nil
}

type mockTransport struct {
	deliverFunc func(ctx context.Context, job *model.NotificationJob) (*transport.Result, error)
	calls       atomic.Int64
}

func (m *mockTransport) Deliver(ctx context.Context, job *model.NotificationJob) (*transport.Result, error) {
	m.calls.Add(1)
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, job)
	}
	return &transport.Result{ProviderRef: "provider-ref-1"}, nil
}

func newTestQueue(repo *mockJobRepository, t *mockTransport) *NotificationQueue {
	cfg := &config.Config{
		NotifyWorkers:      2,
		NotifyRatePerSec:   100,
		NotifyMaxAttempts:  5,
		NotifyBackoffBase:  time.Second,
		NotifyPollInterval: 5 * time.Millisecond,
		Log:                logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard}),
	}
	return NewNotificationQueue(repo, t, nil, cfg)
}

func testBooking(scheduledAt time.Time) *model.Booking {
	return &model.Booking{
		ID:               "507f1f77bcf86cd799439011",
		TenantID:         "tenant-1",
		ResourceID:       "507f1f77bcf86cd799439012",
		RequesterContact: "+15551230001",
		ScheduledAt:      scheduledAt,
	}
}

func testJob(attempt int) *model.NotificationJob {
	return &model.NotificationJob{
		ID:          "job-1",
		TenantID:    "tenant-1",
		BookingID:   "507f1f77bcf86cd799439011",
		Recipient:   "+15551230001",
		Channel:     ChannelSMS,
		Payload:     "Reminder: you have an appointment.",
		TriggerType: model.TriggerReminder,
		Priority:    model.PriorityReminder,
		Attempt:     attempt,
		MaxAttempts: 5,
		Status:      model.JobStatusProcessing,
	}
}

func TestEnqueueConfirmation(t *testing.T) {
	repo := &mockJobRepository{}
	q := newTestQueue(repo, &mockTransport{})

	booking := testBooking(time.Now().Add(48 * time.Hour))
	if err := q.EnqueueConfirmation(context.Background(), booking); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(repo.enqueued))
	}
	job := repo.enqueued[0]
	if job.Priority != model.PriorityConfirmation {
		t.Errorf("expected priority %d, got %d", model.PriorityConfirmation, job.Priority)
	}
	if job.TriggerType != model.TriggerConfirmation {
		t.Errorf("expected trigger %q, got %q", model.TriggerConfirmation, job.TriggerType)
	}
	if job.Recipient != booking.RequesterContact {
		t.Errorf("expected recipient %q, got %q", booking.RequesterContact, job.Recipient)
	}
	if job.NextAttemptAt.After(time.Now()) {
		t.Error("expected confirmation to be deliverable immediately")
	}
}

func TestEnqueueReminderSchedulesDayBefore(t *testing.T) {
	repo := &mockJobRepository{}
	q := newTestQueue(repo, &mockTransport{})

	scheduledAt := time.Now().Add(72 * time.Hour)
	if err := q.EnqueueReminder(context.Background(), testBooking(scheduledAt)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(repo.enqueued))
	}
	job := repo.enqueued[0]
	if job.Priority != model.PriorityReminder {
		t.Errorf("expected priority %d, got %d", model.PriorityReminder, job.Priority)
	}
	want := scheduledAt.Add(-24 * time.Hour)
	if !job.NextAttemptAt.Equal(want) {
		t.Errorf("expected reminder at %v, got %v", want, job.NextAttemptAt)
	}
}

func TestEnqueueReminderSkippedInsideWindow(t *testing.T) {
	repo := &mockJobRepository{}
	q := newTestQueue(repo, &mockTransport{})

	if err := q.EnqueueReminder(context.Background(), testBooking(time.Now().Add(2*time.Hour))); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.enqueued) != 0 {
		t.Fatalf("expected no reminder inside the 24h window, got %d jobs", len(repo.enqueued))
	}
}

func TestDeliverSuccess(t *testing.T) {
	repo := &mockJobRepository{}
	q := newTestQueue(repo, &mockTransport{})

	q.deliver(context.Background(), testJob(1))

	if len(repo.delivered) != 1 || repo.delivered[0] != "job-1" {
		t.Fatalf("expected job-1 marked delivered, got %v", repo.delivered)
	}
	if len(repo.attempts) != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", len(repo.attempts))
	}
	attempt := repo.attempts[0]
	if attempt.Outcome != model.JobStatusDelivered {
		t.Errorf("expected outcome %q, got %q", model.JobStatusDelivered, attempt.Outcome)
	}
	if attempt.ProviderRef != "provider-ref-1" {
		t.Errorf("expected provider ref recorded, got %q", attempt.ProviderRef)
	}
	if len(repo.rescheduled) != 0 || len(repo.deadLettered) != 0 {
		t.Error("expected no reschedule or dead letter on success")
	}
}

func TestDeliverTransientFailureBackoffSchedule(t *testing.T) {
	sendErr := errors.New("connection refused")
	tests := []struct {
		attempt   int
		wantDelay time.Duration
	}{
		{attempt: 1, wantDelay: 1 * time.Second},
		{attempt: 2, wantDelay: 2 * time.Second},
		{attempt: 3, wantDelay: 4 * time.Second},
		{attempt: 4, wantDelay: 8 * time.Second},
	}

	for _, tt := range tests {
		repo := &mockJobRepository{}
		q := newTestQueue(repo, &mockTransport{
			deliverFunc: func(_ context.Context, _ *model.NotificationJob) (*transport.Result, error) {
				return nil, sendErr
			},
		})

		before := time.Now()
		q.deliver(context.Background(), testJob(tt.attempt))

		if len(repo.rescheduled) != 1 {
			t.Fatalf("attempt %d: expected 1 reschedule, got %d", tt.attempt, len(repo.rescheduled))
		}
		call := repo.rescheduled[0]
		gotDelay := call.nextAttemptAt.Sub(before)
		if gotDelay < tt.wantDelay || gotDelay > tt.wantDelay+time.Second {
			t.Errorf("attempt %d: expected backoff ~%v, got %v", tt.attempt, tt.wantDelay, gotDelay)
		}
		if call.lastError != sendErr.Error() {
			t.Errorf("attempt %d: expected last error recorded, got %q", tt.attempt, call.lastError)
		}
		if len(repo.deadLettered) != 0 {
			t.Errorf("attempt %d: expected no dead letter", tt.attempt)
		}
		if len(repo.attempts) != 1 || repo.attempts[0].Outcome != model.JobStatusFailed {
			t.Errorf("attempt %d: expected 1 failed attempt record", tt.attempt)
		}
	}
}

func TestDeliverDeadLetterAtMaxAttempts(t *testing.T) {
	repo := &mockJobRepository{}
	q := newTestQueue(repo, &mockTransport{
		deliverFunc: func(_ context.Context, _ *model.NotificationJob) (*transport.Result, error) {
			return nil, errors.New("gateway timeout")
		},
	})

	q.deliver(context.Background(), testJob(5))

	if len(repo.deadLettered) != 1 {
		t.Fatalf("expected dead letter at attempt 5, got %d", len(repo.deadLettered))
	}
	if repo.deadLettered[0].lastError != "gateway timeout" {
		t.Errorf("expected last error preserved, got %q", repo.deadLettered[0].lastError)
	}
	if len(repo.rescheduled) != 0 {
		t.Error("expected no reschedule past the attempt cap")
	}
}

func TestDeliverPermanentErrorShortCircuits(t *testing.T) {
	repo := &mockJobRepository{}
	q := newTestQueue(repo, &mockTransport{
		deliverFunc: func(_ context.Context, _ *model.NotificationJob) (*transport.Result, error) {
			return nil, transport.Permanent(errors.New("invalid recipient number"))
		},
	})

	q.deliver(context.Background(), testJob(1))

	if len(repo.deadLettered) != 1 {
		t.Fatalf("expected immediate dead letter on permanent error, got %d", len(repo.deadLettered))
	}
	if len(repo.rescheduled) != 0 {
		t.Error("expected no retries for a permanent failure")
	}
}

func TestRunDrainsQueueAndStops(t *testing.T) {
	jobs := make(chan *model.NotificationJob, 3)
	for i := 0; i < 3; i++ {
		jobs <- testJob(1)
	}

	repo := &mockJobRepository{}
	repo.claimNextFunc = func(_ context.Context) (*model.NotificationJob, error) {
		select {
		case job := <-jobs:
			return job, nil
		default:
			return nil, repository.ErrNoJob
		}
	}

	tr := &mockTransport{}
	q := newTestQueue(repo, tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for tr.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("workers delivered %d of 3 jobs before deadline", tr.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}

	if got := repo.deliveredCount(); got != 3 {
		t.Errorf("expected 3 jobs marked delivered, got %d", got)
	}
}

func TestQueueDepthReportsEveryStatus(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	q := newTestQueue(&mockJobRepository{}, &mockTransport{})
	q.metrics = m

	q.setQueueDepth(map[string]int64{
		model.JobStatusQueued:     4,
		model.JobStatusProcessing: 2,
		model.JobStatusDeadLetter: 1,
	})

	want := map[string]float64{
		model.JobStatusQueued:     4,
		model.JobStatusProcessing: 2,
		model.JobStatusDelivered:  0,
		model.JobStatusFailed:     0,
		model.JobStatusDeadLetter: 1,
	}
	for status, depth := range want {
		if got := testutil.ToFloat64(m.NotifyJobsByStatus.WithLabelValues(status)); got != depth {
			t.Errorf("depth[%s] = %v, want %v", status, got, depth)
		}
	}

	// A drained state must overwrite stale values, not hold them.
	q.setQueueDepth(map[string]int64{})
	for _, status := range jobStatuses {
		if got := testutil.ToFloat64(m.NotifyJobsByStatus.WithLabelValues(status)); got != 0 {
			t.Errorf("depth[%s] = %v after drain, want 0", status, got)
		}
	}
}
