package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"voicebook/internal/notifications/repository"
	"voicebook/internal/notifications/transport"
	"voicebook/pkg/config"
	"voicebook/pkg/metrics"
	"voicebook/pkg/model"
)

const ChannelSMS = "sms"

// jobStatuses drives the per-status depth gauge.
var jobStatuses = []string{
	model.JobStatusQueued,
	model.JobStatusProcessing,
	model.JobStatusDelivered,
	model.JobStatusFailed,
	model.JobStatusDeadLetter,
}

// NotificationQueue owns the shared job store: producers enqueue through
// it and the worker pool drains it. Delivery is globally rate limited
// across all workers so the provider never sees a burst above the cap.
type NotificationQueue struct {
	repo      repository.JobRepository
	transport transport.Transport
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewNotificationQueue(repo repository.JobRepository, t transport.Transport, m *metrics.Metrics, cfg *config.Config) *NotificationQueue {
	return &NotificationQueue{
		repo:      repo,
		transport: t,
		limiter:   rate.NewLimiter(rate.Limit(cfg.NotifyRatePerSec), cfg.NotifyRatePerSec),
		metrics:   m,
		cfg:       cfg,
	}
}

// EnqueueConfirmation queues an immediate confirmation message. It sorts
// ahead of reminders.
func (q *NotificationQueue) EnqueueConfirmation(ctx context.Context, booking *model.Booking) error {
	payload := fmt.Sprintf("Your appointment on %s is confirmed.",
		booking.ScheduledAt.Format("Mon, Jan 2 at 15:04 MST"))

	_, err := q.repo.Enqueue(ctx, &model.NotificationJobInput{
		TenantID:    booking.TenantID,
		BookingID:   booking.ID,
		Recipient:   booking.RequesterContact,
		Channel:     ChannelSMS,
		Payload:     payload,
		TriggerType: model.TriggerConfirmation,
	}, model.PriorityConfirmation, time.Now(), q.cfg.NotifyMaxAttempts)
	return err
}

// EnqueueReminder schedules a message for the day before the appointment.
// Bookings made inside that window get no reminder; the confirmation
// just went out.
func (q *NotificationQueue) EnqueueReminder(ctx context.Context, booking *model.Booking) error {
	notBefore := booking.ScheduledAt.Add(-24 * time.Hour)
	if notBefore.Before(time.Now()) {
		return nil
	}

	payload := fmt.Sprintf("Reminder: you have an appointment on %s.",
		booking.ScheduledAt.Format("Mon, Jan 2 at 15:04 MST"))

	_, err := q.repo.Enqueue(ctx, &model.NotificationJobInput{
		TenantID:    booking.TenantID,
		BookingID:   booking.ID,
		Recipient:   booking.RequesterContact,
		Channel:     ChannelSMS,
		Payload:     payload,
		TriggerType: model.TriggerReminder,
	}, model.PriorityReminder, notBefore, q.cfg.NotifyMaxAttempts)
	return err
}

// Run drains the queue until the context is cancelled. Each worker
// claims, delivers, and settles one job at a time.
func (q *NotificationQueue) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < q.cfg.NotifyWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			q.worker(ctx, workerID)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		q.reportQueueDepth(ctx)
	}()

	wg.Wait()
}

func (q *NotificationQueue) worker(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := q.repo.ClaimNext(ctx)
		if err != nil {
			if !errors.Is(err, repository.ErrNoJob) {
				q.cfg.Log.Error("Failed to claim notification job", "worker", workerID, "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.cfg.NotifyPollInterval):
			}
			continue
		}

		if err := q.limiter.Wait(ctx); err != nil {
			// Shutdown while holding a claimed job: put it back so
			// another worker can deliver it after restart.
			q.requeueClaimed(job, "shutdown before delivery")
			return
		}

		q.deliver(ctx, job)
	}
}

func (q *NotificationQueue) deliver(ctx context.Context, job *model.NotificationJob) {
	result, deliverErr := q.transport.Deliver(ctx, job)

	attempt := &model.DeliveryAttempt{
		JobID:   job.ID,
		Attempt: job.Attempt,
	}
	if deliverErr != nil {
		attempt.Outcome = model.JobStatusFailed
		attempt.Error = deliverErr.Error()
	} else {
		attempt.Outcome = model.JobStatusDelivered
		if result != nil {
			attempt.ProviderRef = result.ProviderRef
		}
	}
	if err := q.repo.RecordAttempt(ctx, attempt); err != nil {
		q.cfg.Log.Error("Failed to record delivery attempt", "job_id", job.ID, "error", err)
	}

	if deliverErr == nil {
		if err := q.repo.MarkDelivered(ctx, job.ID); err != nil {
			q.cfg.Log.Error("Failed to mark job delivered", "job_id", job.ID, "error", err)
		}
		q.countAttempt("delivered")
		q.cfg.Log.Info("Notification delivered",
			"job_id", job.ID,
			"tenant_id", job.TenantID,
			"trigger", job.TriggerType,
			"attempt", job.Attempt,
		)
		return
	}

	q.countAttempt("failed")

	if transport.IsPermanent(deliverErr) || job.Attempt >= job.MaxAttempts {
		if err := q.repo.MarkDeadLetter(ctx, job.ID, deliverErr.Error()); err != nil {
			q.cfg.Log.Error("Failed to dead-letter job", "job_id", job.ID, "error", err)
			return
		}
		if q.metrics != nil {
			q.metrics.NotifyDeadLettered.Inc()
		}
		q.cfg.Log.Warn("Notification moved to dead letter",
			"job_id", job.ID,
			"tenant_id", job.TenantID,
			"attempts", job.Attempt,
			"error", deliverErr,
		)
		return
	}

	nextAttemptAt := time.Now().Add(q.backoffDelay(job.Attempt))
	if err := q.repo.Reschedule(ctx, job.ID, job.Attempt, nextAttemptAt, deliverErr.Error()); err != nil {
		q.cfg.Log.Error("Failed to reschedule job", "job_id", job.ID, "error", err)
		return
	}
	q.cfg.Log.Warn("Notification delivery failed, rescheduled",
		"job_id", job.ID,
		"attempt", job.Attempt,
		"next_attempt_at", nextAttemptAt,
		"error", deliverErr,
	)
}

// backoffDelay doubles per attempt from the configured base: 1s, 2s, 4s,
// 8s, 16s with the defaults.
func (q *NotificationQueue) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return q.cfg.NotifyBackoffBase << (attempt - 1)
}

func (q *NotificationQueue) requeueClaimed(job *model.NotificationJob, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := q.repo.Reschedule(ctx, job.ID, job.Attempt, time.Now(), reason); err != nil {
		q.cfg.Log.Error("Failed to requeue claimed job on shutdown", "job_id", job.ID, "error", err)
	}
}

func (q *NotificationQueue) reportQueueDepth(ctx context.Context) {
	if q.metrics == nil {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := q.repo.CountByStatus(ctx)
			if err != nil {
				q.cfg.Log.Error("Failed to read queue depth", "error", err)
				continue
			}
			q.setQueueDepth(counts)
		}
	}
}

// setQueueDepth writes every status explicitly so an emptied state reads
// 0 instead of holding its last value.
func (q *NotificationQueue) setQueueDepth(counts map[string]int64) {
	for _, status := range jobStatuses {
		q.metrics.NotifyJobsByStatus.WithLabelValues(status).Set(float64(counts[status]))
	}
}

func (q *NotificationQueue) countAttempt(result string) {
	if q.metrics != nil {
		q.metrics.NotifyAttemptsTotal.WithLabelValues(result).Inc()
	}
}
