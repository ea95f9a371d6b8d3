package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voicebook/pkg/config"
	"voicebook/pkg/model"
)

const (
	JobCollectionName     = "Notification_jobs"
	AttemptCollectionName = "Delivery_attempts"
)

// ErrNoJob signals an empty queue, not a failure.
var ErrNoJob = errors.New("no claimable notification job")

type JobRepository interface {
	Enqueue(ctx context.Context, input *model.NotificationJobInput, triggerPriority int, notBefore time.Time, maxAttempts int) (*model.NotificationJob, error)
	ClaimNext(ctx context.Context) (*model.NotificationJob, error)
	MarkDelivered(ctx context.Context, jobID string) error
	Reschedule(ctx context.Context, jobID string, attempt int, nextAttemptAt time.Time, lastError string) error
	MarkDeadLetter(ctx context.Context, jobID string, lastError string) error
	RecordAttempt(ctx context.Context, attempt *model.DeliveryAttempt) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	FindByBooking(ctx context.Context, tenantID, bookingID string) ([]*model.NotificationJob, error)
	AttemptsForJob(ctx context.Context, jobID string) ([]*model.DeliveryAttempt, error)
}

type mongoJobRepository struct {
	cfg      *config.Config
	jobs     *mongo.Collection
	attempts *mongo.Collection
}

func NewMongoJobRepository(cfg *config.Config) JobRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoJobRepository{
		cfg:      cfg,
		jobs:     db.Collection(JobCollectionName),
		attempts: db.Collection(AttemptCollectionName),
	}
}

func (r *mongoJobRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoJobRepository) Enqueue(ctx context.Context, input *model.NotificationJobInput, triggerPriority int, notBefore time.Time, maxAttempts int) (*model.NotificationJob, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := &model.NotificationJob{
		ID:            uuid.New().String(),
		TenantID:      input.TenantID,
		BookingID:     input.BookingID,
		Recipient:     input.Recipient,
		Channel:       input.Channel,
		Payload:       input.Payload,
		TriggerType:   input.TriggerType,
		Priority:      triggerPriority,
		Attempt:       0,
		MaxAttempts:   maxAttempts,
		Status:        model.JobStatusQueued,
		NextAttemptAt: notBefore.UTC(),
		CreatedAt:     now,
	}

	if _, err := r.jobs.InsertOne(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue notification job: %w", err)
	}

	return job, nil
}

// ClaimNext atomically moves the most urgent due job from queued to
// processing. FindOneAndUpdate is what makes multiple workers (and
// multiple service instances) safe against double delivery.
func (r *mongoJobRepository) ClaimNext(ctx context.Context) (*model.NotificationJob, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":          model.JobStatusQueued,
		"next_attempt_at": bson.M{"$lte": time.Now().UTC()},
	}
	update := bson.M{
		"$set": bson.M{
			"status":          model.JobStatusProcessing,
			"last_attempt_at": time.Now().UTC(),
		},
		"$inc": bson.M{"attempt": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)

	var job model.NotificationJob
	err := r.jobs.FindOneAndUpdate(ctx, filter, update, opts).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("failed to claim notification job: %w", err)
	}

	return &job, nil
}

func (r *mongoJobRepository) MarkDelivered(ctx context.Context, jobID string) error {
	return r.transition(ctx, jobID, model.JobStatusProcessing, bson.M{
		"status": model.JobStatusDelivered,
	})
}

// Reschedule puts a failed job back in the queue with its backoff delay.
func (r *mongoJobRepository) Reschedule(ctx context.Context, jobID string, attempt int, nextAttemptAt time.Time, lastError string) error {
	return r.transition(ctx, jobID, model.JobStatusProcessing, bson.M{
		"status":          model.JobStatusQueued,
		"attempt":         attempt,
		"next_attempt_at": nextAttemptAt.UTC(),
		"last_error":      lastError,
	})
}

func (r *mongoJobRepository) MarkDeadLetter(ctx context.Context, jobID string, lastError string) error {
	return r.transition(ctx, jobID, model.JobStatusProcessing, bson.M{
		"status":     model.JobStatusDeadLetter,
		"last_error": lastError,
	})
}

// transition only moves jobs out of the expected current status, so a
// terminal job can never be resurrected by a stale worker.
func (r *mongoJobRepository) transition(ctx context.Context, jobID, fromStatus string, set bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.jobs.UpdateOne(ctx,
		bson.M{"_id": jobID, "status": fromStatus},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update notification job %s: %w", jobID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification job %s not in status %s", jobID, fromStatus)
	}
	return nil
}

func (r *mongoJobRepository) RecordAttempt(ctx context.Context, attempt *model.DeliveryAttempt) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	attempt.ID = uuid.New().String()
	attempt.AttemptedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.attempts.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record delivery attempt: %w", err)
	}
	return nil
}

func (r *mongoJobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.jobs.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode job counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *mongoJobRepository) FindByBooking(ctx context.Context, tenantID, bookingID string) ([]*model.NotificationJob, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.jobs.Find(ctx,
		bson.M{"tenant_id": tenantID, "booking_id": bookingID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find jobs for booking: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []*model.NotificationJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

func (r *mongoJobRepository) AttemptsForJob(ctx context.Context, jobID string) ([]*model.DeliveryAttempt, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.attempts.Find(ctx,
		bson.M{"job_id": jobID},
		options.Find().SetSort(bson.D{{Key: "attempted_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find delivery attempts: %w", err)
	}
	defer cursor.Close(ctx)

	var attempts []*model.DeliveryAttempt
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, fmt.Errorf("failed to decode delivery attempts: %w", err)
	}
	return attempts, nil
}
