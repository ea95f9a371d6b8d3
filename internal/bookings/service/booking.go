package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingserrors "voicebook/internal/bookings/errors"
	"voicebook/internal/bookings/repository"
	"voicebook/internal/bookings/validator"
	"voicebook/pkg/config"
	apperrors "voicebook/pkg/errors"
	"voicebook/pkg/metrics"
	"voicebook/pkg/model"
	"voicebook/pkg/sanitizer"
	"voicebook/pkg/sealer"
	"voicebook/pkg/slotlock"
)

// ResourceStore resolves bookable resources. Implemented by the tenants
// repository.
type ResourceStore interface {
	FindActive(ctx context.Context, tenantID, resourceID string) (*model.Resource, error)
}

// Notifier enqueues outbound notifications for a booking. Implemented by
// the notifications service.
type Notifier interface {
	EnqueueConfirmation(ctx context.Context, booking *model.Booking) error
	EnqueueReminder(ctx context.Context, booking *model.Booking) error
}

// EventPublisher emits booking lifecycle events to the stream. A nil
// publisher disables eventing.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) error
}

// BookingConfirmation is what a successful booking returns: the stored
// booking plus the opaque reference the caller quotes to cancel.
type BookingConfirmation struct {
	Booking         *model.Booking `json:"booking"`
	ConfirmationRef string         `json:"confirmation_ref"`
}

// Availability lists the open slot start times for one resource-day.
type Availability struct {
	ResourceID string   `json:"resource_id"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
}

type BookingService interface {
	Book(ctx context.Context, tenantID, requesterID string, req *model.BookingRequest) (*BookingConfirmation, error)
	Cancel(ctx context.Context, tenantID, confirmationRef string) error
	CancelByID(ctx context.Context, tenantID, bookingID string) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Booking, error)
	ListByResource(ctx context.Context, tenantID, resourceID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByTenant(ctx context.Context, tenantID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
	CheckAvailability(ctx context.Context, tenantID, resourceID, date string) (*Availability, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locks     slotlock.LockStore
	resources ResourceStore
	validator *validator.BookingValidator
	notifier  Notifier
	events    EventPublisher
	sealer    *sealer.Sealer
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locks slotlock.LockStore,
	resources ResourceStore,
	bookingValidator *validator.BookingValidator,
	notifier Notifier,
	events EventPublisher,
	confirmationSealer *sealer.Sealer,
	m *metrics.Metrics,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locks:     locks,
		resources: resources,
		validator: bookingValidator,
		notifier:  notifier,
		events:    events,
		sealer:    confirmationSealer,
		metrics:   m,
		cfg:       cfg,
	}
}

// Book runs the whole slot-claiming sequence: sanitize and validate the
// request, take the advisory lock for the slot, re-check overlaps while
// holding it, persist, then hand off notifications. The lock is released
// on every exit path; failures after persistence do not undo the booking.
func (s *bookingService) Book(ctx context.Context, tenantID, requesterID string, req *model.BookingRequest) (*BookingConfirmation, error) {
	booking, err := s.buildBooking(tenantID, requesterID, req)
	if err != nil {
		s.countBooking("invalid")
		return nil, err
	}

	resource, err := s.resources.FindActive(ctx, tenantID, booking.ResourceID)
	if err != nil {
		s.countBooking("invalid")
		if errors.Is(err, bookingserrors.ErrResourceNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", booking.ResourceID)
		}
		return nil, apperrors.Internal("Failed to resolve resource", err)
	}

	if booking.Duration == 0 {
		booking.Duration = resource.SlotMin
	}

	if err := s.validate(booking); err != nil {
		s.countBooking("invalid")
		return nil, err
	}

	key, err := slotlock.NewSlotKey(tenantID, booking.ResourceID, booking.ScheduledAt)
	if err != nil {
		s.countBooking("invalid")
		return nil, apperrors.InvalidInput(err.Error())
	}

	holderID := uuid.New().String()
	acquired, err := s.locks.Acquire(ctx, key, holderID, s.cfg.SlotLockTTL)
	if err != nil {
		s.countBooking("error")
		return nil, apperrors.Internal("Failed to acquire slot lock", err)
	}
	if !acquired {
		if s.metrics != nil {
			s.metrics.SlotLockConflicts.Inc()
		}
		s.countBooking("conflict")
		return nil, apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
	}
	defer func() {
		if releaseErr := s.locks.Release(ctx, key); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "key", key.String(), "error", releaseErr)
		}
	}()

	// Overlap re-check and insert share one transaction, so the write
	// lands against the exact state the re-check saw. The re-check runs
	// under the lock: a booking that won an earlier race may have landed
	// between our validation and the acquire.
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		overlapping, err := s.repo.FindOverlapping(txCtx, tenantID, booking.ResourceID, booking.ScheduledAt, booking.EndTime())
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if len(overlapping) > 0 {
			return apperrors.Conflict(fmt.Sprintf(
				"Slot overlaps an existing booking starting at %s",
				overlapping[0].ScheduledAt.Format(time.RFC3339),
			))
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodeConflict {
			s.countBooking("conflict")
		} else {
			s.countBooking("error")
		}
		return nil, appErr
	}

	confirmationRef, err := s.sealer.Seal(tenantID, booking.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to seal confirmation reference", "booking_id", booking.ID, "error", err)
		confirmationRef = booking.ID
	}

	s.enqueueNotifications(ctx, booking)
	s.publishEvent(ctx, model.EventBookingCreated, booking)

	s.countBooking("booked")
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"tenant_id", booking.TenantID,
		"resource_id", booking.ResourceID,
		"scheduled_at", booking.ScheduledAt,
	)

	return &BookingConfirmation{
		Booking:         booking,
		ConfirmationRef: confirmationRef,
	}, nil
}

// Cancel resolves an opaque confirmation reference and cancels the
// booking it names. The reference embeds its tenant, so a reference from
// another tenant can never cancel here.
func (s *bookingService) Cancel(ctx context.Context, tenantID, confirmationRef string) error {
	if confirmationRef == "" {
		return apperrors.InvalidInput("Confirmation reference cannot be empty")
	}

	refTenant, bookingID, err := s.sealer.Open(confirmationRef)
	if err != nil {
		return apperrors.InvalidInput("Invalid confirmation reference")
	}
	if refTenant != tenantID {
		return apperrors.Forbidden("Confirmation reference does not belong to this tenant")
	}

	return s.CancelByID(ctx, tenantID, bookingID)
}

func (s *bookingService) CancelByID(ctx context.Context, tenantID, bookingID string) error {
	booking, err := s.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return err
	}

	// Cancelling twice is a no-op, not an error: retried voice calls
	// should hear the same answer.
	if booking.Status == model.BookingStatusCancelled {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, tenantID, bookingID, model.BookingStatusCancelled); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		return apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.BookingStatusCancelled
	s.publishEvent(ctx, model.EventBookingCancelled, booking)

	s.cfg.Log.Info("Booking cancelled", "id", bookingID, "tenant_id", tenantID)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, tenantID, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) ListByResource(ctx context.Context, tenantID, resourceID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if resourceID == "" {
		return nil, 0, apperrors.InvalidInput("Resource ID is required")
	}

	count, err := s.repo.CountByResource(ctx, tenantID, resourceID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings", "tenant_id", tenantID, "resource_id", resourceID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}

	bookings, err := s.repo.FindByResource(ctx, tenantID, resourceID, from, to, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "tenant_id", tenantID, "resource_id", resourceID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, count, nil
}

// ListByTenant is the dashboard view: every booking in the tenant across
// all resources, newest first.
func (s *bookingService) ListByTenant(ctx context.Context, tenantID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	count, err := s.repo.CountByTenant(ctx, tenantID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings", "tenant_id", tenantID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}

	bookings, err := s.repo.FindByTenant(ctx, tenantID, from, to, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "tenant_id", tenantID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, count, nil
}

// CheckAvailability walks the resource's working day in slot-sized steps
// and drops every slot that overlaps a booked appointment or has already
// passed.
func (s *bookingService) CheckAvailability(ctx context.Context, tenantID, resourceID, date string) (*Availability, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	resource, err := s.resources.FindActive(ctx, tenantID, resourceID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrResourceNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", resourceID)
		}
		return nil, apperrors.Internal("Failed to resolve resource", err)
	}

	dayStart, err := atClock(day, resource.StartOfDay)
	if err != nil {
		return nil, apperrors.Internal("Resource has an invalid start of day", err)
	}
	dayEnd, err := atClock(day, resource.EndOfDay)
	if err != nil {
		return nil, apperrors.Internal("Resource has an invalid end of day", err)
	}

	bookings, err := s.repo.FindOverlapping(ctx, tenantID, resourceID, dayStart, dayEnd)
	if err != nil {
		return nil, apperrors.Internal("Failed to load existing bookings", err)
	}

	slotLen := time.Duration(resource.SlotMin) * time.Minute
	now := time.Now()
	slots := make([]string, 0)

	for t := dayStart; !t.Add(slotLen).After(dayEnd); t = t.Add(slotLen) {
		if !t.After(now) {
			continue
		}

		slotEnd := t.Add(slotLen)
		free := true
		for _, b := range bookings {
			if t.Before(b.EndTime()) && b.ScheduledAt.Before(slotEnd) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, t.Format(time.RFC3339))
		}
	}

	return &Availability{
		ResourceID: resourceID,
		Date:       date,
		Slots:      slots,
	}, nil
}

// --- Helpers ---

func (s *bookingService) buildBooking(tenantID, requesterID string, req *model.BookingRequest) (*model.Booking, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.SlotTime)
	if err != nil {
		return nil, apperrors.InvalidInput("slot_time must be an RFC3339 timestamp")
	}

	booking := &model.Booking{
		TenantID:      tenantID,
		ResourceID:    req.ResourceID,
		RequesterID:   requesterID,
		RequesterName: sanitizer.NormalizeName(req.RequesterName),
		ScheduledAt:   scheduledAt.UTC(),
		Duration:      req.DurationMin,
		Status:        model.BookingStatusBooked,
	}

	if req.RequesterContact != "" {
		normalized := sanitizer.NormalizePhone(req.RequesterContact)
		if normalized == "" {
			return nil, apperrors.InvalidInput("requester_contact is not a valid phone number")
		}
		booking.RequesterContact = normalized
	}

	return booking, nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// enqueueNotifications is best-effort: the booking already exists, and
// the queue poller owns delivery retries from here.
func (s *bookingService) enqueueNotifications(ctx context.Context, booking *model.Booking) {
	if s.notifier == nil || booking.RequesterContact == "" {
		return
	}

	if err := s.notifier.EnqueueConfirmation(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to enqueue confirmation", "booking_id", booking.ID, "error", err)
	}
	if err := s.notifier.EnqueueReminder(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to enqueue reminder", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, eventType, booking); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
