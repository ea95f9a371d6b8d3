package model

import (
	"time"
)

const (
	BookingStatusBooked    = "booked"
	BookingStatusCancelled = "cancelled"

	// MinDurationMinutes and MaxDurationMinutes bound a single booking.
	// Overlap scans rely on the upper bound to window their queries.
	MinDurationMinutes = 5
	MaxDurationMinutes = 480
)

type Booking struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID         string    `json:"tenant_id" bson:"tenant_id" validate:"required,min=1,max=64"`
	ResourceID       string    `json:"resource_id" bson:"resource_id" validate:"required,mongodb"`
	RequesterID      string    `json:"requester_id" bson:"requester_id" validate:"required,min=1,max=128"`
	RequesterName    string    `json:"requester_name,omitempty" bson:"requester_name,omitempty" validate:"omitempty,min=1,max=100"`
	RequesterContact string    `json:"requester_contact,omitempty" bson:"requester_contact,omitempty" validate:"omitempty,e164"`
	ScheduledAt      time.Time `json:"scheduled_at" bson:"scheduled_at" validate:"required"`
	Duration         int       `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	Status           string    `json:"status" bson:"status" validate:"required,oneof=booked cancelled"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// EndTime returns the exclusive end of the booking interval.
func (b *Booking) EndTime() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.Duration) * time.Minute)
}

// Overlaps reports whether two half-open intervals [ScheduledAt, EndTime)
// intersect. Back-to-back bookings do not overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.ScheduledAt.Before(other.EndTime()) && other.ScheduledAt.Before(b.EndTime())
}

type BookingRequest struct {
	ResourceID       string `json:"resource_id"`
	SlotTime         string `json:"slot_time"`
	DurationMin      int    `json:"duration_min,omitempty"`
	RequesterName    string `json:"requester_name,omitempty"`
	RequesterContact string `json:"requester_contact,omitempty"`
}
