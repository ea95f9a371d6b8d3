package model

import "time"

// Resource is a bookable entity inside a tenant: a provider, a room, a
// calendar. Slot exclusivity is enforced per resource.
type Resource struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID   string    `json:"tenant_id" bson:"tenant_id" validate:"required,min=1,max=64"`
	Name       string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	StartOfDay string    `json:"start_of_day" bson:"start_of_day" validate:"required"`
	EndOfDay   string    `json:"end_of_day" bson:"end_of_day" validate:"required"`
	SlotMin    int       `json:"slot_min" bson:"slot_min" validate:"required,min=5,max=480"`
	Active     bool      `json:"active" bson:"active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ResourceUpdate struct {
	Name       string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	StartOfDay string `json:"start_of_day,omitempty" validate:"omitempty"`
	EndOfDay   string `json:"end_of_day,omitempty" validate:"omitempty"`
	SlotMin    *int   `json:"slot_min,omitempty" validate:"omitempty,min=5,max=480"`
	Active     *bool  `json:"active,omitempty"`
}
