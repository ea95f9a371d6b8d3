package model

import "time"

// SentinelTenant is the reserved placeholder tenant assigned to accounts
// before provisioning completes. It is never a valid tenant identity.
const SentinelTenant = "default"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Tenant struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Timezone  string    `json:"timezone" bson:"timezone" validate:"required,min=1,max=64"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Membership binds a subject (user) to a role inside one tenant.
type Membership struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID  string    `json:"tenant_id" bson:"tenant_id"`
	Subject   string    `json:"subject" bson:"subject"`
	Role      string    `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
