package auth

import "time"

// IdentityClaims is the verified identity attached to a request. TenantID
// always comes from the token metadata, never from the request payload.
type IdentityClaims struct {
	Subject   string
	TenantID  string
	Role      string
	ExpiresAt time.Time
}
