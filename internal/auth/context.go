package auth

import "context"

type contextKey string

const claimsKey contextKey = "identity_claims"

func WithClaims(ctx context.Context, claims *IdentityClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the verified identity or nil when the request
// was not authenticated (dev bypass).
func ClaimsFromContext(ctx context.Context) *IdentityClaims {
	claims, _ := ctx.Value(claimsKey).(*IdentityClaims)
	return claims
}

// TenantFromContext is the only sanctioned way to resolve the acting
// tenant for dashboard requests.
func TenantFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.TenantID
	}
	return ""
}
