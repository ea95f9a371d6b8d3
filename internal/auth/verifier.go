package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "voicebook/pkg/errors"
	"voicebook/pkg/metrics"
	"voicebook/pkg/model"
)

// tokenClaims mirrors the provider's token shape: the tenant id lives in
// app_metadata, with user_metadata as a legacy fallback.
type tokenClaims struct {
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
	Role         string         `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret  []byte
	cache   *tokenCache
	metrics *metrics.Metrics
}

func NewVerifier(secret string, cacheCap int, cacheTTL time.Duration, m *metrics.Metrics) *Verifier {
	return &Verifier{
		secret:  []byte(secret),
		cache:   newTokenCache(cacheCap, cacheTTL),
		metrics: m,
	}
}

// Verify checks the bearer token signature and expiry and resolves the
// tenant the caller belongs to. Verified results are cached until the
// cache TTL or the token's own expiry, whichever comes first.
func (v *Verifier) Verify(rawToken string) (*IdentityClaims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, apperrors.Unauthorized("Missing bearer token")
	}

	if cached, ok := v.cache.Get(rawToken); ok {
		if v.metrics != nil {
			v.metrics.AuthCacheHits.Inc()
		}
		return cached, nil
	}
	if v.metrics != nil {
		v.metrics.AuthCacheMisses.Inc()
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	// A token without a provisioned tenant is a claims defect, the same
	// class as a bad credential.
	tenantID := extractTenantID(claims)
	if tenantID == "" || tenantID == model.SentinelTenant {
		return nil, apperrors.Unauthorized("Tenant not provisioned")
	}

	identity := &IdentityClaims{
		Subject:  claims.Subject,
		TenantID: tenantID,
		Role:     claims.Role,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	v.cache.Set(rawToken, identity)
	return identity, nil
}

// extractTenantID reads app_metadata.tenant_id first and falls back to
// user_metadata.tenant_id for tokens minted before the migration.
func extractTenantID(claims *tokenClaims) string {
	if id, ok := claims.AppMetadata["tenant_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := claims.UserMetadata["tenant_id"].(string); ok && id != "" {
		return id
	}
	return ""
}
