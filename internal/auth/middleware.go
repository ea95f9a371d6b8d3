package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"voicebook/pkg/config"
	apperrors "voicebook/pkg/errors"
	apphttp "voicebook/pkg/http"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

// MembershipStore resolves a subject's role within a tenant. Implemented
// by the tenants repository.
type MembershipStore interface {
	RoleFor(ctx context.Context, tenantID, subject string) (string, error)
}

type Middleware struct {
	verifier    *Verifier
	memberships MembershipStore
	cfg         *config.Config
	log         *logger.Logger
}

func NewMiddleware(verifier *Verifier, memberships MembershipStore, cfg *config.Config, log *logger.Logger) *Middleware {
	return &Middleware{
		verifier:    verifier,
		memberships: memberships,
		cfg:         cfg,
		log:         log,
	}
}

// developmentIdentity is the fixed identity synthesized for
// unauthenticated requests in development. Its sentinel tenant can never
// come from a verified token, so downstream checks can recognize it.
func developmentIdentity() *IdentityClaims {
	return &IdentityClaims{
		Subject:  "dev-user",
		TenantID: model.SentinelTenant,
		Role:     model.RoleAdmin,
	}
}

// RequireAuth verifies the bearer token and stores the identity in the
// request context. In development an unauthenticated request proceeds
// with a synthesized fixed identity; a request that does carry a
// credential is always verified, even in development.
func (m *Middleware) RequireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		rawToken := extractBearerToken(r)

		if rawToken == "" && m.cfg.IsDevelopment() {
			m.log.Warn("Development auth bypass for unauthenticated request",
				"path", r.URL.Path,
				"method", r.Method,
			)
			next(w, r.WithContext(WithClaims(r.Context(), developmentIdentity())), ps)
			return
		}

		claims, err := m.verifier.Verify(rawToken)
		if err != nil {
			m.log.Warn("Authentication failed",
				"path", r.URL.Path,
				"error", err,
			)
			apphttp.WriteError(w, err)
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)), ps)
	}
}

// VerifyTenantOwnership rejects requests whose path tenant differs from
// the tenant in the verified token. The synthesized development identity
// spans tenants.
func (m *Middleware) VerifyTenantOwnership(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			apphttp.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
			return
		}

		if m.isDevelopmentIdentity(claims) {
			next(w, r, ps)
			return
		}

		pathTenant := ps.ByName("tenantId")
		if pathTenant != "" && pathTenant != claims.TenantID {
			m.log.Warn("Tenant ownership check failed",
				"path", r.URL.Path,
				"token_tenant", claims.TenantID,
				"path_tenant", pathTenant,
			)
			apphttp.WriteError(w, apperrors.Forbidden("Access to this tenant is not allowed"))
			return
		}

		next(w, r, ps)
	}
}

// RequireRole gates an operation behind a tenant membership role. The
// synthesized development identity has no membership rows and acts as an
// admin.
func (m *Middleware) RequireRole(role string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			apphttp.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
			return
		}

		if m.isDevelopmentIdentity(claims) {
			next(w, r, ps)
			return
		}

		memberRole, err := m.memberships.RoleFor(r.Context(), claims.TenantID, claims.Subject)
		if err != nil {
			apphttp.WriteError(w, apperrors.Forbidden("No membership in this tenant"))
			return
		}

		if !roleSatisfies(memberRole, role) {
			apphttp.WriteError(w, apperrors.Forbidden("Insufficient role for this operation"))
			return
		}

		next(w, r, ps)
	}
}

// isDevelopmentIdentity reports whether claims are the synthesized
// development identity. Verified tokens can never carry the sentinel
// tenant, so the check cannot be satisfied by a real credential.
func (m *Middleware) isDevelopmentIdentity(claims *IdentityClaims) bool {
	return m.cfg.IsDevelopment() && claims.TenantID == model.SentinelTenant
}

func roleSatisfies(have, want string) bool {
	if have == want {
		return true
	}
	return have == model.RoleAdmin
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
