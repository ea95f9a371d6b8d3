package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"voicebook/pkg/config"
	apperrors "voicebook/pkg/errors"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

type mockMembershipStore struct {
	roleForFunc func(ctx context.Context, tenantID, subject string) (string, error)
}

func (m *mockMembershipStore) RoleFor(ctx context.Context, tenantID, subject string) (string, error) {
	return m.roleForFunc(ctx, tenantID, subject)
}

func testMiddleware(environment string, memberships MembershipStore) *Middleware {
	cfg := &config.Config{Environment: environment}
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	return NewMiddleware(newTestVerifier(), memberships, cfg, log)
}

func noopHandle(called *bool) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireAuth_MissingTokenInProduction(t *testing.T) {
	m := testMiddleware(config.EnvironmentProduction, nil)
	called := false

	r := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	w := httptest.NewRecorder()
	m.RequireAuth(noopHandle(&called))(w, r, nil)

	if called {
		t.Error("handler should not run without a token")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_ValidTokenStoresClaims(t *testing.T) {
	m := testMiddleware(config.EnvironmentProduction, nil)
	token := signToken(t, tokenOpts{
		subject:     "user-1",
		appMetadata: map[string]any{"tenant_id": "clinic-a"},
	})

	var gotTenant string
	handle := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotTenant = TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	r := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	m.RequireAuth(handle)(w, r, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotTenant != "clinic-a" {
		t.Errorf("tenant from context = %q, want %q", gotTenant, "clinic-a")
	}
}

func TestRequireAuth_DevBypassOnlyWithoutCredential(t *testing.T) {
	m := testMiddleware(config.EnvironmentDevelopment, nil)

	t.Run("no credential gets the synthesized identity", func(t *testing.T) {
		var got *IdentityClaims
		handle := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			got = ClaimsFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}
		r := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
		w := httptest.NewRecorder()
		m.RequireAuth(handle)(w, r, nil)

		if got == nil {
			t.Fatal("expected dev bypass to attach an identity")
		}
		if got.Subject != "dev-user" || got.TenantID != model.SentinelTenant || got.Role != model.RoleAdmin {
			t.Errorf("synthesized identity = %+v, want fixed dev-user admin", got)
		}
	})

	t.Run("bad credential is still rejected", func(t *testing.T) {
		called := false
		r := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
		r.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		m.RequireAuth(noopHandle(&called))(w, r, nil)

		if called {
			t.Error("handler should not run with an invalid credential")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestRequireAuth_SentinelTenantRejected(t *testing.T) {
	m := testMiddleware(config.EnvironmentProduction, nil)
	token := signToken(t, tokenOpts{
		subject:     "user-1",
		appMetadata: map[string]any{"tenant_id": "default"},
	})

	called := false
	r := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	m.RequireAuth(noopHandle(&called))(w, r, nil)

	if called {
		t.Error("handler should not run for the sentinel tenant")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyTenantOwnership(t *testing.T) {
	m := testMiddleware(config.EnvironmentProduction, nil)
	claims := &IdentityClaims{Subject: "user-1", TenantID: "clinic-a", ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name       string
		pathTenant string
		wantStatus int
	}{
		{name: "matching tenant", pathTenant: "clinic-a", wantStatus: http.StatusOK},
		{name: "foreign tenant", pathTenant: "clinic-b", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			r := httptest.NewRequest(http.MethodGet, "/v1/tenants/"+tt.pathTenant+"/bookings", nil)
			r = r.WithContext(WithClaims(r.Context(), claims))
			ps := httprouter.Params{{Key: "tenantId", Value: tt.pathTenant}}

			w := httptest.NewRecorder()
			m.VerifyTenantOwnership(noopHandle(&called))(w, r, ps)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}

func TestDevelopmentIdentityPassesGuards(t *testing.T) {
	// No membership store: the synthesized identity must not trigger a
	// lookup.
	m := testMiddleware(config.EnvironmentDevelopment, nil)

	called := false
	chain := m.RequireAuth(m.VerifyTenantOwnership(m.RequireRole(model.RoleAdmin, noopHandle(&called))))

	r := httptest.NewRequest(http.MethodDelete, "/v1/tenants/clinic-a/resources/r1", nil)
	ps := httprouter.Params{{Key: "tenantId", Value: "clinic-a"}}
	w := httptest.NewRecorder()
	chain(w, r, ps)

	if !called {
		t.Errorf("development identity blocked by guard chain, status %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	claims := &IdentityClaims{Subject: "user-1", TenantID: "clinic-a"}

	tests := []struct {
		name       string
		memberRole string
		roleErr    error
		required   string
		wantStatus int
	}{
		{name: "exact role", memberRole: "user", required: "user", wantStatus: http.StatusOK},
		{name: "admin satisfies any role", memberRole: "admin", required: "user", wantStatus: http.StatusOK},
		{name: "insufficient role", memberRole: "user", required: "admin", wantStatus: http.StatusForbidden},
		{name: "no membership", roleErr: apperrors.NotFound("membership"), wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockMembershipStore{
				roleForFunc: func(ctx context.Context, tenantID, subject string) (string, error) {
					if tt.roleErr != nil {
						return "", tt.roleErr
					}
					return tt.memberRole, nil
				},
			}
			m := testMiddleware(config.EnvironmentProduction, store)

			called := false
			r := httptest.NewRequest(http.MethodDelete, "/v1/resources/r1", nil)
			r = r.WithContext(WithClaims(r.Context(), claims))

			w := httptest.NewRecorder()
			m.RequireRole(tt.required, noopHandle(&called))(w, r, nil)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
