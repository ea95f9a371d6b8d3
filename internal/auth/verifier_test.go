package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "voicebook/pkg/errors"
)

const testSecret = "test-secret-key"

type tokenOpts struct {
	appMetadata  map[string]any
	userMetadata map[string]any
	subject      string
	expiresAt    time.Time
	secret       string
	method       jwt.SigningMethod
}

func signToken(t *testing.T, opts tokenOpts) string {
	t.Helper()

	if opts.secret == "" {
		opts.secret = testSecret
	}
	if opts.method == nil {
		opts.method = jwt.SigningMethodHS256
	}
	if opts.expiresAt.IsZero() {
		opts.expiresAt = time.Now().Add(time.Hour)
	}

	claims := jwt.MapClaims{
		"sub": opts.subject,
		"exp": opts.expiresAt.Unix(),
	}
	if opts.appMetadata != nil {
		claims["app_metadata"] = opts.appMetadata
	}
	if opts.userMetadata != nil {
		claims["user_metadata"] = opts.userMetadata
	}

	token, err := jwt.NewWithClaims(opts.method, claims).SignedString([]byte(opts.secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newTestVerifier() *Verifier {
	return NewVerifier(testSecret, 100, 5*time.Minute, nil)
}

func TestVerify_ValidToken(t *testing.T) {
	v := newTestVerifier()
	token := signToken(t, tokenOpts{
		subject:     "user-1",
		appMetadata: map[string]any{"tenant_id": "clinic-a"},
	})

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.TenantID != "clinic-a" {
		t.Errorf("TenantID = %q, want %q", claims.TenantID, "clinic-a")
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
}

func TestVerify_TenantFallbackOrder(t *testing.T) {
	tests := []struct {
		name         string
		appMetadata  map[string]any
		userMetadata map[string]any
		wantTenant   string
	}{
		{
			name:        "app metadata only",
			appMetadata: map[string]any{"tenant_id": "clinic-a"},
			wantTenant:  "clinic-a",
		},
		{
			name:         "user metadata fallback",
			userMetadata: map[string]any{"tenant_id": "clinic-b"},
			wantTenant:   "clinic-b",
		},
		{
			name:         "app metadata wins over user metadata",
			appMetadata:  map[string]any{"tenant_id": "clinic-a"},
			userMetadata: map[string]any{"tenant_id": "clinic-b"},
			wantTenant:   "clinic-a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier()
			token := signToken(t, tokenOpts{
				subject:      "user-1",
				appMetadata:  tt.appMetadata,
				userMetadata: tt.userMetadata,
			})

			claims, err := v.Verify(token)
			if err != nil {
				t.Fatalf("Verify() error: %v", err)
			}
			if claims.TenantID != tt.wantTenant {
				t.Errorf("TenantID = %q, want %q", claims.TenantID, tt.wantTenant)
			}
		})
	}
}

func TestVerify_Rejections(t *testing.T) {
	v := newTestVerifier()

	tests := []struct {
		name     string
		token    string
		wantCode string
	}{
		{
			name:     "empty token",
			token:    "",
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name:     "garbage token",
			token:    "not.a.token",
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name: "wrong secret",
			token: signToken(t, tokenOpts{
				subject:     "user-1",
				appMetadata: map[string]any{"tenant_id": "clinic-a"},
				secret:      "other-secret",
			}),
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name: "expired token",
			token: signToken(t, tokenOpts{
				subject:     "user-1",
				appMetadata: map[string]any{"tenant_id": "clinic-a"},
				expiresAt:   time.Now().Add(-time.Minute),
			}),
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name: "no tenant in metadata",
			token: signToken(t, tokenOpts{
				subject: "user-1",
			}),
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name: "sentinel tenant rejected",
			token: signToken(t, tokenOpts{
				subject:     "user-1",
				appMetadata: map[string]any{"tenant_id": "default"},
			}),
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name: "sentinel tenant in user metadata rejected",
			token: signToken(t, tokenOpts{
				subject:      "user-1",
				userMetadata: map[string]any{"tenant_id": "default"},
			}),
			wantCode: apperrors.CodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			appErr := apperrors.AsAppError(err)
			if appErr.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestVerify_CachesVerifiedTokens(t *testing.T) {
	v := newTestVerifier()
	token := signToken(t, tokenOpts{
		subject:     "user-1",
		appMetadata: map[string]any{"tenant_id": "clinic-a"},
	})

	first, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	second, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() second call error: %v", err)
	}

	if first != second {
		t.Error("expected cached claims instance on second verification")
	}
}

func TestVerify_RejectedTokensAreNotCached(t *testing.T) {
	v := newTestVerifier()

	if _, err := v.Verify("bogus"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if v.cache.Len() != 0 {
		t.Errorf("cache length = %d, want 0", v.cache.Len())
	}
}
