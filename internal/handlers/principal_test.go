package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vivatube/backend/internal/auth"
	"github.com/vivatube/backend/internal/models"
)

func newTestVerifier(t *testing.T) *auth.Signer {
	t.Helper()
	signer, err := auth.NewSigner("access-secret", "refresh-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func issueTestToken(t *testing.T, signer *auth.Signer) string {
	t.Helper()
	token, err := signer.IssueAccessToken(models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return token
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	verifier := newTestVerifier(t)
	called := false
	handler := requireAuth(verifier, func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	if called {
		t.Fatal("handler must not run without credentials")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "Unauthorized request." {
		t.Fatalf("unexpected message: %s", env.Message)
	}
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	handler := requireAuth(verifier, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "Invalid access token." {
		t.Fatalf("unexpected message: %s", env.Message)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	verifier := newTestVerifier(t)
	var got Principal
	handler := requireAuth(verifier, func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, verifier))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run, got status %d", rec.Code)
	}
	if got.ID != "user-1" || got.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", got)
	}
}

func TestRequireAuthCookieFallback(t *testing.T) {
	verifier := newTestVerifier(t)
	var got Principal
	handler := requireAuth(verifier, func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: issueTestToken(t, verifier)})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got.ID != "user-1" {
		t.Fatalf("expected principal from cookie, got %+v", got)
	}
}

func TestOptionalAuth(t *testing.T) {
	verifier := newTestVerifier(t)
	var got Principal
	var ok bool
	handler := optionalAuth(verifier, func(w http.ResponseWriter, r *http.Request) {
		got, ok = PrincipalFromContext(r.Context())
	})

	// Anonymous requests pass through without a principal.
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/channels/x/stats", nil))
	if ok {
		t.Fatalf("expected no principal for anonymous request, got %+v", got)
	}

	// A garbage token is ignored rather than rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/x/stats", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler(httptest.NewRecorder(), req)
	if ok {
		t.Fatal("expected no principal for invalid token")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/channels/x/stats", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, verifier))
	handler(httptest.NewRecorder(), req)
	if !ok || got.ID != "user-1" {
		t.Fatalf("expected principal for valid token, got ok=%v %+v", ok, got)
	}
}
