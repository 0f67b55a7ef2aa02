package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/auth"
)

// TokenVerifier validates an access token and returns its decoded claims.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.AccessClaims, error)
}

// Principal identifies the authenticated caller for the current request.
type Principal struct {
	ID       string
	Username string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// accessTokenFrom extracts the access token from the Authorization header
// or the accessToken cookie, preferring the header.
func accessTokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// requireAuth rejects unauthenticated requests before invoking next.
func requireAuth(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFrom(r)
		if token == "" {
			respondError(r.Context(), w, apierror.Unauthorized("Unauthorized request."))
			return
		}
		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			respondError(r.Context(), w, apierror.Unauthorized("Invalid access token."))
			return
		}
		ctx := withPrincipal(r.Context(), Principal{ID: claims.Subject, Username: claims.Username})
		next(w, r.WithContext(ctx))
	}
}

// optionalAuth attaches the caller's identity when a valid access token is
// present and proceeds anonymously otherwise.
func optionalAuth(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := accessTokenFrom(r); token != "" {
			if claims, err := verifier.VerifyAccess(token); err == nil {
				ctx := withPrincipal(r.Context(), Principal{ID: claims.Subject, Username: claims.Username})
				r = r.WithContext(ctx)
			}
		}
		next(w, r)
	}
}
