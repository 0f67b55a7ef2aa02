package auth

import (
	"context"
)

// SessionStore persists the single currently-valid refresh token per user.
// Writes are targeted single-field updates; they never re-run unrelated
// validation on the user record. Implementations report a missing user as
// repositories.ErrNotFound and a lost compare-and-swap as
// repositories.ErrConflict.
type SessionStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	ClearRefreshToken(ctx context.Context, userID string) error
	// SwapRefreshToken replaces old with next only while old is still the
	// stored value, making rotation atomic.
	SwapRefreshToken(ctx context.Context, userID, old, next string) error
}
