package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vivatube/backend/internal/models"
)

var (
	// ErrTokenExpired indicates the credential was valid once but its lifetime has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates the credential failed signature or claim validation.
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessClaims is the payload embedded in short-lived access tokens.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// Signer issues and verifies the paired session credentials. Access and
// refresh tokens are signed with distinct secrets so that compromise of one
// cannot forge the other. The signer holds no state beyond its configuration.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewSigner validates the secret configuration and constructs a Signer.
func NewSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: signing secrets must be provided")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Signer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// IssueAccessToken produces a short-lived credential carrying the user's
// identity claims.
func (s *Signer) IssueAccessToken(user models.User) (string, error) {
	now := s.now().UTC()
	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

// IssueRefreshToken produces a long-lived credential carrying only the user
// identifier. The jti claim guarantees consecutive tokens for the same user
// are distinct even when issued within the same second.
func (s *Signer) IssueRefreshToken(userID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
}

// VerifyAccess validates the signature and expiry of an access token and
// returns its decoded claims.
func (s *Signer) VerifyAccess(token string) (AccessClaims, error) {
	claims := AccessClaims{}
	if err := s.verify(token, &claims, s.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.Subject == "" {
		return AccessClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token against the refresh secret and
// returns the user identifier it was issued to.
func (s *Signer) VerifyRefresh(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if err := s.verify(token, &claims, s.refreshSecret); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (s *Signer) verify(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrTokenInvalid
			}
			return secret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	return nil
}

// WithNowFunc overrides the time source. Useful for tests.
func (s *Signer) WithNowFunc(now func() time.Time) *Signer {
	s.now = now
	return s
}
