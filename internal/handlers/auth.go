package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/auth"
	"github.com/vivatube/backend/internal/logging"
	"github.com/vivatube/backend/internal/models"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"

	maxUploadBytes = 32 << 20
)

// AuthHandler implements the account and session endpoints.
type AuthHandler struct {
	Sessions SessionService
	Images   ImageStorage
	Limiter  RateLimiter
}

// Register handles POST /api/v1/auth/register requests. The body is
// multipart form data: text fields plus a required avatar file and an
// optional cover image.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, apierror.RateLimited("Too many attempts. Please try again later."))
		return
	}

	if h.Sessions == nil || h.Images == nil {
		logger.Error("registration dependencies unavailable", "hasSessions", h.Sessions != nil, "hasImages", h.Images != nil)
		respondError(ctx, w, apierror.Internal("Registration services unavailable.", nil))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, apierror.Validation("Invalid multipart request body."))
		return
	}

	input := auth.RegisterInput{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	// Reject incomplete forms before touching the object store so a failed
	// registration leaves no orphaned uploads behind.
	for _, field := range []string{input.FullName, input.Email, input.Username, input.Password} {
		if strings.TrimSpace(field) == "" {
			respondError(ctx, w, apierror.Validation("All fields are required."))
			return
		}
	}

	avatarURL, err := h.uploadFormImage(r, "avatar", "avatars")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if avatarURL == "" {
		respondError(ctx, w, apierror.Validation("Avatar file is required."))
		return
	}

	// Cover image is optional; a missing file is not an error.
	coverImageURL, err := h.uploadFormImage(r, "coverImage", "covers")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	input.AvatarURL = avatarURL
	input.CoverImageURL = coverImageURL
	user, err := h.Sessions.Register(ctx, input)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, user, "User registered successfully.")
}

func (h AuthHandler) uploadFormImage(r *http.Request, field, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", apierror.Validation(fmt.Sprintf("Invalid %s file.", field))
	}
	defer file.Close()

	name := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.Images.Save(r.Context(), name, file)
	if err != nil {
		return "", apierror.Internal(fmt.Sprintf("Failed to upload %s.", field), err)
	}
	return url, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User models.UserView `json:"user"`
	models.SessionTokens
}

// Login handles POST /api/v1/auth/login requests. Both tokens are returned
// in the body and set as http-only cookies.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, apierror.RateLimited("Too many attempts. Please try again later."))
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, auth.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{User: user, SessionTokens: tokens}, "User logged in successfully.")
}

// Logout handles POST /api/v1/auth/logout requests. Requires an
// authenticated caller; clears both cookies and the stored refresh token.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	if err := h.Sessions.Logout(ctx, caller.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "User logged out successfully.")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /api/v1/auth/refresh requests. The incoming token is
// read from the refreshToken cookie, falling back to the request body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, apierror.RateLimited("Too many attempts. Please try again later."))
		return
	}

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		// A missing body is fine here; the manager rejects empty tokens.
		_ = decodeJSON(r, &req)
		presented = req.RefreshToken
	}

	tokens, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokens, "Access token refreshed successfully.")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /api/v1/auth/change-password requests.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.ChangePassword(ctx, caller.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully.")
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, sessionCookie(accessTokenCookie, tokens.AccessToken, 0))
	http.SetCookie(w, sessionCookie(refreshTokenCookie, tokens.RefreshToken, 0))
}

func clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie(accessTokenCookie, "", -1))
	http.SetCookie(w, sessionCookie(refreshTokenCookie, "", -1))
}

func sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
