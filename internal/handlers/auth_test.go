package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/auth"
	"github.com/vivatube/backend/internal/models"
)

func TestAuthHandlerLogin(t *testing.T) {
	sessions := &stubSessions{
		loginFn: func(_ context.Context, in auth.LoginInput) (models.UserView, models.SessionTokens, error) {
			if in.Username != "alice" || in.Password != "password123" {
				t.Fatalf("unexpected login input: %+v", in)
			}
			return models.UserView{ID: "user-1", Username: "alice"},
				models.SessionTokens{AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	}
	handler := AuthHandler{Sessions: sessions, Limiter: &fakeLimiter{allow: true}}

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body %s)", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.StatusCode != http.StatusOK {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	var data loginResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.User.Username != "alice" || data.AccessToken != "access" || data.RefreshToken != "refresh" {
		t.Fatalf("unexpected login payload: %+v", data)
	}

	cookies := rec.Result().Cookies()
	byName := make(map[string]*http.Cookie)
	for _, c := range cookies {
		byName[c.Name] = c
	}
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c, ok := byName[name]
		if !ok {
			t.Fatalf("expected %s cookie to be set", name)
		}
		if !c.HttpOnly || !c.Secure {
			t.Fatalf("expected %s cookie to be http-only and secure: %+v", name, c)
		}
	}
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	sessions := &stubSessions{
		loginFn: func(context.Context, auth.LoginInput) (models.UserView, models.SessionTokens, error) {
			return models.UserView{}, models.SessionTokens{}, apierror.Unauthorized("Invalid user password.")
		},
	}
	handler := AuthHandler{Sessions: sessions, Limiter: &fakeLimiter{allow: true}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"bad"}`))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "Invalid user password." {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Errors == nil {
		t.Fatal("expected errors array to be present")
	}
}

func TestAuthHandlerLoginRateLimited(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	handler := AuthHandler{Sessions: &stubSessions{}, Limiter: limiter}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	req.RemoteAddr = "10.1.2.3:4444"
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "login:10.1.2.3" {
		t.Fatalf("unexpected limiter keys: %v", limiter.keys)
	}
}

func TestAuthHandlerRateLimitedEndpoints(t *testing.T) {
	handler := AuthHandler{Sessions: &stubSessions{}, Images: &fakeImages{}, Limiter: &fakeLimiter{allow: false}}

	endpoints := []struct {
		name string
		call func(http.ResponseWriter, *http.Request)
	}{
		{"register", handler.Register},
		{"refresh", handler.Refresh},
	}

	for _, tc := range endpoints {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/"+tc.name, nil)
		rec := httptest.NewRecorder()
		tc.call(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("%s: expected status 429, got %d", tc.name, rec.Code)
		}
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	var gotInput auth.RegisterInput
	sessions := &stubSessions{
		registerFn: func(_ context.Context, in auth.RegisterInput) (models.UserView, error) {
			gotInput = in
			return models.UserView{ID: "user-1", Username: in.Username}, nil
		},
	}
	images := &fakeImages{}
	handler := AuthHandler{Sessions: sessions, Images: images, Limiter: &fakeLimiter{allow: true}}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("fullName", "Alice Example")
	_ = form.WriteField("email", "alice@example.com")
	_ = form.WriteField("username", "alice")
	_ = form.WriteField("password", "password123")
	avatar, err := form.CreateFormFile("avatar", "selfie.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := avatar.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if gotInput.Username != "alice" || gotInput.Email != "alice@example.com" {
		t.Fatalf("unexpected register input: %+v", gotInput)
	}
	if !strings.HasPrefix(gotInput.AvatarURL, "https://cdn.test/avatars/") || !strings.HasSuffix(gotInput.AvatarURL, ".png") {
		t.Fatalf("unexpected avatar url: %s", gotInput.AvatarURL)
	}
	if gotInput.CoverImageURL != "" {
		t.Fatalf("expected empty cover image url, got %s", gotInput.CoverImageURL)
	}
	if len(images.saved) != 1 {
		t.Fatalf("expected one uploaded object, got %v", images.saved)
	}
}

func TestAuthHandlerRegisterRequiresAvatar(t *testing.T) {
	handler := AuthHandler{Sessions: &stubSessions{}, Images: &fakeImages{}, Limiter: &fakeLimiter{allow: true}}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("fullName", "Alice Example")
	_ = form.WriteField("email", "alice@example.com")
	_ = form.WriteField("username", "alice")
	_ = form.WriteField("password", "password123")
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "Avatar file is required." {
		t.Fatalf("unexpected message: %s", env.Message)
	}
}

func TestAuthHandlerRegisterSkipsUploadOnMissingFields(t *testing.T) {
	images := &fakeImages{}
	handler := AuthHandler{Sessions: &stubSessions{}, Images: images, Limiter: &fakeLimiter{allow: true}}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("username", "alice")
	avatar, err := form.CreateFormFile("avatar", "selfie.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := avatar.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "All fields are required." {
		t.Fatalf("unexpected message: %s", env.Message)
	}
	if len(images.saved) != 0 {
		t.Fatalf("expected no uploads for a rejected registration, got %v", images.saved)
	}
}

func TestAuthHandlerRefreshFromCookie(t *testing.T) {
	sessions := &stubSessions{
		refreshFn: func(_ context.Context, presented string) (models.SessionTokens, error) {
			if presented != "stored-token" {
				t.Fatalf("unexpected presented token: %s", presented)
			}
			return models.SessionTokens{AccessToken: "a2", RefreshToken: "r2"}, nil
		},
	}
	handler := AuthHandler{Sessions: sessions, Limiter: &fakeLimiter{allow: true}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "stored-token"})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body %s)", rec.Code, rec.Body.String())
	}

	var tokens models.SessionTokens
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if tokens.RefreshToken != "r2" {
		t.Fatalf("expected rotated token, got %+v", tokens)
	}
}

func TestAuthHandlerRefreshFromBody(t *testing.T) {
	sessions := &stubSessions{
		refreshFn: func(_ context.Context, presented string) (models.SessionTokens, error) {
			if presented != "body-token" {
				t.Fatalf("unexpected presented token: %s", presented)
			}
			return models.SessionTokens{AccessToken: "a2", RefreshToken: "r2"}, nil
		},
	}
	handler := AuthHandler{Sessions: sessions, Limiter: &fakeLimiter{allow: true}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refreshToken":"body-token"}`))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAuthHandlerRefreshRejected(t *testing.T) {
	sessions := &stubSessions{
		refreshFn: func(context.Context, string) (models.SessionTokens, error) {
			return models.SessionTokens{}, apierror.Unauthorized("Refresh token is expired or used.")
		},
	}
	handler := AuthHandler{Sessions: sessions, Limiter: &fakeLimiter{allow: true}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "stale"})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "Refresh token is expired or used." {
		t.Fatalf("unexpected message: %s", env.Message)
	}
}

func TestAuthHandlerLogoutClearsCookies(t *testing.T) {
	sessions := &stubSessions{
		logoutFn: func(_ context.Context, userID string) error {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return nil
		},
	}
	handler := AuthHandler{Sessions: sessions}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = authedRequest(req, Principal{ID: "user-1", Username: "alice"})
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Fatalf("expected cookie %s to be expired, got MaxAge %d", c.Name, c.MaxAge)
		}
	}
}

func TestAuthHandlerChangePassword(t *testing.T) {
	sessions := &stubSessions{
		changePasswordFn: func(_ context.Context, userID, oldPassword, newPassword string) error {
			if userID != "user-1" || oldPassword != "old" || newPassword != "new" {
				t.Fatalf("unexpected change password args: %s %s %s", userID, oldPassword, newPassword)
			}
			return nil
		},
	}
	handler := AuthHandler{Sessions: sessions}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password", strings.NewReader(`{"oldPassword":"old","newPassword":"new"}`))
	req = authedRequest(req, Principal{ID: "user-1"})
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
