package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/logging"
	"github.com/vivatube/backend/internal/models"
	"github.com/vivatube/backend/internal/repositories"
)

// UserStore captures the user persistence operations the session manager needs.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error)
}

// Manager orchestrates the session credential lifecycle: registration,
// login, logout, and refresh-token rotation.
type Manager struct {
	users    UserStore
	sessions SessionStore
	signer   *Signer
	now      func() time.Time
}

// NewManager constructs a Manager from its collaborators.
func NewManager(users UserStore, sessions SessionStore, signer *Signer) *Manager {
	if users == nil || sessions == nil || signer == nil {
		panic("auth: manager collaborators must not be nil")
	}
	return &Manager{
		users:    users,
		sessions: sessions,
		signer:   signer,
		now:      time.Now,
	}
}

// RegisterInput carries the fields required to create an account. Avatar
// and cover image are URLs returned by the asset store after upload.
type RegisterInput struct {
	FullName      string
	Email         string
	Username      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Register validates the input, creates the user with a hashed password,
// and returns the sanitized view.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (models.UserView, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(strings.ToLower(in.Username))

	if in.FullName == "" || in.Email == "" || in.Username == "" || strings.TrimSpace(in.Password) == "" {
		return models.UserView{}, apierror.Validation("All fields are required.")
	}
	if in.AvatarURL == "" {
		return models.UserView{}, apierror.Validation("Avatar file is required.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.UserView{}, apierror.Internal("Failed to secure password.", err)
	}

	now := m.now().UTC()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		Password:      string(hashed),
		AvatarURL:     in.AvatarURL,
		CoverImageURL: in.CoverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.UserView{}, apierror.Conflict("User with email or username already exists.")
		}
		return models.UserView{}, apierror.Internal("Something went wrong registering the user.", err)
	}

	return user.PublicView(), nil
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Login verifies the password and issues a fresh access+refresh pair,
// persisting the refresh token. Any previously stored refresh token is
// overwritten and thereby invalidated.
func (m *Manager) Login(ctx context.Context, in LoginInput) (models.UserView, models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.login")
	defer span.End()

	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" && in.Email == "" {
		return models.UserView{}, models.SessionTokens{}, apierror.Validation("Email or username is required.")
	}

	user, err := m.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.UserView{}, models.SessionTokens{}, apierror.NotFound("Please register first, then try to login.")
		}
		return models.UserView{}, models.SessionTokens{}, apierror.Internal("Unable to look up the user.", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return models.UserView{}, models.SessionTokens{}, apierror.Unauthorized("Invalid user password.")
	}

	tokens, err := m.issueAndStore(ctx, user)
	if err != nil {
		return models.UserView{}, models.SessionTokens{}, err
	}

	return user.PublicView(), tokens, nil
}

// Logout clears the stored refresh token for the user. Subsequent refresh
// attempts fail until the next login.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.sessions.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apierror.Internal("Unable to log out.", err)
	}
	return nil
}

// Refresh rotates the session credentials: it verifies the presented
// refresh token, rejects anything other than the currently stored value
// (replay defense), and atomically swaps in a newly issued token.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.refresh")
	defer span.End()

	if strings.TrimSpace(presented) == "" {
		return models.SessionTokens{}, apierror.Unauthorized("Unauthorized request.")
	}

	userID, err := m.signer.VerifyRefresh(presented)
	if err != nil {
		return models.SessionTokens{}, apierror.Unauthorized("Invalid refresh token.")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apierror.Unauthorized("Invalid refresh token.")
		}
		return models.SessionTokens{}, apierror.Internal("Unable to look up the user.", err)
	}

	stored, err := m.sessions.GetRefreshToken(ctx, user.ID)
	if err != nil {
		return models.SessionTokens{}, apierror.Internal("Unable to load the session.", err)
	}
	if stored == "" || stored != presented {
		return models.SessionTokens{}, apierror.Unauthorized("Refresh token is expired or used.")
	}

	accessToken, err := m.signer.IssueAccessToken(user)
	if err != nil {
		return models.SessionTokens{}, apierror.Internal("Failed to issue tokens.", err)
	}
	refreshToken, err := m.signer.IssueRefreshToken(user.ID)
	if err != nil {
		return models.SessionTokens{}, apierror.Internal("Failed to issue tokens.", err)
	}

	if err := m.sessions.SwapRefreshToken(ctx, user.ID, presented, refreshToken); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// A concurrent rotation won; this token is no longer current.
			return models.SessionTokens{}, apierror.Unauthorized("Refresh token is expired or used.")
		}
		return models.SessionTokens{}, apierror.Internal("Unable to rotate the session.", err)
	}

	return models.SessionTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ChangePassword replaces the stored hash after verifying the current
// password. The refresh token is left untouched.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apierror.Validation("New password is required.")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apierror.NotFound("User not found.")
		}
		return apierror.Internal("Unable to look up the user.", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apierror.Validation("Invalid old password.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apierror.Internal("Failed to secure password.", err)
	}

	if err := m.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return apierror.Internal("Unable to change password.", err)
	}
	return nil
}

// CurrentUser returns the sanitized view of the authenticated user.
func (m *Manager) CurrentUser(ctx context.Context, userID string) (models.UserView, error) {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.UserView{}, apierror.NotFound("User not found.")
		}
		return models.UserView{}, apierror.Internal("Unable to look up the user.", err)
	}
	return user.PublicView(), nil
}

// UpdateAccount updates the display name and email of the user.
func (m *Manager) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.UserView, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(strings.ToLower(email))
	if fullName == "" || email == "" {
		return models.UserView{}, apierror.Validation("Full name and email are required.")
	}

	user, err := m.users.UpdateDetails(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.UserView{}, apierror.NotFound("User not found.")
		case errors.Is(err, repositories.ErrConflict):
			return models.UserView{}, apierror.Conflict("Email is already in use.")
		}
		return models.UserView{}, apierror.Internal("Unable to update account details.", err)
	}
	return user.PublicView(), nil
}

// UpdateAvatar stores the uploaded avatar URL on the user record.
func (m *Manager) UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.UserView, error) {
	if strings.TrimSpace(avatarURL) == "" {
		return models.UserView{}, apierror.Validation("Avatar file is required.")
	}
	user, err := m.users.UpdateAvatar(ctx, userID, avatarURL)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.UserView{}, apierror.NotFound("User not found.")
		}
		return models.UserView{}, apierror.Internal("Unable to update avatar.", err)
	}
	return user.PublicView(), nil
}

// UpdateCoverImage stores the uploaded cover image URL on the user record.
func (m *Manager) UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.UserView, error) {
	if strings.TrimSpace(coverImageURL) == "" {
		return models.UserView{}, apierror.Validation("Cover image file is required.")
	}
	user, err := m.users.UpdateCoverImage(ctx, userID, coverImageURL)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.UserView{}, apierror.NotFound("User not found.")
		}
		return models.UserView{}, apierror.Internal("Unable to update cover image.", err)
	}
	return user.PublicView(), nil
}

func (m *Manager) issueAndStore(ctx context.Context, user models.User) (models.SessionTokens, error) {
	accessToken, err := m.signer.IssueAccessToken(user)
	if err != nil {
		return models.SessionTokens{}, apierror.Internal("Failed to issue tokens.", err)
	}
	refreshToken, err := m.signer.IssueRefreshToken(user.ID)
	if err != nil {
		return models.SessionTokens{}, apierror.Internal("Failed to issue tokens.", err)
	}
	if err := m.sessions.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return models.SessionTokens{}, apierror.Internal("Failed to persist the session.", err)
	}
	return models.SessionTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
