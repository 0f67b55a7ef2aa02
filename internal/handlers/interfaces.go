package handlers

import (
	"context"
	"io"

	"github.com/vivatube/backend/internal/auth"
	"github.com/vivatube/backend/internal/models"
)

// SessionService orchestrates the account and session lifecycle required by
// the auth and user handlers.
type SessionService interface {
	Register(ctx context.Context, in auth.RegisterInput) (models.UserView, error)
	Login(ctx context.Context, in auth.LoginInput) (models.UserView, models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (models.UserView, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.UserView, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.UserView, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.UserView, error)
}

// AggregateStore executes the derived read queries behind the channel,
// history, and comment listing endpoints.
type AggregateStore interface {
	ChannelStats(ctx context.Context, channelID, viewerID string) (models.ChannelStats, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	ChannelVideos(ctx context.Context, channelID string) ([]models.VideoWithOwner, error)
	CommentPage(ctx context.Context, videoID string, page, limit int) (models.CommentPage, error)
}

// SubscriptionStore maintains subscriber→channel edges.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, subscriberID, channelID string) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
}

// EngagementStore records like and view edges.
type EngagementStore interface {
	ToggleLike(ctx context.Context, userID, videoID string) (bool, error)
	RecordView(ctx context.Context, userID, videoID string) error
}

// CommentStore captures comment write operations.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// VideoStore resolves video records for existence checks.
type VideoStore interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// UserStore resolves user records for existence checks.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// ImageStorage uploads image assets and returns their public URL.
type ImageStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
