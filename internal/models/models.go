package models

import "time"

// User represents an account (and channel) within the VivaTube platform.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicView strips credential material from the user record.
func (u User) PublicView() UserView {
	return UserView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

// UserView is the sanitized representation returned to clients. It never
// carries the password hash or the stored refresh token.
type UserView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Video is a piece of content owned by exactly one user.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VideoWithOwner pairs a video with the owning channel's public fields.
type VideoWithOwner struct {
	Video
	Owner ChannelRef `json:"owner"`
}

// ChannelRef is the subset of a user exposed when hydrating owned content.
type ChannelRef struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Comment belongs to exactly one video and one authoring user.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionTokens groups the signed credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ChannelStats aggregates derived counters for a channel.
type ChannelStats struct {
	VideoCount      int64 `json:"videoCount"`
	SubscriberCount int64 `json:"subscriberCount"`
	LikeCount       int64 `json:"likeCount"`
	ViewCount       int64 `json:"viewCount"`
	IsSubscribed    bool  `json:"isSubscribed"`
}

// ChannelProfile is the public channel page with subscription counters
// computed relative to the requesting viewer.
type ChannelProfile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	AvatarURL       string `json:"avatar"`
	CoverImageURL   string `json:"coverImage,omitempty"`
	SubscriberCount int64  `json:"subscriberCount"`
	SubscribedTo    int64  `json:"channelsSubscribedToCount"`
	IsSubscribed    bool   `json:"isSubscribed"`
}

// CommentPage is one page of a video's comments together with the
// pagination cursors derived from the total count.
type CommentPage struct {
	TotalComments int64           `json:"totalComments"`
	CurrentPage   int             `json:"currentPage"`
	Limit         int             `json:"limit"`
	NextPage      *int            `json:"nextPage"`
	PreviousPage  *int            `json:"previousPage"`
	Comments      []CommentDetail `json:"comments"`
}

// CommentDetail is the per-comment payload inside a page.
type CommentDetail struct {
	Content string `json:"content"`
}
