package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vivatube/backend/internal/db"
	"github.com/vivatube/backend/internal/models"
)

// PostgresAggregateRepository executes the joined read queries that derive
// counts and hydrated views from the normalized entity tables. Each method
// is a named query with a fixed join shape and a documented empty-result
// policy; callers never assemble SQL themselves.
type PostgresAggregateRepository struct {
	pool db.Pool
}

// NewPostgresAggregateRepository constructs an aggregate repository backed by PostgreSQL.
func NewPostgresAggregateRepository(pool db.Pool) *PostgresAggregateRepository {
	return &PostgresAggregateRepository{pool: pool}
}

// ChannelStats computes the channel counters in a single round trip so the
// query count stays constant regardless of how many videos the channel
// owns. Join keys: videos.owner_id, subscriptions.channel_id,
// likes.video_id, views.video_id. A channel with no videos, subscribers,
// likes, or views yields zero counts, not an error. isSubscribed is
// computed relative to viewerID; an empty viewerID (anonymous caller)
// always yields false.
func (r *PostgresAggregateRepository) ChannelStats(ctx context.Context, channelID, viewerID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos v WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = $1),
            (SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM views w JOIN videos v ON v.id = w.video_id WHERE v.owner_id = $1),
            EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = $1 AND s.subscriber_id = $2 AND $2 <> ''
            )
    `, channelID, viewerID)

	var stats models.ChannelStats
	if err := row.Scan(&stats.VideoCount, &stats.SubscriberCount, &stats.LikeCount, &stats.ViewCount, &stats.IsSubscribed); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}
	return stats, nil
}

// ChannelProfile resolves a channel by username (stored lowercase) and
// joins the subscription edges in both directions. Join keys:
// subscriptions.channel_id (subscribers) and subscriptions.subscriber_id
// (channels subscribed to). Returns ErrNotFound when no user matches.
func (r *PostgresAggregateRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
            EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = u.id AND s.subscriber_id = $2 AND $2 <> ''
            )
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var profile models.ChannelProfile
	err = row.Scan(
		&profile.ID, &profile.Username, &profile.Email, &profile.FullName,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscriberCount, &profile.SubscribedTo, &profile.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}
	return profile, nil
}

// WatchHistory hydrates the user's watched-video entries into full video
// records with the owning channel's public fields, a two-level join over
// watch_history, videos, and users. Order is most-recent-first by the
// append-only position column. An empty history yields an empty slice.
func (r *PostgresAggregateRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.owner_id, v.title, v.description, v.thumbnail_url, v.created_at,
            o.id, o.username, o.full_name, o.avatar_url
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.position DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := []models.VideoWithOwner{}
	for rows.Next() {
		var entry models.VideoWithOwner
		err := rows.Scan(
			&entry.ID, &entry.OwnerID, &entry.Title, &entry.Description, &entry.ThumbnailURL, &entry.CreatedAt,
			&entry.Owner.ID, &entry.Owner.Username, &entry.Owner.FullName, &entry.Owner.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return history, nil
}

// ChannelVideos lists a channel's videos newest-first with the owner's
// public fields hydrated. A channel without videos yields an empty slice.
func (r *PostgresAggregateRepository) ChannelVideos(ctx context.Context, channelID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.owner_id, v.title, v.description, v.thumbnail_url, v.created_at,
            o.id, o.username, o.full_name, o.avatar_url
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC
    `, channelID)
	if err != nil {
		return nil, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	videos := []models.VideoWithOwner{}
	for rows.Next() {
		var video models.VideoWithOwner
		err := rows.Scan(
			&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.ThumbnailURL, &video.CreatedAt,
			&video.Owner.ID, &video.Owner.Username, &video.Owner.FullName, &video.Owner.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan channel video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel videos: %w", err)
	}

	return videos, nil
}

// CommentPage returns one page of a video's comments (content only,
// newest-first) plus the pagination cursors derived from the total count.
// Page numbers are 1-indexed. An empty page returns ErrNotFound, including
// pages past the end of the comment list.
func (r *PostgresAggregateRepository) CommentPage(ctx context.Context, videoID string, page, limit int) (models.CommentPage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM comments WHERE video_id = $1
    `, videoID).Scan(&total); err != nil {
		return models.CommentPage{}, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT content FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, videoID, limit, (page-1)*limit)
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.CommentDetail{}
	for rows.Next() {
		var comment models.CommentDetail
		if err := rows.Scan(&comment.Content); err != nil {
			return models.CommentPage{}, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return models.CommentPage{}, fmt.Errorf("iterate comments: %w", err)
	}

	if len(comments) == 0 {
		return models.CommentPage{}, ErrNotFound
	}

	return BuildCommentPage(total, page, limit, comments), nil
}

// BuildCommentPage computes the pagination cursors for a page of comments.
// nextPage is set while page*limit is still below the total; previousPage
// is set for every page after the first.
func BuildCommentPage(total int64, page, limit int, comments []models.CommentDetail) models.CommentPage {
	result := models.CommentPage{
		TotalComments: total,
		CurrentPage:   page,
		Limit:         limit,
		Comments:      comments,
	}
	if int64(page)*int64(limit) < total {
		next := page + 1
		result.NextPage = &next
	}
	if page > 1 {
		previous := page - 1
		result.PreviousPage = &previous
	}
	return result
}
