package app

import (
	"context"
	"time"

	"github.com/vivatube/backend/internal/auth"
	"github.com/vivatube/backend/internal/config"
	"github.com/vivatube/backend/internal/db"
	"github.com/vivatube/backend/internal/handlers"
	"github.com/vivatube/backend/internal/middleware"
	"github.com/vivatube/backend/internal/repositories"
	"github.com/vivatube/backend/internal/storage"
)

func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	signer, err := auth.NewSigner(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	sessions := repositories.NewPostgresSessionStore(pool)

	var images handlers.ImageStorage
	if cfg.ObjectStore.Bucket != "" {
		images, err = storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, err
		}
	}

	return handlers.Dependencies{
		Sessions:      auth.NewManager(users, sessions, signer),
		Aggregates:    repositories.NewPostgresAggregateRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Engagement:    repositories.NewPostgresEngagementRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Users:         users,
		Images:        images,
		Verifier:      signer,
		AuthLimiter:   middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, 10*time.Minute),
	}, nil
}
