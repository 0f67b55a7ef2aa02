package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions      SessionService
	Aggregates    AggregateStore
	Subscriptions SubscriptionStore
	Engagement    EngagementStore
	Comments      CommentStore
	Videos        VideoStore
	Users         UserStore
	Images        ImageStorage
	Verifier      TokenVerifier
	AuthLimiter   RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Sessions: deps.Sessions, Images: deps.Images, Limiter: deps.AuthLimiter}
	users := UserHandler{Sessions: deps.Sessions, Aggregates: deps.Aggregates, Images: deps.Images}
	channels := ChannelHandler{Aggregates: deps.Aggregates, Subscriptions: deps.Subscriptions, Users: deps.Users}
	comments := CommentHandler{Aggregates: deps.Aggregates, Comments: deps.Comments, Videos: deps.Videos}
	videos := VideoHandler{Videos: deps.Videos, Engagement: deps.Engagement}

	verifier := deps.Verifier

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", authH.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authH.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", requireAuth(verifier, authH.Logout))
	mux.HandleFunc("POST /api/v1/auth/change-password", requireAuth(verifier, authH.ChangePassword))

	mux.HandleFunc("GET /api/v1/users/me", requireAuth(verifier, users.Me))
	mux.HandleFunc("PATCH /api/v1/users/me", requireAuth(verifier, users.UpdateAccount))
	mux.HandleFunc("PATCH /api/v1/users/me/avatar", requireAuth(verifier, users.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/me/cover-image", requireAuth(verifier, users.UpdateCoverImage))
	mux.HandleFunc("GET /api/v1/users/watch-history", requireAuth(verifier, users.WatchHistory))

	// A literal "profile" segment and a {channelId} wildcard in the same
	// position are incomparable ServeMux patterns, so the channel GET
	// routes share one pattern and dispatch on the first segment.
	mux.HandleFunc("GET /api/v1/channels/{first}/{second}", optionalAuth(verifier, channels.Get))
	mux.HandleFunc("POST /api/v1/channels/{channelId}/subscribe", requireAuth(verifier, channels.Subscribe))
	mux.HandleFunc("DELETE /api/v1/channels/{channelId}/subscribe", requireAuth(verifier, channels.Unsubscribe))

	mux.HandleFunc("GET /api/v1/videos/{videoId}/comments", comments.List)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/comments", requireAuth(verifier, comments.Create))
	mux.HandleFunc("PATCH /api/v1/comments/{commentId}", requireAuth(verifier, comments.Update))
	mux.HandleFunc("DELETE /api/v1/comments/{commentId}", requireAuth(verifier, comments.Delete))

	mux.HandleFunc("POST /api/v1/videos/{videoId}/view", optionalAuth(verifier, videos.RecordView))
	mux.HandleFunc("POST /api/v1/videos/{videoId}/like", requireAuth(verifier, videos.ToggleLike))
}
