package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/logging"
	"github.com/vivatube/backend/internal/repositories"
)

// ChannelHandler implements channel statistics, profile, listing, and
// subscription endpoints.
type ChannelHandler struct {
	Aggregates    AggregateStore
	Subscriptions SubscriptionStore
	Users         UserStore
}

// Get dispatches GET /api/v1/channels/{first}/{second} requests. A literal
// "profile" first segment selects the username lookup; otherwise the first
// segment is a channel id and the second names the sub-resource.
func (h ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	first := r.PathValue("first")
	second := r.PathValue("second")

	if first == "profile" {
		r.SetPathValue("username", second)
		h.Profile(w, r)
		return
	}

	r.SetPathValue("channelId", first)
	switch second {
	case "stats":
		h.Stats(w, r)
	case "videos":
		h.Videos(w, r)
	default:
		respondError(r.Context(), w, apierror.NotFound("Resource does not exist."))
	}
}

// Stats handles GET /api/v1/channels/{channelId}/stats requests. The
// isSubscribed flag is computed relative to the requesting caller; it is
// false for anonymous requests.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathID(r, "channelId", "Channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.ensureChannel(ctx, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}

	viewer, _ := PrincipalFromContext(ctx)

	ctx, span := logging.StartSpan(ctx, "channels.stats")
	defer span.End()

	stats, err := h.Aggregates.ChannelStats(ctx, channelID, viewer.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, stats, "Channel stats fetched successfully.")
}

// Profile handles GET /api/v1/channels/profile/{username} requests.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, apierror.Validation("Username is missing."))
		return
	}

	viewer, _ := PrincipalFromContext(ctx)

	profile, err := h.Aggregates.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apierror.NotFound("Channel does not exist."))
			return
		}
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, profile, "User channel fetched successfully.")
}

// Videos handles GET /api/v1/channels/{channelId}/videos requests.
func (h ChannelHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathID(r, "channelId", "Channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.ensureChannel(ctx, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Aggregates.ChannelVideos(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, videos, "Fetched all videos of channel.")
}

// Subscribe handles POST /api/v1/channels/{channelId}/subscribe requests.
// Subscribing to an already subscribed channel is a no-op.
func (h ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	channelID, err := pathID(r, "channelId", "Channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if channelID == caller.ID {
		respondError(ctx, w, apierror.Validation("You cannot subscribe to your own channel."))
		return
	}
	if err := h.ensureChannel(ctx, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Subscriptions.Subscribe(ctx, caller.ID, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "Subscribed successfully.")
}

// Unsubscribe handles DELETE /api/v1/channels/{channelId}/subscribe requests.
func (h ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	channelID, err := pathID(r, "channelId", "Channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Subscriptions.Unsubscribe(ctx, caller.ID, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apierror.NotFound("Subscription does not exist."))
			return
		}
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "Unsubscribed successfully.")
}

// ensureChannel maps a missing user record to the API's not-found error.
func (h ChannelHandler) ensureChannel(ctx context.Context, channelID string) error {
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apierror.NotFound("Channel does not exist.")
		}
		return apierror.Internal("Unable to look up the channel.", err)
	}
	return nil
}

// pathID extracts and validates a uuid path parameter.
func pathID(r *http.Request, name, entity string) (string, error) {
	value := r.PathValue(name)
	if _, err := uuid.Parse(value); err != nil {
		return "", apierror.Validation(entity + " id is invalid.")
	}
	return value, nil
}
