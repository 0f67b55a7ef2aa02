package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/repositories"
)

// VideoHandler implements playback and like endpoints.
type VideoHandler struct {
	Videos     VideoStore
	Engagement EngagementStore
}

// RecordView handles POST /api/v1/videos/{videoId}/view requests. It stores
// a view edge; for authenticated callers it also appends the video to their
// watch history. Anonymous views are counted without history.
func (h VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId", "Video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.ensureVideo(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	viewer, _ := PrincipalFromContext(ctx)

	if err := h.Engagement.RecordView(ctx, viewer.ID, videoID); err != nil {
		respondError(ctx, w, apierror.Internal("Unable to record the view.", err))
		return
	}
	respondData(ctx, w, http.StatusCreated, struct{}{}, "View recorded successfully.")
}

type likeResponse struct {
	Liked bool `json:"liked"`
}

// ToggleLike handles POST /api/v1/videos/{videoId}/like requests.
func (h VideoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	videoID, err := pathID(r, "videoId", "Video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.ensureVideo(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	liked, err := h.Engagement.ToggleLike(ctx, caller.ID, videoID)
	if err != nil {
		respondError(ctx, w, apierror.Internal("Unable to toggle the like.", err))
		return
	}
	respondData(ctx, w, http.StatusOK, likeResponse{Liked: liked}, "Like toggled successfully.")
}

func (h VideoHandler) ensureVideo(ctx context.Context, videoID string) error {
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apierror.NotFound("Video does not exist.")
		}
		return apierror.Internal("Unable to look up the video.", err)
	}
	return nil
}
