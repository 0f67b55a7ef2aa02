package handlers

import (
	"context"
	"net/http"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/logging"
	"github.com/vivatube/backend/internal/models"
)

// UserHandler implements account detail and watch-history endpoints for the
// authenticated caller.
type UserHandler struct {
	Sessions   SessionService
	Aggregates AggregateStore
	Images     ImageStorage
}

// Me handles GET /api/v1/users/me requests.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	user, err := h.Sessions.CurrentUser(ctx, caller.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, user, "Current user fetched successfully.")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateAccount handles PATCH /api/v1/users/me requests.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Sessions.UpdateAccount(ctx, caller.ID, req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, user, "Account details updated successfully.")
}

// UpdateAvatar handles PATCH /api/v1/users/me/avatar requests. The body is
// multipart form data with a single avatar file.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", h.Sessions.UpdateAvatar, "Avatar updated successfully.")
}

// UpdateCoverImage handles PATCH /api/v1/users/me/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", h.Sessions.UpdateCoverImage, "Cover image updated successfully.")
}

func (h UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field, prefix string,
	apply func(ctx context.Context, userID, url string) (models.UserView, error),
	message string,
) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	caller, _ := PrincipalFromContext(ctx)

	if h.Images == nil {
		logger.Error("image storage unavailable")
		respondError(ctx, w, apierror.Internal("Upload services unavailable.", nil))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid upload payload", "error", err)
		respondError(ctx, w, apierror.Validation("Invalid multipart request body."))
		return
	}

	uploader := AuthHandler{Images: h.Images}
	url, err := uploader.uploadFormImage(r, field, prefix)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := apply(ctx, caller.ID, url)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, user, message)
}

// WatchHistory handles GET /api/v1/users/watch-history requests, returning
// the caller's watched videos most-recent-first with hydrated owners.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	ctx, span := logging.StartSpan(ctx, "users.watch_history")
	defer span.End()

	history, err := h.Aggregates.WatchHistory(ctx, caller.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, history, "User watch history fetched successfully.")
}
