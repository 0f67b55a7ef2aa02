package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vivatube/backend/internal/apierror"
	"github.com/vivatube/backend/internal/logging"
	"github.com/vivatube/backend/internal/models"
	"github.com/vivatube/backend/internal/repositories"
)

const (
	defaultCommentPage  = 1
	defaultCommentLimit = 10
	maxCommentLimit     = 100
)

// CommentHandler implements the comment listing and write endpoints.
type CommentHandler struct {
	Aggregates AggregateStore
	Comments   CommentStore
	Videos     VideoStore
}

// List handles GET /api/v1/videos/{videoId}/comments requests. Pages are
// 1-indexed; a page past the end of the comment list is a 404.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId", "Video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, limit, err := pagination(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	ctx, span := logging.StartSpan(ctx, "comments.list")
	defer span.End()

	commentPage, err := h.Aggregates.CommentPage(ctx, videoID, page, limit)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apierror.NotFound("No comments found here."))
			return
		}
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, commentPage, "Comments fetched successfully.")
}

type commentRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/videos/{videoId}/comments requests.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	videoID, err := pathID(r, "videoId", "Video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apierror.NotFound("Video does not exist."))
			return
		}
		respondError(ctx, w, apierror.Internal("Unable to look up the video.", err))
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apierror.Validation("Content is missing."))
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  caller.ID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, apierror.Internal("Unable to add comment.", err))
		return
	}
	respondData(ctx, w, http.StatusCreated, comment, "Comment added successfully.")
}

// Update handles PATCH /api/v1/comments/{commentId} requests. Only the
// comment's author may modify it.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	commentID, err := pathID(r, "commentId", "Comment")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apierror.Validation("Content is missing."))
		return
	}

	comment, err := h.ownedComment(ctx, commentID, caller.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Comments.UpdateContent(ctx, comment.ID, req.Content); err != nil {
		respondError(ctx, w, apierror.Internal("Unable to update comment.", err))
		return
	}
	comment.Content = req.Content
	respondData(ctx, w, http.StatusOK, comment, "Comment updated successfully.")
}

// Delete handles DELETE /api/v1/comments/{commentId} requests.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := PrincipalFromContext(ctx)

	commentID, err := pathID(r, "commentId", "Comment")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.ownedComment(ctx, commentID, caller.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apierror.NotFound("Unable to delete comment."))
			return
		}
		respondError(ctx, w, apierror.Internal("Unable to delete comment.", err))
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "Comment deleted successfully.")
}

func (h CommentHandler) ownedComment(ctx context.Context, commentID, callerID string) (models.Comment, error) {
	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apierror.NotFound("Comment does not exist.")
		}
		return models.Comment{}, apierror.Internal("Unable to look up the comment.", err)
	}
	if comment.AuthorID != callerID {
		return models.Comment{}, apierror.Unauthorized("You cannot modify this comment.")
	}
	return comment, nil
}

func pagination(r *http.Request) (page, limit int, err error) {
	page, limit = defaultCommentPage, defaultCommentLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, apierror.Validation("Page must be a positive integer.")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxCommentLimit {
			return 0, 0, apierror.Validation("Limit must be between 1 and 100.")
		}
	}
	return page, limit, nil
}
