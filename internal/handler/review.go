package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/service"
)

// ReviewHandler serves the per-app review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// HandleList returns up to 50 reviews for an app, newest first.
//
// HTTP: GET /api/apps/{id}/reviews
func (h *ReviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListForApp(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HandleCreate submits a review and recomputes the app's rating aggregates.
//
// HTTP: POST /api/apps/{id}/reviews
// REQUEST BODY: {"userId":"u1","userName":"Alice","rating":5,"comment":"..."}
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		Rating   int    `json:"rating"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("invalid review JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	review, err := h.reviews.Add(r.Context(), r.PathValue("id"), service.ReviewInput{
		UserID:   body.UserID,
		UserName: body.UserName,
		Rating:   body.Rating,
		Comment:  body.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
