package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
)

// ReviewInput carries a new review as submitted by a client.
type ReviewInput struct {
	UserID   string
	UserName string
	Rating   int
	Comment  string
}

// ReviewService handles review submission and the derived rating aggregates
// on the reviewed app.
type ReviewService struct {
	reviews repository.ReviewRepository
	apps    repository.AppRepository
	logger  *slog.Logger
}

// NewReviewService creates a ReviewService.
func NewReviewService(
	reviews repository.ReviewRepository,
	apps repository.AppRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{reviews: reviews, apps: apps, logger: logger}
}

// Add validates and stores a review, then recomputes the app's rating and
// review count from ALL of its stored reviews.
//
// The review is written unconditionally — no check that the app exists. A
// review against a missing app is stored and simply never surfaces anywhere;
// the rating recompute is then a no-op.
func (s *ReviewService) Add(ctx context.Context, appID string, input ReviewInput) (*model.Review, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, apperror.ValidationFailed("appId", "app ID is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperror.ValidationFailed("rating", "rating must be an integer between 1 and 5")
	}

	review := &model.Review{
		AppID:    appID,
		UserID:   strings.TrimSpace(input.UserID),
		UserName: strings.TrimSpace(input.UserName),
		Rating:   input.Rating,
		Comment:  input.Comment,
	}

	if err := s.reviews.CreateReview(ctx, review); err != nil {
		s.logger.Error("failed to create review",
			slog.String("appId", appID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating review: %w", err)
	}

	// Recompute rating and review count in one statement over the full review
	// set. If this fails the review is already stored; the aggregates heal on
	// the next successful submission.
	if err := s.apps.RefreshRating(ctx, appID); err != nil {
		s.logger.Warn("failed to refresh app rating",
			slog.String("appId", appID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("review added",
		slog.String("id", review.ID),
		slog.String("appId", appID),
		slog.Int("rating", input.Rating),
	)

	return review, nil
}

// ListForApp returns up to 50 reviews for an app, newest first. An app with
// no reviews (or a nonexistent app) yields an empty list, not an error.
func (s *ReviewService) ListForApp(ctx context.Context, appID string) ([]model.Review, error) {
	reviews, err := s.reviews.ListReviewsByApp(ctx, appID, ReviewPageSize)
	if err != nil {
		s.logger.Error("failed to list reviews",
			slog.String("appId", appID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}
