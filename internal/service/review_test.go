package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/apk-store/internal/apperror"
)

func newTestReviewService() (*ReviewService, *mockAppRepo, *mockReviewRepo) {
	apps := newMockAppRepo()
	reviews := newMockReviewRepo()
	return NewReviewService(reviews, apps, testLogger()), apps, reviews
}

func TestReviewAdd_Success(t *testing.T) {
	svc, apps, _ := newTestReviewService()

	review, err := svc.Add(context.Background(), "app-1", ReviewInput{
		UserID:   "user-1",
		UserName: "Alice",
		Rating:   5,
		Comment:  "Great app",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if review.ID == "" {
		t.Error("expected review to have an ID")
	}
	if review.AppID != "app-1" {
		t.Errorf("AppID = %q, want %q", review.AppID, "app-1")
	}
	// The app's aggregates are recomputed after every submission
	if len(apps.refreshed) != 1 || apps.refreshed[0] != "app-1" {
		t.Errorf("refreshed = %v, want [app-1]", apps.refreshed)
	}
}

func TestReviewAdd_RatingBounds(t *testing.T) {
	svc, apps, _ := newTestReviewService()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.Add(context.Background(), "app-1", ReviewInput{
			UserID: "u", Rating: rating,
		})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Add(rating=%d) error = %v, want ErrValidation", rating, err)
		}
	}
	if len(apps.refreshed) != 0 {
		t.Error("rejected reviews must not trigger a rating refresh")
	}
}

func TestReviewAdd_MissingUserID(t *testing.T) {
	svc, _, _ := newTestReviewService()

	_, err := svc.Add(context.Background(), "app-1", ReviewInput{UserID: "  ", Rating: 4})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestReviewAdd_NoAppExistenceCheck(t *testing.T) {
	svc, _, reviews := newTestReviewService()

	// The app "ghost" doesn't exist anywhere — the review is stored anyway
	review, err := svc.Add(context.Background(), "ghost", ReviewInput{
		UserID: "u", Rating: 3,
	})
	if err != nil {
		t.Fatalf("Add() for missing app error = %v, want nil", err)
	}
	if len(reviews.reviews["ghost"]) != 1 {
		t.Errorf("stored %d reviews for ghost, want 1", len(reviews.reviews["ghost"]))
	}
	if review.UserName != "" {
		t.Errorf("UserName = %q, want empty", review.UserName)
	}
}

func TestReviewListForApp(t *testing.T) {
	svc, _, _ := newTestReviewService()

	for i := 0; i < 3; i++ {
		if _, err := svc.Add(context.Background(), "app-1", ReviewInput{
			UserID: "u", Rating: 4,
		}); err != nil {
			t.Fatalf("setup: Add() error = %v", err)
		}
	}

	reviews, err := svc.ListForApp(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ListForApp() error = %v", err)
	}
	if len(reviews) != 3 {
		t.Errorf("got %d reviews, want 3", len(reviews))
	}
}

func TestReviewListForApp_EmptyIsNotAnError(t *testing.T) {
	svc, _, _ := newTestReviewService()

	reviews, err := svc.ListForApp(context.Background(), "no-such-app")
	if err != nil {
		t.Fatalf("ListForApp() error = %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("got %d reviews, want 0", len(reviews))
	}
}
