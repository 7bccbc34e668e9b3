package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
)

var _ repository.ReviewRepository = (*DB)(nil)

// CreateReview inserts a new review. No check that the referenced app exists —
// reviews are written unconditionally and the rating recompute is a no-op for
// a missing app.
func (db *DB) CreateReview(ctx context.Context, review *model.Review) error {
	review.ID = xid.New().String()
	review.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reviews (id, app_id, user_id, user_name, rating, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.AppID, review.UserID, review.UserName,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating review: %w", err)
	}

	return nil
}

// ListReviewsByApp returns up to limit reviews for an app, newest first.
func (db *DB) ListReviewsByApp(ctx context.Context, appID string, limit int) ([]model.Review, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, app_id, user_id, user_name, rating, comment, created_at
		 FROM reviews
		 WHERE app_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		appID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews for %s: %w", appID, err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0, limit)
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(
			&r.ID, &r.AppID, &r.UserID, &r.UserName,
			&r.Rating, &r.Comment, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}

	return reviews, nil
}

// DeleteReviewsByApp removes every review referencing an app.
// Only called when cascade deletion is enabled; deleting zero rows is fine.
func (db *DB) DeleteReviewsByApp(ctx context.Context, appID string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM reviews WHERE app_id = ?`, appID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting reviews for %s: %w", appID, err)
	}
	return nil
}
