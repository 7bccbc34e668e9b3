package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
)

var _ repository.CategoryRepository = (*DB)(nil)

// categorySelect computes app_count on read instead of caching it in a
// column. The subquery runs against idx_apps_category, so it stays cheap,
// and the count can never drift from the apps table.
const categorySelect = `
	SELECT c.id, c.name, c.display_name, c.icon, c.description,
		   (SELECT COUNT(*) FROM apps a WHERE a.category = c.name) AS app_count
	FROM categories c`

// CreateCategory inserts a new category. The name column is UNIQUE —
// inserting a duplicate surfaces as a conflict error (HTTP 409).
func (db *DB) CreateCategory(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, name, display_name, icon, description)
		 VALUES (?, ?, ?, ?, ?)`,
		category.ID, category.Name, category.DisplayName,
		category.Icon, category.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category", category.Name)
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}

	// A fresh category has no apps yet; GetCategoryByID would say the same.
	category.AppCount = 0
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
// The modernc driver exposes the SQLite error text, not a typed sentinel,
// so we match on the stable "UNIQUE constraint failed" prefix.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListCategories returns every category with its computed app count.
func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx, categorySelect+` ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(
			&c.ID, &c.Name, &c.DisplayName, &c.Icon, &c.Description, &c.AppCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByID retrieves a single category by its ID.
func (db *DB) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx, categorySelect+` WHERE c.id = ?`, id).Scan(
		&c.ID, &c.Name, &c.DisplayName, &c.Icon, &c.Description, &c.AppCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}

	return &c, nil
}

// UpdateCategory writes the mutable fields of a category.
// Renaming a category does NOT touch apps — App.Category is a free-form
// string, so apps keep pointing at the old name.
func (db *DB) UpdateCategory(ctx context.Context, category *model.Category) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE categories
		 SET name = ?, display_name = ?, icon = ?, description = ?
		 WHERE id = ?`,
		category.Name, category.DisplayName, category.Icon,
		category.Description, category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category", category.Name)
		}
		return fmt.Errorf("sqlite: updating category %s: %w", category.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("category", category.ID)
	}

	return nil
}

// DeleteCategory removes a category record. Apps naming the category keep
// their category string — the relation is by value, not a foreign key.
func (db *DB) DeleteCategory(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("category", id)
	}

	return nil
}
