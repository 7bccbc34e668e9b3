package repository

import (
	"context"

	"github.com/sakif/apk-store/internal/model"
)

// AppFilter narrows a catalog listing.
// Category is an exact string match; a nil Featured means "no filter".
type AppFilter struct {
	Category string
	Featured *bool
}

// ListOptions controls filtering, ordering, and pagination of app listings.
//
// Sort is a field name with an optional leading '-' for descending order
// (e.g. "-downloads", "name"). Unknown fields degrade to the store's
// default ordering. Page is 1-indexed.
type ListOptions struct {
	Filter AppFilter
	Sort   string
	Page   int
	Limit  int
}

type AppRepository interface {
	Create(ctx context.Context, app *model.App) error
	GetByID(ctx context.Context, id string) (*model.App, error)
	// List returns one page of apps plus the total count matching the filter.
	List(ctx context.Context, opts ListOptions) ([]model.App, int, error)
	// Search runs a full-text query over name, description, and developer,
	// returning up to limit apps in relevance order.
	Search(ctx context.Context, query string, limit int) ([]model.App, error)
	Featured(ctx context.Context, limit int) ([]model.App, error)
	Popular(ctx context.Context, limit int) ([]model.App, error)
	Recent(ctx context.Context, limit int) ([]model.App, error)
	ByCategory(ctx context.Context, category string) ([]model.App, error)
	Update(ctx context.Context, app *model.App) error
	Delete(ctx context.Context, id string) error
	// IncrementDownloads bumps the download counter atomically in the store,
	// so concurrent downloads cannot lose updates.
	IncrementDownloads(ctx context.Context, id string) error
	// RefreshRating recomputes rating (mean of all review ratings) and the
	// review count for the given app from the reviews collection.
	RefreshRating(ctx context.Context, appID string) error
	Stats(ctx context.Context) (*model.Stats, error)
}

// ReviewRepository and CategoryRepository use entity-qualified method names
// because the sqlite.DB type implements all three repository interfaces on
// one receiver — plain Create/List would collide with AppRepository.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *model.Review) error
	// ListReviewsByApp returns up to limit reviews for the app, newest first.
	ListReviewsByApp(ctx context.Context, appID string, limit int) ([]model.Review, error)
	// DeleteReviewsByApp removes all reviews referencing the app. Used only
	// when the server runs with cascade deletion enabled.
	DeleteReviewsByApp(ctx context.Context, appID string) error
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}
