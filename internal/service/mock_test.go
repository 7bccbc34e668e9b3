package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
	"github.com/sakif/apk-store/internal/storage"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written in-memory fakes implementing the repository interfaces.
// The services only see the interfaces, so they can't tell these apart from
// the real SQLite-backed store — which is exactly the point: these tests
// exercise the business rules, not the SQL.
//
// The mocks also record side effects the services are supposed to trigger
// (download increments, rating refreshes) so tests can assert on them.

type mockAppRepo struct {
	apps   map[string]*model.App
	nextID int

	incremented []string // IDs passed to IncrementDownloads, in order
	refreshed   []string // app IDs passed to RefreshRating, in order

	failList error // when set, List returns this error
}

func newMockAppRepo() *mockAppRepo {
	return &mockAppRepo{apps: make(map[string]*model.App)}
}

func (m *mockAppRepo) Create(_ context.Context, app *model.App) error {
	m.nextID++
	app.ID = fmt.Sprintf("app-%d", m.nextID)
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *mockAppRepo) GetByID(_ context.Context, id string) (*model.App, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, apperror.NotFound("app", id)
	}
	result := *app
	return &result, nil
}

func (m *mockAppRepo) List(_ context.Context, opts repository.ListOptions) ([]model.App, int, error) {
	if m.failList != nil {
		return nil, 0, m.failList
	}

	matched := make([]model.App, 0, len(m.apps))
	for _, app := range m.apps {
		if opts.Filter.Category != "" && app.Category != opts.Filter.Category {
			continue
		}
		if opts.Filter.Featured != nil && app.IsFeatured != *opts.Filter.Featured {
			continue
		}
		matched = append(matched, *app)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Downloads > matched[j].Downloads })

	total := len(matched)
	start := (opts.Page - 1) * opts.Limit
	if start >= total {
		return []model.App{}, total, nil
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockAppRepo) Search(_ context.Context, _ string, limit int) ([]model.App, error) {
	result := make([]model.App, 0, len(m.apps))
	for _, app := range m.apps {
		result = append(result, *app)
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockAppRepo) Featured(_ context.Context, limit int) ([]model.App, error) {
	result := []model.App{}
	for _, app := range m.apps {
		if app.IsFeatured {
			result = append(result, *app)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockAppRepo) Popular(_ context.Context, limit int) ([]model.App, error) {
	return m.Search(context.Background(), "", limit)
}

func (m *mockAppRepo) Recent(_ context.Context, limit int) ([]model.App, error) {
	return m.Search(context.Background(), "", limit)
}

func (m *mockAppRepo) ByCategory(_ context.Context, category string) ([]model.App, error) {
	result := []model.App{}
	for _, app := range m.apps {
		if app.Category == category {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (m *mockAppRepo) Update(_ context.Context, app *model.App) error {
	if _, ok := m.apps[app.ID]; !ok {
		return apperror.NotFound("app", app.ID)
	}
	// Like the real repository, updated_at is written verbatim: refreshing
	// it is the service's job, and tests depend on that division of labor.
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *mockAppRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.apps[id]; !ok {
		return apperror.NotFound("app", id)
	}
	delete(m.apps, id)
	return nil
}

func (m *mockAppRepo) IncrementDownloads(_ context.Context, id string) error {
	app, ok := m.apps[id]
	if !ok {
		return apperror.NotFound("app", id)
	}
	app.Downloads++
	m.incremented = append(m.incremented, id)
	return nil
}

func (m *mockAppRepo) RefreshRating(_ context.Context, appID string) error {
	m.refreshed = append(m.refreshed, appID)
	return nil
}

func (m *mockAppRepo) Stats(_ context.Context) (*model.Stats, error) {
	stats := &model.Stats{CategoryStats: []model.CategoryStat{}}
	counts := map[string]int{}
	for _, app := range m.apps {
		stats.TotalApps++
		stats.TotalDownloads += app.Downloads
		counts[app.Category]++
	}
	for category, count := range counts {
		stats.CategoryStats = append(stats.CategoryStats, model.CategoryStat{
			Category: category, Count: count,
		})
	}
	return stats, nil
}

type mockReviewRepo struct {
	reviews map[string][]model.Review // keyed by app ID
	nextID  int

	deletedFor []string // app IDs passed to DeleteReviewsByApp
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[string][]model.Review)}
}

func (m *mockReviewRepo) CreateReview(_ context.Context, review *model.Review) error {
	m.nextID++
	review.ID = fmt.Sprintf("review-%d", m.nextID)
	review.CreatedAt = time.Now().UTC()
	m.reviews[review.AppID] = append([]model.Review{*review}, m.reviews[review.AppID]...)
	return nil
}

func (m *mockReviewRepo) ListReviewsByApp(_ context.Context, appID string, limit int) ([]model.Review, error) {
	result := append([]model.Review{}, m.reviews[appID]...)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockReviewRepo) DeleteReviewsByApp(_ context.Context, appID string) error {
	delete(m.reviews, appID)
	m.deletedFor = append(m.deletedFor, appID)
	return nil
}

type mockCategoryRepo struct {
	categories map[string]*model.Category
	nextID     int
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[string]*model.Category)}
}

func (m *mockCategoryRepo) CreateCategory(_ context.Context, category *model.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return apperror.Conflict("category", category.Name)
		}
	}
	m.nextID++
	category.ID = fmt.Sprintf("category-%d", m.nextID)
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	result := make([]model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCategoryRepo) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, apperror.NotFound("category", id)
	}
	result := *category
	return &result, nil
}

func (m *mockCategoryRepo) UpdateCategory(_ context.Context, category *model.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return apperror.NotFound("category", category.ID)
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) DeleteCategory(_ context.Context, id string) error {
	if _, ok := m.categories[id]; !ok {
		return apperror.NotFound("category", id)
	}
	delete(m.categories, id)
	return nil
}

// Compile-time checks: the mocks really do satisfy the interfaces.
var (
	_ repository.AppRepository      = (*mockAppRepo)(nil)
	_ repository.ReviewRepository   = (*mockReviewRepo)(nil)
	_ repository.CategoryRepository = (*mockCategoryRepo)(nil)
)

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStorage(t *testing.T) *storage.Store {
	t.Helper()
	base := t.TempDir()
	store, err := storage.New(base+"/uploads", base+"/downloads")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	return store
}

// newTestAppService wires an AppService over the mocks, cascade off.
func newTestAppService(t *testing.T) (*AppService, *mockAppRepo, *mockReviewRepo) {
	t.Helper()
	apps := newMockAppRepo()
	reviews := newMockReviewRepo()
	svc := NewAppService(apps, reviews, newTestStorage(t), false, testLogger())
	return svc, apps, reviews
}

func strPtr(s string) *string { return &s }
