package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Fast (no disk I/O), isolated (each test gets its own database), and clean
// (destroyed when the connection closes).
//
// newTestDB is a test helper — t.Helper() makes failures report at the
// CALLER's line number, and t.Cleanup closes the DB even in subtests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestApp creates an app with the given shape and fails the test on error.
func createTestApp(t *testing.T, db *DB, app *model.App) *model.App {
	t.Helper()
	if err := db.Create(context.Background(), app); err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}
	return app
}

func boolPtr(b bool) *bool { return &b }

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateApp(t *testing.T) {
	db := newTestDB(t)

	app := &model.App{
		Name:        "Photo Editor Pro",
		Developer:   "Creative Studio",
		Category:    "photography",
		Version:     "3.5.2",
		Permissions: []string{"Camera", "Storage"},
	}

	if err := db.Create(context.Background(), app); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the app was modified in-place (pointer receiver!)
	if app.ID == "" {
		t.Error("Create() did not set app.ID")
	}
	if app.CreatedAt.IsZero() {
		t.Error("Create() did not set app.CreatedAt")
	}
	if app.UpdatedAt.IsZero() {
		t.Error("Create() did not set app.UpdatedAt")
	}
}

func TestCreateApp_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	original := createTestApp(t, db, &model.App{
		Name:        "Music Player Ultimate",
		Developer:   "Sound Wave Inc",
		Category:    "music",
		Version:     "2.8.1",
		Permissions: []string{"Camera", "Storage"},
		Screenshots: []string{"screenshots-1.png", "screenshots-2.png"},
		IsFeatured:  true,
	})

	found, err := db.GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.Name != original.Name {
		t.Errorf("Name = %q, want %q", found.Name, original.Name)
	}
	if !found.IsFeatured {
		t.Error("IsFeatured = false, want true")
	}
	// Permissions must come back as the same ORDERED list
	if len(found.Permissions) != 2 || found.Permissions[0] != "Camera" || found.Permissions[1] != "Storage" {
		t.Errorf("Permissions = %v, want [Camera Storage]", found.Permissions)
	}
	if len(found.Screenshots) != 2 {
		t.Errorf("Screenshots = %v, want 2 entries", found.Screenshots)
	}
}

func TestCreateApp_EmptyListsRoundTrip(t *testing.T) {
	db := newTestDB(t)

	app := createTestApp(t, db, &model.App{
		Name: "Bare", Developer: "Dev", Category: "tools", Version: "1.0",
	})

	found, err := db.GetByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	// nil slices are stored as "[]" and come back empty, not nil-vs-null surprises
	if found.Permissions == nil || len(found.Permissions) != 0 {
		t.Errorf("Permissions = %#v, want empty list", found.Permissions)
	}
	if found.Screenshots == nil || len(found.Screenshots) != 0 {
		t.Errorf("Screenshots = %#v, want empty list", found.Screenshots)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

// seedCatalog inserts a small fixed catalog used by the list/filter tests.
func seedCatalog(t *testing.T, db *DB) {
	t.Helper()
	apps := []*model.App{
		{Name: "Alpha", Developer: "A Dev", Category: "tools", Version: "1.0", Downloads: 0},
		{Name: "Beta", Developer: "B Dev", Category: "games", Version: "1.0", Downloads: 500},
		{Name: "Gamma", Developer: "C Dev", Category: "tools", Version: "1.0", Downloads: 100, IsFeatured: true},
		{Name: "Delta", Developer: "D Dev", Category: "social", Version: "1.0", Downloads: 900, IsFeatured: true},
		{Name: "Epsilon", Developer: "E Dev", Category: "tools", Version: "1.0", Downloads: 300},
	}
	for _, a := range apps {
		createTestApp(t, db, a)
	}
}

func TestList_DefaultSortIsDownloadsDesc(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	apps, total, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(apps) != 5 {
		t.Fatalf("len(apps) = %d, want 5", len(apps))
	}
	if apps[0].Name != "Delta" || apps[1].Name != "Beta" {
		t.Errorf("order = [%s %s ...], want [Delta Beta ...]", apps[0].Name, apps[1].Name)
	}
}

func TestList_Pagination(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	// Page 2 with limit 2: skip 2, take 2
	apps, total, err := db.List(context.Background(), repository.ListOptions{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(apps) != 2 {
		t.Errorf("len(apps) = %d, want 2", len(apps))
	}

	// Last page holds the remainder
	apps, _, err = db.List(context.Background(), repository.ListOptions{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("len(apps) on last page = %d, want 1", len(apps))
	}
}

func TestList_CategoryFilter(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	apps, total, err := db.List(context.Background(), repository.ListOptions{
		Filter: repository.AppFilter{Category: "tools"},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	for _, a := range apps {
		if a.Category != "tools" {
			t.Errorf("app %s has category %q, want tools", a.Name, a.Category)
		}
	}
}

func TestList_FeaturedFilter(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	apps, total, err := db.List(context.Background(), repository.ListOptions{
		Filter: repository.AppFilter{Featured: boolPtr(true)},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(apps) != 2 {
		t.Errorf("total = %d, len = %d, want 2 and 2", total, len(apps))
	}
}

func TestList_SortAscending(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	apps, _, err := db.List(context.Background(), repository.ListOptions{Sort: "name"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if apps[0].Name != "Alpha" {
		t.Errorf("first app = %s, want Alpha", apps[0].Name)
	}
}

func TestList_UnknownSortFieldDegrades(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	// An invalid field must not error — it degrades to default store ordering
	apps, total, err := db.List(context.Background(), repository.ListOptions{Sort: "-bogus"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 5 || len(apps) != 5 {
		t.Errorf("total = %d, len = %d, want 5 and 5", total, len(apps))
	}
}

// =========================================================================
// SEARCH TESTS
// =========================================================================

func TestSearch(t *testing.T) {
	db := newTestDB(t)
	createTestApp(t, db, &model.App{
		Name: "Photo Editor Pro", Developer: "Creative Studio",
		Category: "photography", Version: "1.0",
		Description: "Professional photo editing with filters",
	})
	createTestApp(t, db, &model.App{
		Name: "Music Player", Developer: "Sound Wave",
		Category: "music", Version: "1.0",
		Description: "Feature-rich player with equalizer",
	})

	apps, err := db.Search(context.Background(), "photo", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "Photo Editor Pro" {
		t.Errorf("Search(photo) = %v, want [Photo Editor Pro]", apps)
	}

	// Developer field is indexed too
	apps, err = db.Search(context.Background(), "creative", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("Search(creative) returned %d apps, want 1", len(apps))
	}
}

func TestSearch_ReflectsUpdates(t *testing.T) {
	db := newTestDB(t)
	app := createTestApp(t, db, &model.App{
		Name: "Old Name", Developer: "Dev", Category: "tools", Version: "1.0",
	})

	app.Name = "Weather Live"
	app.UpdatedAt = app.CreatedAt
	if err := db.Update(context.Background(), app); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// The FTS triggers must have reindexed the row
	apps, err := db.Search(context.Background(), "weather", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("Search(weather) returned %d apps, want 1", len(apps))
	}
	apps, err = db.Search(context.Background(), "old", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("Search(old) returned %d apps, want 0", len(apps))
	}
}

func TestSearch_OperatorInputIsLiteral(t *testing.T) {
	db := newTestDB(t)
	createTestApp(t, db, &model.App{
		Name: "Task Manager", Developer: "Dev", Category: "tools", Version: "1.0",
	})

	// FTS5 syntax in user input must not break the query
	for _, q := range []string{`task NEAR manager`, `"task`, `task*`, `-task`} {
		if _, err := db.Search(context.Background(), q, 20); err != nil {
			t.Errorf("Search(%q) error = %v, want nil", q, err)
		}
	}

	// Empty input returns an empty result, not an FTS error
	apps, err := db.Search(context.Background(), "   ", 20)
	if err != nil {
		t.Fatalf("Search(blank) error = %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("Search(blank) returned %d apps, want 0", len(apps))
	}
}

// =========================================================================
// SHELF QUERIES (featured / popular / recent / by category)
// =========================================================================

func TestShelfQueries(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	featured, err := db.Featured(context.Background(), 10)
	if err != nil {
		t.Fatalf("Featured() error = %v", err)
	}
	if len(featured) != 2 {
		t.Errorf("Featured() returned %d apps, want 2", len(featured))
	}
	// Most downloaded first, so the shelf order is deterministic
	if featured[0].Name != "Delta" || featured[1].Name != "Gamma" {
		t.Errorf("Featured() order = [%s %s], want [Delta Gamma]",
			featured[0].Name, featured[1].Name)
	}

	popular, err := db.Popular(context.Background(), 3)
	if err != nil {
		t.Fatalf("Popular() error = %v", err)
	}
	if len(popular) != 3 || popular[0].Name != "Delta" {
		t.Errorf("Popular() = %v, want Delta first of 3", popular)
	}

	recent, err := db.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 5 {
		t.Errorf("Recent() returned %d apps, want 5", len(recent))
	}

	tools, err := db.ByCategory(context.Background(), "tools")
	if err != nil {
		t.Fatalf("ByCategory() error = %v", err)
	}
	if len(tools) != 3 {
		t.Errorf("ByCategory(tools) returned %d apps, want 3", len(tools))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateApp_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Update(context.Background(), &model.App{ID: "nonexistent", Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteApp(t *testing.T) {
	db := newTestDB(t)
	app := createTestApp(t, db, &model.App{
		Name: "Doomed", Developer: "Dev", Category: "tools", Version: "1.0",
	})

	if err := db.Delete(context.Background(), app.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.GetByID(context.Background(), app.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}

	// Deleting again reports not found
	if err := db.Delete(context.Background(), app.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// COUNTER / AGGREGATE TESTS
// =========================================================================

func TestIncrementDownloads(t *testing.T) {
	db := newTestDB(t)
	app := createTestApp(t, db, &model.App{
		Name: "Alpha", Developer: "Dev", Category: "tools", Version: "1.0",
	})

	// Two sequential downloads leave the counter at exactly 2
	for i := 0; i < 2; i++ {
		if err := db.IncrementDownloads(context.Background(), app.ID); err != nil {
			t.Fatalf("IncrementDownloads() error = %v", err)
		}
	}

	found, err := db.GetByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Downloads != 2 {
		t.Errorf("Downloads = %d, want 2", found.Downloads)
	}
}

func TestIncrementDownloads_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.IncrementDownloads(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRefreshRating(t *testing.T) {
	db := newTestDB(t)
	app := createTestApp(t, db, &model.App{
		Name: "Rated", Developer: "Dev", Category: "tools", Version: "1.0",
	})

	for _, rating := range []int{5, 4, 3} {
		err := db.CreateReview(context.Background(), &model.Review{
			AppID: app.ID, UserID: "u1", Rating: rating,
		})
		if err != nil {
			t.Fatalf("CreateReview() error = %v", err)
		}
	}

	if err := db.RefreshRating(context.Background(), app.ID); err != nil {
		t.Fatalf("RefreshRating() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Rating != 4.0 {
		t.Errorf("Rating = %v, want 4.0 (mean of 5,4,3)", found.Rating)
	}
	if found.Reviews != 3 {
		t.Errorf("Reviews = %d, want 3", found.Reviews)
	}
}

func TestRefreshRating_MissingAppIsNoop(t *testing.T) {
	db := newTestDB(t)

	// Reviews may reference apps that don't exist; the recompute must not error
	if err := db.RefreshRating(context.Background(), "ghost"); err != nil {
		t.Errorf("RefreshRating(ghost) error = %v, want nil", err)
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)

	// Empty catalog: zeroes, not SQL NULL errors
	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalApps != 0 || stats.TotalDownloads != 0 || len(stats.CategoryStats) != 0 {
		t.Errorf("empty Stats() = %+v, want zeroes", stats)
	}

	seedCatalog(t, db)

	stats, err = db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalApps != 5 {
		t.Errorf("TotalApps = %d, want 5", stats.TotalApps)
	}
	if stats.TotalDownloads != 1800 {
		t.Errorf("TotalDownloads = %d, want 1800", stats.TotalDownloads)
	}
	counts := map[string]int{}
	for _, cs := range stats.CategoryStats {
		counts[cs.Category] = cs.Count
	}
	if counts["tools"] != 3 || counts["games"] != 1 || counts["social"] != 1 {
		t.Errorf("CategoryStats = %v, want tools:3 games:1 social:1", counts)
	}
}
