package seed

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/apk-store/internal/repository"
	"github.com/sakif/apk-store/internal/repository/sqlite"
)

func TestRun(t *testing.T) {
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	if err := Run(context.Background(), db, logger); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	_, total, err := db.List(context.Background(), repository.ListOptions{Page: 1, Limit: 50})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != len(Apps()) {
		t.Errorf("seeded %d apps, want %d", total, len(Apps()))
	}

	categories, err := db.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != len(Categories()) {
		t.Errorf("seeded %d categories, want %d", len(categories), len(Categories()))
	}

	// Seeded counters survive the round trip
	apps, err := db.Search(context.Background(), "Photo Editor", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(apps) == 0 || apps[0].Downloads != 10000000 {
		t.Errorf("Photo Editor Pro downloads not preserved: %+v", apps)
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Running twice must not duplicate anything (the wipe sees to it) and
	// must not trip the unique category names.
	for i := 0; i < 2; i++ {
		if err := Run(context.Background(), db, logger); err != nil {
			t.Fatalf("Run() #%d error = %v", i+1, err)
		}
	}

	_, total, err := db.List(context.Background(), repository.ListOptions{Page: 1, Limit: 50})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != len(Apps()) {
		t.Errorf("after two runs: %d apps, want %d", total, len(Apps()))
	}
}
