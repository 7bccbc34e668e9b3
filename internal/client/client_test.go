package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/service"
)

func TestClient_Apps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/apps", r.URL.Path)
		assert.Equal(t, "tools", r.URL.Query().Get("category"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"apps":[{"id":"a1","name":"Alpha"}],"currentPage":2,"totalPages":3,"totalApps":5}`))
	}))
	defer srv.Close()

	list, err := New(srv.URL).Apps(context.Background(), service.ListParams{Category: "tools", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, list.CurrentPage)
	assert.Equal(t, 5, list.TotalApps)
	require.Len(t, list.Apps, 1)
	assert.Equal(t, "Alpha", list.Apps[0].Name)
}

func TestClient_ErrorEnvelopeMapsToDomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"not found", http.StatusNotFound, `{"error":"not_found","message":"app not found with id x"}`, apperror.ErrNotFound},
		{"validation", http.StatusBadRequest, `{"error":"validation_error","message":"app name is required"}`, apperror.ErrValidation},
		{"conflict", http.StatusConflict, `{"error":"conflict","message":"category conflict with id tools"}`, apperror.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, `{"error":"unauthorized","message":"invalid credentials"}`, apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).App(context.Background(), "x")
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		w.Write([]byte(`{"message":"App deleted successfully"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, WithToken("sekrit")).DeleteApp(context.Background(), "a1")
	assert.NoError(t, err)
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/apps/a1/download", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="Alpha-v1.0.apk"`)
		w.Header().Set("Content-Type", "application/vnd.android.package-archive")
		w.Write([]byte("apk bytes"))
	}))
	defer srv.Close()

	body, filename, size, err := New(srv.URL).Download(context.Background(), "a1")
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, "Alpha-v1.0.apk", filename)
	assert.Equal(t, int64(9), size)
}

func TestAttachmentFilename(t *testing.T) {
	assert.Equal(t, "x.apk", attachmentFilename(`attachment; filename="x.apk"`))
	// %q on the server escapes embedded quotes; they must round-trip
	assert.Equal(t, `My "Best" App-v1.0.apk`,
		attachmentFilename(`attachment; filename="My \"Best\" App-v1.0.apk"`))
	assert.Equal(t, "", attachmentFilename("attachment"))
	assert.Equal(t, "", attachmentFilename(""))
}

func TestSampleSource_BrowsesLikeTheAPI(t *testing.T) {
	src := NewSampleSource()
	ctx := context.Background()

	list, err := src.Apps(ctx, service.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 10, list.TotalApps)
	// Default order is downloads descending
	assert.Equal(t, "Video Chat Connect", list.Apps[0].Name)

	featured, err := src.Featured(ctx)
	require.NoError(t, err)
	for _, app := range featured {
		assert.True(t, app.IsFeatured, "%s is not featured", app.Name)
	}

	results, err := src.Search(ctx, "photo")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Photo Editor Pro", results[0].Name)

	// IDs are stable: an app from a listing can be fetched directly
	app, err := src.App(ctx, list.Apps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Video Chat Connect", app.Name)

	_, err = src.App(ctx, "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSampleSource_CategoryCounts(t *testing.T) {
	src := NewSampleSource()

	categories, err := src.Categories(context.Background())
	require.NoError(t, err)

	counts := map[string]int{}
	for _, c := range categories {
		counts[c.Name] = c.AppCount
	}
	assert.Equal(t, 2, counts["tools"])
	assert.Equal(t, 1, counts["games"])
	// "health" has an app but no category record — it simply doesn't appear
	_, ok := counts["health"]
	assert.False(t, ok)
}

func TestSampleSource_Stats(t *testing.T) {
	src := NewSampleSource()

	stats, err := src.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalApps)
	// All apps, "health" included, count toward the totals
	assert.Len(t, stats.CategoryStats, 9)
}
