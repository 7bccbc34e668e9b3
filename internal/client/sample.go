package client

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/seed"
	"github.com/sakif/apk-store/internal/service"
)

// SampleSource serves the embedded sample catalog without a server. It backs
// the CLI's --offline mode: same commands, same output, no network.
//
// Search here is a case-insensitive substring match over name, description,
// and developer — simpler than the server's full-text index, but close
// enough for a ten-app sample.
type SampleSource struct {
	apps       []model.App
	categories []model.Category
}

// NewSampleSource builds a SampleSource over the seed dataset. IDs are
// generated once at construction, so they're stable for the lifetime of the
// source (an app picked out of a listing can be fetched by ID).
func NewSampleSource() *SampleSource {
	apps := seed.Apps()
	for i := range apps {
		apps[i].ID = xid.New().String()
	}
	categories := seed.Categories()
	for i := range categories {
		categories[i].ID = xid.New().String()
	}
	return &SampleSource{apps: apps, categories: categories}
}

// Apps returns one page of the sample catalog with the same envelope and
// defaults as the API.
func (s *SampleSource) Apps(_ context.Context, params service.ListParams) (*model.AppList, error) {
	matched := make([]model.App, 0, len(s.apps))
	for _, app := range s.apps {
		if params.Category != "" && app.Category != params.Category {
			continue
		}
		if params.Featured == "true" && !app.IsFeatured {
			continue
		}
		matched = append(matched, app)
	}

	sortApps(matched, params.Sort)

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = service.DefaultPageSize
	}

	total := len(matched)
	start := (page - 1) * limit
	pageApps := []model.App{}
	if start < total {
		end := start + limit
		if end > total {
			end = total
		}
		pageApps = matched[start:end]
	}

	return &model.AppList{
		Apps:        pageApps,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalApps:   total,
	}, nil
}

// App finds a sample app by ID.
func (s *SampleSource) App(_ context.Context, id string) (*model.App, error) {
	for _, app := range s.apps {
		if app.ID == id {
			result := app
			return &result, nil
		}
	}
	return nil, apperror.NotFound("app", id)
}

// Search does a case-insensitive substring match.
func (s *SampleSource) Search(_ context.Context, query string) ([]model.App, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	result := []model.App{}
	if query == "" {
		return result, nil
	}
	for _, app := range s.apps {
		haystack := strings.ToLower(app.Name + " " + app.Description + " " + app.Developer)
		if strings.Contains(haystack, query) {
			result = append(result, app)
		}
		if len(result) == service.SearchLimit {
			break
		}
	}
	return result, nil
}

// Featured returns the featured sample apps.
func (s *SampleSource) Featured(_ context.Context) ([]model.App, error) {
	result := []model.App{}
	for _, app := range s.apps {
		if app.IsFeatured {
			result = append(result, app)
		}
	}
	sortApps(result, "-downloads")
	return capList(result, service.ShelfLimit), nil
}

// Popular returns the samples by download count.
func (s *SampleSource) Popular(_ context.Context) ([]model.App, error) {
	result := append([]model.App{}, s.apps...)
	sortApps(result, "-downloads")
	return capList(result, service.ShelfLimit), nil
}

// Recent returns the samples by update time. The seed data carries no
// timestamps of its own, so this is just catalog order.
func (s *SampleSource) Recent(_ context.Context) ([]model.App, error) {
	return capList(append([]model.App{}, s.apps...), service.ShelfLimit), nil
}

// ByCategory returns the samples in one category.
func (s *SampleSource) ByCategory(_ context.Context, category string) ([]model.App, error) {
	result := []model.App{}
	for _, app := range s.apps {
		if app.Category == category {
			result = append(result, app)
		}
	}
	return result, nil
}

// Categories returns the sample taxonomy with computed app counts.
func (s *SampleSource) Categories(_ context.Context) ([]model.Category, error) {
	counts := map[string]int{}
	for _, app := range s.apps {
		counts[app.Category]++
	}

	result := append([]model.Category{}, s.categories...)
	for i := range result {
		result[i].AppCount = counts[result[i].Name]
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Stats aggregates over the sample catalog.
func (s *SampleSource) Stats(_ context.Context) (*model.Stats, error) {
	stats := &model.Stats{CategoryStats: []model.CategoryStat{}}
	counts := map[string]int{}
	for _, app := range s.apps {
		stats.TotalApps++
		stats.TotalDownloads += app.Downloads
		counts[app.Category]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stats.CategoryStats = append(stats.CategoryStats, model.CategoryStat{
			Category: name, Count: counts[name],
		})
	}
	return stats, nil
}

// Reviews always returns an empty list — the sample catalog ships review
// counts but no review bodies.
func (s *SampleSource) Reviews(_ context.Context, _ string) ([]model.Review, error) {
	return []model.Review{}, nil
}

func capList(apps []model.App, limit int) []model.App {
	if len(apps) > limit {
		return apps[:limit]
	}
	return apps
}

// sortApps applies the API's sort syntax (field name, leading '-' for
// descending). Unknown fields leave the order untouched.
func sortApps(apps []model.App, sortBy string) {
	if sortBy == "" {
		sortBy = "-downloads"
	}
	desc := strings.HasPrefix(sortBy, "-")
	field := strings.TrimPrefix(sortBy, "-")

	var less func(a, b model.App) bool
	switch field {
	case "name":
		less = func(a, b model.App) bool { return a.Name < b.Name }
	case "downloads":
		less = func(a, b model.App) bool { return a.Downloads < b.Downloads }
	case "rating":
		less = func(a, b model.App) bool { return a.Rating < b.Rating }
	case "reviews":
		less = func(a, b model.App) bool { return a.Reviews < b.Reviews }
	default:
		return
	}

	sort.SliceStable(apps, func(i, j int) bool {
		if desc {
			return less(apps[j], apps[i])
		}
		return less(apps[i], apps[j])
	})
}
