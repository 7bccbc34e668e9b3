// Package client is the consumer side of the store: a typed HTTP client for
// the API, and a Source abstraction that lets the CLI browse either a live
// server or the built-in sample catalog.
package client

import (
	"context"

	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/service"
)

// Source is where catalog data comes from. The CLI's browse commands are
// written against this interface, so they work identically whether the data
// is a running server (*Client) or the embedded samples (*SampleSource).
type Source interface {
	Apps(ctx context.Context, params service.ListParams) (*model.AppList, error)
	App(ctx context.Context, id string) (*model.App, error)
	Search(ctx context.Context, query string) ([]model.App, error)
	Featured(ctx context.Context) ([]model.App, error)
	Popular(ctx context.Context) ([]model.App, error)
	Recent(ctx context.Context) ([]model.App, error)
	ByCategory(ctx context.Context, category string) ([]model.App, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Stats(ctx context.Context) (*model.Stats, error)
	Reviews(ctx context.Context, appID string) ([]model.Review, error)
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*SampleSource)(nil)
)
