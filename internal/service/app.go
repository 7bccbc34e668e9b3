// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the document store
//
// Services accept primitives and small input structs, never *http.Request,
// so the same logic serves the HTTP handlers, the CLI client, and the seeder.
// They return domain errors (apperror.*) which each consumer maps to its own
// protocol — the HTTP layer to status codes, the CLI to exit messages.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
	"github.com/sakif/apk-store/internal/storage"
)

const (
	DefaultPageSize   = 20
	ShelfLimit        = 10 // featured / popular / recent
	SearchLimit       = 20
	MaxScreenshots    = 5
	ReviewPageSize    = 50
	MaxNameLength     = 200
	MaxFreeTextLength = 20000
)

// Upload is one incoming file: the client's original filename (used only for
// extension validation) and its content.
type Upload struct {
	Name string
	Data io.Reader
}

// AppInput carries the mutable fields of an app as they arrive from a
// multipart form. Pointer fields distinguish "absent" (nil — leave unchanged
// on update) from "present but empty". PermissionsJSON is the raw JSON-encoded
// string the clients send; it is parsed here and malformed JSON fails the
// whole operation.
type AppInput struct {
	Name                 *string
	Developer            *string
	Category             *string
	Icon                 *string
	Version              *string
	Size                 *string
	Description          *string
	FullDescription      *string
	WhatsNew             *string
	PackageName          *string
	MinAndroidVersion    *string
	TargetAndroidVersion *string
	IsFeatured           *bool
	PermissionsJSON      *string

	APK         *Upload
	IconFile    *Upload
	Screenshots []Upload
}

// ListParams mirrors the list endpoint's query surface.
// Featured is the raw query value: exactly "true" filters to featured apps,
// anything else (including empty) means no filter.
type ListParams struct {
	Category string
	Featured string
	Sort     string
	Page     int
	Limit    int
}

// AppService handles catalog reads, admin mutations, and downloads.
// It owns the file store: uploads are persisted to disk before the document
// is written, and file cleanup on delete happens here.
type AppService struct {
	repo    repository.AppRepository
	reviews repository.ReviewRepository
	files   *storage.Store
	logger  *slog.Logger

	// cascadeDelete controls what happens to an app's reviews and screenshots
	// when the app is deleted: true removes them, false (the default) orphans
	// them. Explicit configuration, not an implicit behavior.
	cascadeDelete bool
}

// NewAppService creates an AppService.
func NewAppService(
	repo repository.AppRepository,
	reviews repository.ReviewRepository,
	files *storage.Store,
	cascadeDelete bool,
	logger *slog.Logger,
) *AppService {
	return &AppService{
		repo:          repo,
		reviews:       reviews,
		files:         files,
		cascadeDelete: cascadeDelete,
		logger:        logger,
	}
}

// List returns one page of the catalog wrapped in the pagination envelope.
// totalPages = ceil(total/limit); page is 1-indexed.
func (s *AppService) List(ctx context.Context, params ListParams) (*model.AppList, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	filter := repository.AppFilter{Category: params.Category}
	if params.Featured == "true" {
		featured := true
		filter.Featured = &featured
	}

	apps, total, err := s.repo.List(ctx, repository.ListOptions{
		Filter: filter,
		Sort:   params.Sort,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error("failed to list apps", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing apps: %w", err)
	}

	return &model.AppList{
		Apps:        apps,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalApps:   total,
	}, nil
}

// GetByID retrieves one app. Returns apperror.ErrNotFound if it doesn't exist.
func (s *AppService) GetByID(ctx context.Context, id string) (*model.App, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "app ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Search returns up to 20 apps matching the full-text query, in store-default
// relevance order.
func (s *AppService) Search(ctx context.Context, query string) ([]model.App, error) {
	apps, err := s.repo.Search(ctx, query, SearchLimit)
	if err != nil {
		s.logger.Error("failed to search apps",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching apps: %w", err)
	}
	return apps, nil
}

// Featured returns up to 10 apps flagged for promotional placement.
func (s *AppService) Featured(ctx context.Context) ([]model.App, error) {
	apps, err := s.repo.Featured(ctx, ShelfLimit)
	if err != nil {
		return nil, fmt.Errorf("listing featured apps: %w", err)
	}
	return apps, nil
}

// Popular returns up to 10 apps by descending download count.
func (s *AppService) Popular(ctx context.Context) ([]model.App, error) {
	apps, err := s.repo.Popular(ctx, ShelfLimit)
	if err != nil {
		return nil, fmt.Errorf("listing popular apps: %w", err)
	}
	return apps, nil
}

// Recent returns up to 10 apps by most recent update.
func (s *AppService) Recent(ctx context.Context) ([]model.App, error) {
	apps, err := s.repo.Recent(ctx, ShelfLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent apps: %w", err)
	}
	return apps, nil
}

// ByCategory returns every app in a category, unpaginated.
func (s *AppService) ByCategory(ctx context.Context, category string) ([]model.App, error) {
	apps, err := s.repo.ByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("listing apps by category: %w", err)
	}
	return apps, nil
}

// Stats returns the catalog-wide aggregate counters.
func (s *AppService) Stats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate stats", slog.String("error", err.Error()))
		return nil, fmt.Errorf("aggregating stats: %w", err)
	}
	return stats, nil
}

// Create validates the input, persists any uploaded files, and writes the
// app document.
//
// ORDERING CONTRACT:
// Every validation — required fields, permissions JSON, upload extensions —
// runs BEFORE the first byte hits disk, and all files are on disk before the
// document is written. A rejected .exe therefore leaves no partial record
// and no stray file.
func (s *AppService) Create(ctx context.Context, input AppInput) (*model.App, error) {
	app := &model.App{
		Name:                 strings.TrimSpace(deref(input.Name)),
		Developer:            strings.TrimSpace(deref(input.Developer)),
		Category:             strings.TrimSpace(deref(input.Category)),
		Icon:                 deref(input.Icon),
		Version:              strings.TrimSpace(deref(input.Version)),
		Size:                 deref(input.Size),
		Description:          deref(input.Description),
		FullDescription:      deref(input.FullDescription),
		WhatsNew:             deref(input.WhatsNew),
		PackageName:          deref(input.PackageName),
		MinAndroidVersion:    deref(input.MinAndroidVersion),
		TargetAndroidVersion: deref(input.TargetAndroidVersion),
	}
	if input.IsFeatured != nil {
		app.IsFeatured = *input.IsFeatured
	}

	if app.Name == "" {
		return nil, apperror.ValidationFailed("name", "app name is required")
	}
	if app.Developer == "" {
		return nil, apperror.ValidationFailed("developer", "developer is required")
	}
	if app.Category == "" {
		return nil, apperror.ValidationFailed("category", "category is required")
	}
	if app.Version == "" {
		return nil, apperror.ValidationFailed("version", "version is required")
	}
	if len(app.Name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("app name must be %d characters or less", MaxNameLength))
	}
	if len(app.FullDescription) > MaxFreeTextLength {
		return nil, apperror.ValidationFailed("fullDescription",
			fmt.Sprintf("full description must be %d characters or less", MaxFreeTextLength))
	}

	// Clients send permissions as a JSON-encoded string; absent means empty.
	permissions, err := parsePermissions(input.PermissionsJSON, []string{})
	if err != nil {
		return nil, err
	}
	app.Permissions = permissions
	app.Screenshots = []string{}

	if err := s.saveFiles(app, input); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, app); err != nil {
		s.logger.Error("failed to create app",
			slog.String("name", app.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s.logger.Info("app created",
		slog.String("id", app.ID),
		slog.String("name", app.Name),
		slog.String("category", app.Category),
	)

	return app, nil
}

// Update applies only the fields present in the input to an existing app and
// always refreshes updatedAt, even if nothing changed. Replaced files are NOT
// removed from disk — the old apk/icon/screenshots stay in their buckets.
func (s *AppService) Update(ctx context.Context, id string, input AppInput) (*model.App, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "app ID is required")
	}

	// Fetch-then-update: the NotFound comes from GetByID, and we return the
	// complete updated document to the caller.
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString(&app.Name, input.Name)
	applyString(&app.Developer, input.Developer)
	applyString(&app.Category, input.Category)
	applyString(&app.Icon, input.Icon)
	applyString(&app.Version, input.Version)
	applyString(&app.Size, input.Size)
	applyString(&app.Description, input.Description)
	applyString(&app.FullDescription, input.FullDescription)
	applyString(&app.WhatsNew, input.WhatsNew)
	applyString(&app.PackageName, input.PackageName)
	applyString(&app.MinAndroidVersion, input.MinAndroidVersion)
	applyString(&app.TargetAndroidVersion, input.TargetAndroidVersion)
	if input.IsFeatured != nil {
		app.IsFeatured = *input.IsFeatured
	}
	if len(app.Name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("app name must be %d characters or less", MaxNameLength))
	}

	permissions, err := parsePermissions(input.PermissionsJSON, app.Permissions)
	if err != nil {
		return nil, err
	}
	app.Permissions = permissions

	if err := s.saveFiles(app, input); err != nil {
		return nil, err
	}

	// updatedAt advances on every update, even a no-op one. The repository
	// writes this value verbatim; the fetch-then-modify owner sets it.
	app.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, app); err != nil {
		s.logger.Error("failed to update app",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating app: %w", err)
	}

	// Re-read so system-maintained counters (downloads, rating, reviews)
	// reflect what is actually stored.
	return s.repo.GetByID(ctx, id)
}

// Delete removes the app document, then best-effort removes its APK and icon
// from the file store. File removal failures are logged, never reported to
// the caller — the document is already gone by then. Reviews and screenshots
// are orphaned unless the service was configured with cascade deletion.
func (s *AppService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "app ID is required")
	}

	// Fetch first: we need the stored filenames before the document goes away.
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if app.APKFile != "" {
		if err := s.files.RemoveDownload(app.APKFile); err != nil {
			s.logger.Warn("failed to remove apk file",
				slog.String("id", id),
				slog.String("file", app.APKFile),
				slog.String("error", err.Error()),
			)
		}
	}
	if app.Icon != "" {
		if err := s.files.RemoveUpload(app.Icon); err != nil {
			s.logger.Warn("failed to remove icon file",
				slog.String("id", id),
				slog.String("file", app.Icon),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.cascadeDelete {
		if err := s.reviews.DeleteReviewsByApp(ctx, id); err != nil {
			s.logger.Warn("failed to cascade reviews",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		for _, shot := range app.Screenshots {
			if err := s.files.RemoveUpload(shot); err != nil {
				s.logger.Warn("failed to remove screenshot",
					slog.String("id", id),
					slog.String("file", shot),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	s.logger.Info("app deleted", slog.String("id", id), slog.String("name", app.Name))
	return nil
}

// Download resolves an app's APK on disk, bumps the download counter, and
// returns the path plus the synthesized client-facing filename
// "{name}-v{version}.apk".
//
// Three distinct failures collapse into the same NotFound class: the app
// doesn't exist, it has no APK reference, or the referenced file is missing
// from disk. Callers cannot (and should not) tell them apart.
//
// The counter is incremented BEFORE the caller streams the file; if the
// stream dies halfway, the download still counted.
func (s *AppService) Download(ctx context.Context, id string) (path, filename string, err error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}

	if app.APKFile == "" {
		return "", "", apperror.NotFound("apk file", id)
	}

	path = s.files.DownloadPath(app.APKFile)
	if _, err := os.Stat(path); err != nil {
		return "", "", apperror.NotFound("apk file", id)
	}

	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		return "", "", fmt.Errorf("incrementing downloads: %w", err)
	}

	s.logger.Info("app downloaded",
		slog.String("id", id),
		slog.String("name", app.Name),
	)

	return path, fmt.Sprintf("%s-v%s.apk", app.Name, app.Version), nil
}

// saveFiles validates every upload's extension first, then writes them all.
// Validating up front means a bad screenshot extension rejects the request
// before the (possibly large) APK is written.
func (s *AppService) saveFiles(app *model.App, input AppInput) error {
	if len(input.Screenshots) > MaxScreenshots {
		return apperror.ValidationFailed("screenshots",
			fmt.Sprintf("at most %d screenshots are allowed", MaxScreenshots))
	}

	if input.APK != nil {
		if err := storage.ValidateExtension(storage.FieldAPK, input.APK.Name); err != nil {
			return err
		}
	}
	if input.IconFile != nil {
		if err := storage.ValidateExtension(storage.FieldIcon, input.IconFile.Name); err != nil {
			return err
		}
	}
	for _, shot := range input.Screenshots {
		if err := storage.ValidateExtension(storage.FieldScreenshots, shot.Name); err != nil {
			return err
		}
	}

	if input.APK != nil {
		name, err := s.files.Save(storage.FieldAPK, input.APK.Name, input.APK.Data)
		if err != nil {
			return fmt.Errorf("saving apk: %w", err)
		}
		app.APKFile = name
	}
	if input.IconFile != nil {
		name, err := s.files.Save(storage.FieldIcon, input.IconFile.Name, input.IconFile.Data)
		if err != nil {
			return fmt.Errorf("saving icon: %w", err)
		}
		app.Icon = name
	}
	if len(input.Screenshots) > 0 {
		names := make([]string, 0, len(input.Screenshots))
		for _, shot := range input.Screenshots {
			name, err := s.files.Save(storage.FieldScreenshots, shot.Name, shot.Data)
			if err != nil {
				return fmt.Errorf("saving screenshot: %w", err)
			}
			names = append(names, name)
		}
		app.Screenshots = names
	}

	return nil
}

// parsePermissions decodes the JSON-encoded permissions string.
// nil means "field absent": keep the fallback (existing list on update,
// empty list on create). Malformed JSON fails the whole operation.
func parsePermissions(raw *string, fallback []string) ([]string, error) {
	if raw == nil {
		if fallback == nil {
			fallback = []string{}
		}
		return fallback, nil
	}

	text := strings.TrimSpace(*raw)
	if text == "" {
		text = "[]"
	}

	var permissions []string
	if err := json.Unmarshal([]byte(text), &permissions); err != nil {
		return nil, apperror.ValidationFailed("permissions",
			"permissions must be a JSON array of strings")
	}
	if permissions == nil {
		permissions = []string{}
	}
	return permissions, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// applyString overwrites dst only when the input field was present.
func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
