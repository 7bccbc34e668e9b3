// Package handler is the HTTP layer: it parses requests, calls the services,
// and writes JSON responses. No business rules live here — a handler that
// needs an if-statement about the domain is a handler doing the service's
// job.
package handler

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/service"
	"github.com/sakif/apk-store/internal/storage"
)

// AppHandler serves the catalog endpoints: browsing, search, shelves,
// downloads, and the admin mutations.
type AppHandler struct {
	apps   *service.AppService
	logger *slog.Logger
}

// NewAppHandler creates an AppHandler.
func NewAppHandler(apps *service.AppService, logger *slog.Logger) *AppHandler {
	return &AppHandler{apps: apps, logger: logger}
}

// HandleList returns one page of the catalog.
//
// HTTP: GET /api/apps?category=&featured=&sort=&page=&limit=
//
// RESPONSE FORMAT:
//
//	{"apps":[...],"currentPage":1,"totalPages":3,"totalApps":42}
//
// Unparseable page/limit values fall back to the defaults rather than
// erroring — browsing must be forgiving.
func (h *AppHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.ListParams{
		Category: query.Get("category"),
		Featured: query.Get("featured"),
		Sort:     query.Get("sort"),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		params.Limit = limit
	}

	list, err := h.apps.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSearch runs a full-text search over name, description, and developer.
//
// HTTP: GET /api/apps/search?q=photo
//
// A blank query returns an empty list, not an error.
func (h *AppHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleSearchPath is HandleSearch with the query in the path instead of
// the q parameter. Older clients link search results this way.
//
// HTTP: GET /api/apps/search/{query}
func (h *AppHandler) HandleSearchPath(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.Search(r.Context(), r.PathValue("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleFeatured returns the featured shelf (up to 10 apps).
//
// HTTP: GET /api/apps/featured
func (h *AppHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.Featured(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandlePopular returns the most-downloaded shelf (up to 10 apps).
//
// HTTP: GET /api/apps/popular
func (h *AppHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.Popular(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleRecent returns the most recently updated shelf (up to 10 apps).
//
// HTTP: GET /api/apps/recent
func (h *AppHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.Recent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleByCategory returns every app in a category, unpaginated.
//
// HTTP: GET /api/apps/category/{category}
func (h *AppHandler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.ByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleGet returns a single app by ID.
//
// HTTP: GET /api/apps/{id}
func (h *AppHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	app, err := h.apps.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleStats returns catalog-wide aggregates.
//
// HTTP: GET /api/stats
func (h *AppHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.apps.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleDownload streams an app's APK as an attachment and bumps its
// download counter.
//
// HTTP: GET /api/apps/{id}/download
//
// The served filename is synthesized from the catalog data
// ("{name}-v{version}.apk"), not the generated name on disk.
func (h *AppHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	path, filename, err := h.apps.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.android.package-archive")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// HandleCreate adds a new app from a multipart form.
//
// HTTP: POST /api/apps (admin)
//
// FORM FIELDS: name, developer, category, version (required); description,
// fullDescription, whatsNew, size, packageName, minAndroidVersion,
// targetAndroidVersion, isFeatured, permissions (JSON array string).
// FILE FIELDS: apk (.apk), icon (image), screenshots (up to 5 images).
func (h *AppHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := parseAppForm(r)
	defer cleanup()
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// HandleUpdate applies a partial update from a multipart form. Only fields
// present in the form are touched.
//
// HTTP: PUT /api/apps/{id} (admin)
func (h *AppHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := parseAppForm(r)
	defer cleanup()
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleDelete removes an app and its stored files.
//
// HTTP: DELETE /api/apps/{id} (admin)
func (h *AppHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.apps.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "App deleted successfully"})
}

// parseAppForm reads a multipart form into a service.AppInput. Text fields
// use presence semantics (absent field = nil pointer = leave unchanged on
// update). The returned cleanup closes every opened file part and is safe to
// call unconditionally.
func parseAppForm(r *http.Request) (service.AppInput, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		return service.AppInput{}, noop,
			apperror.ValidationFailed("body", "request must be a multipart form within the size limit")
	}

	input := service.AppInput{
		Name:                 formField(r, "name"),
		Developer:            formField(r, "developer"),
		Category:             formField(r, "category"),
		Version:              formField(r, "version"),
		Size:                 formField(r, "size"),
		Description:          formField(r, "description"),
		FullDescription:      formField(r, "fullDescription"),
		WhatsNew:             formField(r, "whatsNew"),
		PackageName:          formField(r, "packageName"),
		MinAndroidVersion:    formField(r, "minAndroidVersion"),
		TargetAndroidVersion: formField(r, "targetAndroidVersion"),
		PermissionsJSON:      formField(r, "permissions"),
	}
	if raw := formField(r, "isFeatured"); raw != nil {
		featured := *raw == "true"
		input.IsFeatured = &featured
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	openPart := func(field string) (*service.Upload, error) {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			return nil, nil
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s part: %w", field, err)
		}
		opened = append(opened, f)
		return &service.Upload{Name: headers[0].Filename, Data: f}, nil
	}

	apk, err := openPart(storage.FieldAPK)
	if err != nil {
		return service.AppInput{}, cleanup, err
	}
	input.APK = apk

	icon, err := openPart(storage.FieldIcon)
	if err != nil {
		return service.AppInput{}, cleanup, err
	}
	input.IconFile = icon

	for _, header := range r.MultipartForm.File[storage.FieldScreenshots] {
		f, err := header.Open()
		if err != nil {
			return service.AppInput{}, cleanup, fmt.Errorf("opening screenshot part: %w", err)
		}
		opened = append(opened, f)
		input.Screenshots = append(input.Screenshots, service.Upload{
			Name: header.Filename,
			Data: f,
		})
	}

	return input, cleanup, nil
}

// formField returns a pointer to the field's first value, or nil if the
// field was not present in the form at all.
func formField(r *http.Request, name string) *string {
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
