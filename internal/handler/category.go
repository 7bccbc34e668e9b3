package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/service"
)

// CategoryHandler serves the category taxonomy endpoints.
type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// categoryBody is the JSON shape for category mutations. Pointer fields
// distinguish absent from empty, so a PUT can update just one field.
type categoryBody struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"displayName"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
}

func (b categoryBody) toInput() service.CategoryInput {
	return service.CategoryInput{
		Name:        b.Name,
		DisplayName: b.DisplayName,
		Icon:        b.Icon,
		Description: b.Description,
	}
}

// HandleList returns all categories with their current app counts.
//
// HTTP: GET /api/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleCreate adds a new category.
//
// HTTP: POST /api/categories (admin)
// REQUEST BODY: {"name":"tools","displayName":"Tools","icon":"🔧","description":"..."}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("invalid category JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	category, err := h.categories.Create(r.Context(), body.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// HandleUpdate applies a partial update to a category.
//
// HTTP: PUT /api/categories/{id} (admin)
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("invalid category JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	category, err := h.categories.Update(r.Context(), r.PathValue("id"), body.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleDelete removes a category. Apps in the category are untouched.
//
// HTTP: DELETE /api/categories/{id} (admin)
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}
