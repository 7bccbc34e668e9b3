package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
)

// CategoryInput carries the mutable fields of a category. Pointer fields
// distinguish absent from empty on update.
type CategoryInput struct {
	Name        *string
	DisplayName *string
	Icon        *string
	Description *string
}

// CategoryService manages the category taxonomy. Categories are labels, not
// containers: apps reference them by name string, and deleting a category
// never touches the apps carrying its name.
type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

// List returns all categories ordered by name, each with its current app
// count computed from the apps collection.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// Create stores a new category. Names are unique; a duplicate surfaces as a
// conflict, not an internal error.
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category := &model.Category{
		Name:        strings.TrimSpace(deref(input.Name)),
		DisplayName: strings.TrimSpace(deref(input.DisplayName)),
		Icon:        deref(input.Icon),
		Description: deref(input.Description),
	}
	if category.Name == "" {
		return nil, apperror.ValidationFailed("name", "category name is required")
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		slog.String("id", category.ID),
		slog.String("name", category.Name),
	)
	return category, nil
}

// Update applies only the fields present in the input to an existing
// category and returns the updated document.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*model.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "category ID is required")
	}

	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString(&category.Name, input.Name)
	applyString(&category.DisplayName, input.DisplayName)
	applyString(&category.Icon, input.Icon)
	applyString(&category.Description, input.Description)
	if category.Name == "" {
		return nil, apperror.ValidationFailed("name", "category name is required")
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category. Apps referencing it keep their now-dangling
// category string.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "category ID is required")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", slog.String("id", id))
	return nil
}
