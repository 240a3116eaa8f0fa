// internal/services/category_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/utils"
)

type CategoryService struct {
	categories store.CategoryStore
	products   store.ProductStore
	storage    *StorageService
}

func NewCategoryService(categories store.CategoryStore, products store.ProductStore, storage *StorageService) *CategoryService {
	return &CategoryService{
		categories: categories,
		products:   products,
		storage:    storage,
	}
}

type CreateCategoryRequest struct {
	Name        string        `json:"name" validate:"required,min=2,max=100"`
	Description string        `json:"description,omitempty"`
	Image       *models.Image `json:"image,omitempty"`
}

type UpdateCategoryRequest struct {
	Name        *string       `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string       `json:"description,omitempty"`
	Image       *models.Image `json:"image,omitempty"`
	IsActive    *bool         `json:"is_active,omitempty"`
}

func (s *CategoryService) Create(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.categories.FindByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("category %q: %w", req.Name, ErrDuplicate)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check category name: %w", err)
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Products:    []primitive.ObjectID{},
		IsActive:    true,
	}
	if req.Image != nil {
		category.Image = *req.Image
	}
	if err := s.categories.Insert(ctx, category); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("category: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	update := store.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		IsActive:    req.IsActive,
	}
	category, err := s.categories.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("category: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete removes an empty category. Categories still listing products cannot
// be deleted; move or delete the products first.
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(category.Products) > 0 {
		return fmt.Errorf("category still contains %d products: %w", len(category.Products), ErrInvalidInput)
	}

	if category.Image.PublicID != "" {
		if err := s.storage.DeleteImage(ctx, category.Image.PublicID); err != nil {
			logrus.WithField("public_id", category.Image.PublicID).
				WithError(err).Warn("failed to delete category image")
		}
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
