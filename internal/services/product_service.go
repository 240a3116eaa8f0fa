// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/utils"
)

// ProductService owns catalog management. It never mutates stock directly
// except to seed the initial quantity at creation; every later stock movement
// goes through the cart/inventory coordinator.
type ProductService struct {
	products   store.ProductStore
	categories store.CategoryStore
	reviews    store.ReviewStore
	carts      store.CartStore
	storage    *StorageService
}

func NewProductService(
	products store.ProductStore,
	categories store.CategoryStore,
	reviews store.ReviewStore,
	carts store.CartStore,
	storage *StorageService,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		reviews:    reviews,
		carts:      carts,
		storage:    storage,
	}
}

type CreateProductRequest struct {
	Name        string         `json:"name" validate:"required,min=2,max=255"`
	Barcode     string         `json:"barcode,omitempty"`
	Description string         `json:"description" validate:"required,min=10"`
	Brand       string         `json:"brand,omitempty"`
	Category    string         `json:"category" validate:"required"`
	Price       float64        `json:"price" validate:"required,min=0.01"`
	Stock       int64          `json:"stock" validate:"min=0"`
	Images      []models.Image `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Barcode     *string        `json:"barcode,omitempty"`
	Description *string        `json:"description,omitempty" validate:"omitempty,min=10"`
	Brand       *string        `json:"brand,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Price       *float64       `json:"price,omitempty" validate:"omitempty,min=0.01"`
	Images      []models.Image `json:"images,omitempty"`
}

type SetDiscountRequest struct {
	Discount  float64    `json:"discount" validate:"required,gt=0,lt=100"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type ProductListParams struct {
	utils.PaginationParams
	Category   string `form:"category"`
	Brand      string `form:"brand"`
	Discounted bool   `form:"discounted"`
	InStock    bool   `form:"in_stock"`
}

func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	category, err := s.categories.FindByName(ctx, req.Category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("category %q: %w", req.Category, ErrNotFound)
		}
		return nil, fmt.Errorf("load category: %w", err)
	}

	product := &models.Product{
		Name:        req.Name,
		Barcode:     req.Barcode,
		Description: req.Description,
		Brand:       req.Brand,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
	}
	if err := s.products.Insert(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("product name or barcode: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}

	if err := s.categories.PushProduct(ctx, category.ID, product.ID); err != nil {
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID.Hex(),
			"category":   req.Category,
		}).WithError(err).Warn("failed to link product to category")
	}

	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

// List returns the customer-facing catalog: blocked products are hidden.
func (s *ProductService) List(ctx context.Context, params ProductListParams) ([]models.Product, int64, error) {
	notBlocked := false
	filter := store.ProductFilter{
		Blocked:    &notBlocked,
		Category:   params.Category,
		Brand:      params.Brand,
		Discounted: params.Discounted,
		InStock:    params.InStock,
		Search:     params.Search,
	}
	return s.list(ctx, filter, params.PaginationParams)
}

// ListAll is the staff view and includes blocked products.
func (s *ProductService) ListAll(ctx context.Context, params ProductListParams) ([]models.Product, int64, error) {
	filter := store.ProductFilter{
		Category:   params.Category,
		Brand:      params.Brand,
		Discounted: params.Discounted,
		InStock:    params.InStock,
		Search:     params.Search,
	}
	return s.list(ctx, filter, params.PaginationParams)
}

func (s *ProductService) list(ctx context.Context, filter store.ProductFilter, pagination utils.PaginationParams) ([]models.Product, int64, error) {
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := utils.ListOptionsFrom(pagination, []string{"created_at", "name", "price", "sold", "rating"})
	products, err := s.products.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	update := store.ProductUpdate{
		Name:        req.Name,
		Barcode:     req.Barcode,
		Description: req.Description,
		Brand:       req.Brand,
		Category:    req.Category,
		Price:       req.Price,
		Images:      req.Images,
	}
	product, err := s.products.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("product name or barcode: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Delete removes a product and everything that references it: reviews,
// category listings, cart line items and stored images. Orders keep their
// denormalized snapshots untouched.
func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("product: %w", ErrNotFound)
		}
		return fmt.Errorf("load product: %w", err)
	}

	if err := s.reviews.DeleteByProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product reviews: %w", err)
	}
	if err := s.categories.PullProductFromAll(ctx, id); err != nil {
		return fmt.Errorf("unlink product from categories: %w", err)
	}
	if err := s.carts.RemoveProductFromAll(ctx, id); err != nil {
		return fmt.Errorf("remove product from carts: %w", err)
	}

	for _, img := range product.Images {
		if err := s.storage.DeleteImage(ctx, img.PublicID); err != nil {
			logrus.WithField("public_id", img.PublicID).
				WithError(err).Warn("failed to delete product image")
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *ProductService) SetDiscount(ctx context.Context, id primitive.ObjectID, req *SetDiscountRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("discount window ends before it starts: %w", ErrInvalidInput)
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	discounted := product.Price * (1 - req.Discount/100)
	update := store.ProductUpdate{
		Discount:          &req.Discount,
		DiscountedPrice:   &discounted,
		DiscountStartDate: req.StartDate,
		DiscountEndDate:   req.EndDate,
	}
	product, err = s.products.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("set discount: %w", err)
	}
	return product, nil
}

func (s *ProductService) ClearDiscount(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var zero float64
	update := store.ProductUpdate{
		Discount:        &zero,
		DiscountedPrice: &zero,
	}
	product, err := s.products.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("clear discount: %w", err)
	}
	return product, nil
}

// SweepExpiredDiscounts unsets discounts whose window has closed. Run
// periodically from the server process.
func (s *ProductService) SweepExpiredDiscounts(ctx context.Context) error {
	return s.products.ClearExpiredDiscounts(ctx, time.Now())
}

func (s *ProductService) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*models.Product, error) {
	update := store.ProductUpdate{IsBlocked: &blocked}
	product, err := s.products.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Related returns other visible products in the same category.
func (s *ProductService) Related(ctx context.Context, id primitive.ObjectID, limit int64) ([]models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	notBlocked := false
	filter := store.ProductFilter{
		Blocked:   &notBlocked,
		Category:  product.Category,
		ExcludeID: id,
	}
	related, err := s.products.List(ctx, filter, store.ListOptions{Limit: limit, SortBy: "sold", SortDesc: true})
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	if related == nil {
		related = []models.Product{}
	}
	return related, nil
}

func (s *ProductService) TopSelling(ctx context.Context, limit int64) ([]models.Product, error) {
	return s.top(ctx, "sold", limit)
}

func (s *ProductService) TopRated(ctx context.Context, limit int64) ([]models.Product, error) {
	return s.top(ctx, "rating", limit)
}

func (s *ProductService) top(ctx context.Context, field string, limit int64) ([]models.Product, error) {
	notBlocked := false
	filter := store.ProductFilter{Blocked: &notBlocked}
	products, err := s.products.List(ctx, filter, store.ListOptions{Limit: limit, SortBy: field, SortDesc: true})
	if err != nil {
		return nil, fmt.Errorf("list products by %s: %w", field, err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
