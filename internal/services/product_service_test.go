// internal/services/product_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/config"
	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store/memory"
)

func newProductFixture(t *testing.T) (*ProductService, *memory.Stores) {
	t.Helper()
	stores := memory.New()

	storage, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	svc := NewProductService(stores.Products, stores.Categories, stores.Reviews, stores.Carts, storage)

	require.NoError(t, stores.Categories.Insert(context.Background(), &models.Category{
		Name:     "electronics",
		IsActive: true,
	}))
	return svc, stores
}

func createProduct(t *testing.T, svc *ProductService, name string, price float64, stock int64) *models.Product {
	t.Helper()
	product, err := svc.Create(context.Background(), &CreateProductRequest{
		Name:        name,
		Description: "A product description long enough to pass validation",
		Category:    "electronics",
		Price:       price,
		Stock:       stock,
	})
	require.NoError(t, err)
	return product
}

func TestCreateProductLinksCategory(t *testing.T) {
	svc, stores := newProductFixture(t)
	product := createProduct(t, svc, "Laptop", 1200, 5)

	category, err := stores.Categories.FindByName(context.Background(), "electronics")
	require.NoError(t, err)
	assert.Contains(t, category.Products, product.ID)
}

func TestCreateProductUnknownCategory(t *testing.T) {
	svc, _ := newProductFixture(t)

	_, err := svc.Create(context.Background(), &CreateProductRequest{
		Name:        "Laptop",
		Description: "A product description long enough to pass validation",
		Category:    "furniture",
		Price:       1200,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newProductFixture(t)

	_, err := svc.Create(context.Background(), &CreateProductRequest{
		Name:        "L",
		Description: "too short",
		Category:    "electronics",
		Price:       0,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListHidesBlockedProducts(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()

	visible := createProduct(t, svc, "Visible", 10, 5)
	blocked := createProduct(t, svc, "Blocked", 10, 5)
	_, err := svc.SetBlocked(ctx, blocked.ID, true)
	require.NoError(t, err)

	products, total, err := svc.List(ctx, ProductListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, visible.ID, products[0].ID)

	all, total, err := svc.ListAll(ctx, ProductListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}

func TestSetDiscountComputesPrice(t *testing.T) {
	svc, _ := newProductFixture(t)
	product := createProduct(t, svc, "Monitor", 200, 5)

	updated, err := svc.SetDiscount(context.Background(), product.ID, &SetDiscountRequest{Discount: 25})
	require.NoError(t, err)

	assert.InDelta(t, 25.0, updated.Discount, 1e-9)
	assert.InDelta(t, 150.0, updated.DiscountedPrice, 1e-9)
	assert.InDelta(t, 150.0, updated.EffectivePrice(time.Now()), 1e-9)
}

func TestSetDiscountRejectsInvertedWindow(t *testing.T) {
	svc, _ := newProductFixture(t)
	product := createProduct(t, svc, "Monitor", 200, 5)

	start := time.Now().Add(24 * time.Hour)
	end := time.Now()
	_, err := svc.SetDiscount(context.Background(), product.ID, &SetDiscountRequest{
		Discount:  10,
		StartDate: &start,
		EndDate:   &end,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClearDiscountRestoresListPrice(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Monitor", 200, 5)

	_, err := svc.SetDiscount(ctx, product.ID, &SetDiscountRequest{Discount: 25})
	require.NoError(t, err)

	cleared, err := svc.ClearDiscount(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, cleared.Discount)
	assert.InDelta(t, 200.0, cleared.EffectivePrice(time.Now()), 1e-9)
}

func TestSweepExpiredDiscounts(t *testing.T) {
	svc, stores := newProductFixture(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Monitor", 200, 5)

	start := time.Now().Add(-2 * time.Hour)
	end := time.Now().Add(-time.Hour)
	_, err := svc.SetDiscount(ctx, product.ID, &SetDiscountRequest{
		Discount:  25,
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SweepExpiredDiscounts(ctx))

	p, err := stores.Products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, p.Discount)
	assert.Nil(t, p.DiscountEndDate)
}

// Deleting a product cascades everywhere except orders: reviews go, category
// listings go, cart line items go. Order snapshots are covered separately.
func TestDeleteProductCascades(t *testing.T) {
	svc, stores := newProductFixture(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Doomed", 10, 5)

	userID := primitive.NewObjectID()
	require.NoError(t, stores.Reviews.Insert(ctx, &models.Review{
		Rating:    4,
		Type:      models.ReviewTypeProduct,
		UserID:    userID,
		ProductID: product.ID,
	}))
	carts := NewCartService(stores.Products, stores.Carts)
	_, err := carts.AddItem(ctx, userID, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, product.ID))

	_, err = svc.Get(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	reviews, err := stores.Reviews.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	category, err := stores.Categories.FindByName(ctx, "electronics")
	require.NoError(t, err)
	assert.NotContains(t, category.Products, product.ID)

	cart, err := stores.Carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Products)
}

func TestRelatedExcludesSelfAndOtherCategories(t *testing.T) {
	svc, stores := newProductFixture(t)
	ctx := context.Background()

	require.NoError(t, stores.Categories.Insert(ctx, &models.Category{Name: "books", IsActive: true}))

	anchor := createProduct(t, svc, "Phone", 500, 5)
	sibling := createProduct(t, svc, "Tablet", 400, 5)
	_, err := svc.Create(ctx, &CreateProductRequest{
		Name:        "Novel",
		Description: "A product description long enough to pass validation",
		Category:    "books",
		Price:       15,
	})
	require.NoError(t, err)

	related, err := svc.Related(ctx, anchor.ID, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, sibling.ID, related[0].ID)
}

func TestTopSellingOrdersBySold(t *testing.T) {
	svc, stores := newProductFixture(t)
	ctx := context.Background()

	slow := createProduct(t, svc, "Slow", 10, 5)
	fast := createProduct(t, svc, "Fast", 10, 5)
	require.NoError(t, stores.Products.IncrementSold(ctx, slow.ID, 2))
	require.NoError(t, stores.Products.IncrementSold(ctx, fast.ID, 9))

	top, err := svc.TopSelling(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, fast.ID, top[0].ID)
}

func TestCreateProductDuplicateName(t *testing.T) {
	svc, _ := newProductFixture(t)

	createProduct(t, svc, "Laptop", 1200, 5)
	_, err := svc.Create(context.Background(), &CreateProductRequest{
		Name:        "Laptop",
		Description: "A product description long enough to pass validation",
		Category:    "electronics",
		Price:       999,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateProductDuplicateBarcode(t *testing.T) {
	svc, _ := newProductFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateProductRequest{
		Name:        "Keyboard",
		Barcode:     "4006381333931",
		Description: "A product description long enough to pass validation",
		Category:    "electronics",
		Price:       50,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateProductRequest{
		Name:        "Mouse",
		Barcode:     "4006381333931",
		Description: "A product description long enough to pass validation",
		Category:    "electronics",
		Price:       20,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateProductsWithoutBarcodesNeverCollide(t *testing.T) {
	svc, _ := newProductFixture(t)

	createProduct(t, svc, "Pencil", 1, 50)
	createProduct(t, svc, "Eraser", 1, 50)
}

func TestUpdateProductRenameCollision(t *testing.T) {
	svc, _ := newProductFixture(t)

	createProduct(t, svc, "Laptop", 1200, 5)
	victim := createProduct(t, svc, "Desktop", 900, 5)

	taken := "Laptop"
	_, err := svc.Update(context.Background(), victim.ID, &UpdateProductRequest{Name: &taken})
	assert.ErrorIs(t, err, ErrDuplicate)
}
