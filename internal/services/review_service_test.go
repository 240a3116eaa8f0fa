// internal/services/review_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store/memory"
)

func newReviewFixture(t *testing.T) (*ReviewService, *memory.Stores, primitive.ObjectID) {
	t.Helper()
	stores := memory.New()
	product := &models.Product{Name: "Widget", Price: 10, Stock: 5}
	require.NoError(t, stores.Products.Insert(context.Background(), product))
	svc := NewReviewService(stores.Reviews, stores.Products, NewAuthorizationService())
	return svc, stores, product.ID
}

func TestCreateProductReviewRefreshesRating(t *testing.T) {
	svc, stores, productID := newReviewFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, primitive.NewObjectID(), &CreateReviewRequest{
		Rating:    5,
		Comment:   "great",
		Type:      models.ReviewTypeProduct,
		ProductID: productID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, primitive.NewObjectID(), &CreateReviewRequest{
		Rating:    2,
		Comment:   "meh",
		Type:      models.ReviewTypeProduct,
		ProductID: productID,
	})
	require.NoError(t, err)

	p, err := stores.Products.FindByID(ctx, productID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, p.Rating, 1e-9)
	assert.EqualValues(t, 2, p.NumReviews)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, _, productID := newReviewFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	_, err := svc.Create(ctx, userID, &CreateReviewRequest{
		Rating:    6,
		Comment:   "too good",
		Type:      models.ReviewTypeProduct,
		ProductID: productID,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, userID, &CreateReviewRequest{
		Rating:  4,
		Comment: "no product",
		Type:    models.ReviewTypeProduct,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, userID, &CreateReviewRequest{
		Rating:    4,
		Comment:   "gone",
		Type:      models.ReviewTypeProduct,
		ProductID: primitive.NewObjectID(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSiteReviewNeedsNoProduct(t *testing.T) {
	svc, _, _ := newReviewFixture(t)

	review, err := svc.Create(context.Background(), primitive.NewObjectID(), &CreateReviewRequest{
		Rating:  4,
		Comment: "nice shop",
		Type:    models.ReviewTypeSite,
	})
	require.NoError(t, err)

	site, err := svc.ListSite(context.Background())
	require.NoError(t, err)
	require.Len(t, site, 1)
	assert.Equal(t, review.ID, site[0].ID)
}

func TestUpdateReviewOwnerOnly(t *testing.T) {
	svc, _, productID := newReviewFixture(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	review, err := svc.Create(ctx, owner, &CreateReviewRequest{
		Rating:    5,
		Comment:   "great",
		Type:      models.ReviewTypeProduct,
		ProductID: productID,
	})
	require.NoError(t, err)

	newRating := 3.0
	_, err = svc.Update(ctx, review.ID, primitive.NewObjectID(), &UpdateReviewRequest{Rating: &newRating})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, review.ID, owner, &UpdateReviewRequest{Rating: &newRating})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, updated.Rating, 1e-9)
}

func TestDeleteReviewModeratorOverride(t *testing.T) {
	svc, stores, productID := newReviewFixture(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	review, err := svc.Create(ctx, owner, &CreateReviewRequest{
		Rating:    1,
		Comment:   "spam",
		Type:      models.ReviewTypeProduct,
		ProductID: productID,
	})
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	err = svc.Delete(ctx, review.ID, stranger, models.RoleUser)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, review.ID, stranger, models.RoleStaff))

	// Rating falls back to zero once the only review is gone.
	p, err := stores.Products.FindByID(ctx, productID)
	require.NoError(t, err)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.NumReviews)
}
