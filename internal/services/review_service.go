// internal/services/review_service.go
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

type ReviewService struct {
	reviews       store.ReviewStore
	products      store.ProductStore
	authorization *AuthorizationService
}

func NewReviewService(reviews store.ReviewStore, products store.ProductStore, authorization *AuthorizationService) *ReviewService {
	return &ReviewService{
		reviews:       reviews,
		products:      products,
		authorization: authorization,
	}
}

type CreateReviewRequest struct {
	Rating    float64            `json:"rating" validate:"required,min=1,max=5"`
	Comment   string             `json:"comment" validate:"required,min=2"`
	Type      models.ReviewType  `json:"type" validate:"required"`
	ProductID primitive.ObjectID `json:"product_id,omitempty"`
}

type UpdateReviewRequest struct {
	Rating  *float64 `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string  `json:"comment,omitempty" validate:"omitempty,min=2"`
}

func (s *ReviewService) Create(ctx context.Context, userID primitive.ObjectID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Type != models.ReviewTypeSite && req.Type != models.ReviewTypeProduct {
		return nil, fmt.Errorf("unknown review type %q: %w", req.Type, ErrInvalidInput)
	}
	if req.Type == models.ReviewTypeProduct && req.ProductID.IsZero() {
		return nil, fmt.Errorf("product review requires a product id: %w", ErrInvalidInput)
	}

	if req.Type == models.ReviewTypeProduct {
		if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("product: %w", ErrNotFound)
			}
			return nil, fmt.Errorf("load product: %w", err)
		}
	}

	review := &models.Review{
		Rating:    req.Rating,
		Comment:   req.Comment,
		Type:      req.Type,
		UserID:    userID,
		ProductID: req.ProductID,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	if req.Type == models.ReviewTypeProduct {
		s.refreshProductRating(ctx, req.ProductID)
	}
	return review, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) ListSite(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.reviews.ListSite(ctx)
	if err != nil {
		return nil, fmt.Errorf("list site reviews: %w", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// Update edits the caller's own review.
func (s *ReviewService) Update(ctx context.Context, reviewID, callerID primitive.ObjectID, req *UpdateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	review, err := s.get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != callerID {
		return nil, fmt.Errorf("review belongs to another user: %w", ErrForbidden)
	}

	review, err = s.reviews.Update(ctx, reviewID, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("review: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	if review.Type == models.ReviewTypeProduct {
		s.refreshProductRating(ctx, review.ProductID)
	}
	return review, nil
}

// Delete removes a review. The owner may always delete their own; moderation
// roles may delete anyone's.
func (s *ReviewService) Delete(ctx context.Context, reviewID, callerID primitive.ObjectID, callerRole models.Role) error {
	review, err := s.get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != callerID && !s.authorization.Can(callerRole, OpManageReviews) {
		return fmt.Errorf("review belongs to another user: %w", ErrForbidden)
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if review.Type == models.ReviewTypeProduct {
		s.refreshProductRating(ctx, review.ProductID)
	}
	return nil
}

// CountByUser is the staff report of review counts per user.
func (s *ReviewService) CountByUser(ctx context.Context) ([]store.UserReviewCount, error) {
	counts, err := s.reviews.CountByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews by user: %w", err)
	}
	if counts == nil {
		counts = []store.UserReviewCount{}
	}
	return counts, nil
}

func (s *ReviewService) get(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("review: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load review: %w", err)
	}
	return review, nil
}

// refreshProductRating recomputes the denormalized rating fields from the
// product's current reviews. Best effort; a failure leaves a slightly stale
// rating, not incorrect order or stock data.
func (s *ReviewService) refreshProductRating(ctx context.Context, productID primitive.ObjectID) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		logrus.WithField("product_id", productID.Hex()).
			WithError(err).Warn("failed to reload reviews for rating refresh")
		return
	}

	var rating float64
	count := int64(len(reviews))
	if count > 0 {
		var sum float64
		for _, r := range reviews {
			sum += r.Rating
		}
		rating = sum / float64(count)
	}

	update := store.ProductUpdate{Rating: &rating, NumReviews: &count}
	if _, err := s.products.Update(ctx, productID, update); err != nil && !errors.Is(err, store.ErrNotFound) {
		logrus.WithField("product_id", productID.Hex()).
			WithError(err).Warn("failed to refresh product rating")
	}
}
