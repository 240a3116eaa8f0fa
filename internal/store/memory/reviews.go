// internal/store/memory/reviews.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
)

type ReviewStore struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]models.Review
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{reviews: make(map[primitive.ObjectID]models.Review)}
}

func (s *ReviewStore) Insert(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.reviews[r.ID] = *r
	return nil
}

func (s *ReviewStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *ReviewStore) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	return s.list(func(r models.Review) bool {
		return r.Type == models.ReviewTypeProduct && r.ProductID == productID
	}), nil
}

func (s *ReviewStore) ListSite(ctx context.Context) ([]models.Review, error) {
	return s.list(func(r models.Review) bool {
		return r.Type == models.ReviewTypeSite
	}), nil
}

func (s *ReviewStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error) {
	return s.list(func(r models.Review) bool {
		return r.UserID == userID
	}), nil
}

func (s *ReviewStore) Update(ctx context.Context, id primitive.ObjectID, rating *float64, comment *string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if rating != nil {
		r.Rating = *rating
	}
	if comment != nil {
		r.Comment = *comment
	}
	r.UpdatedAt = time.Now()
	s.reviews[id] = r

	out := r
	return &out, nil
}

func (s *ReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *ReviewStore) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.reviews {
		if r.ProductID == productID {
			delete(s.reviews, id)
		}
	}
	return nil
}

func (s *ReviewStore) CountByUser(ctx context.Context) ([]store.UserReviewCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[primitive.ObjectID]int64)
	for _, r := range s.reviews {
		counts[r.UserID]++
	}
	out := make([]store.UserReviewCount, 0, len(counts))
	for userID, n := range counts {
		out = append(out, store.UserReviewCount{UserID: userID, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (s *ReviewStore) CountByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.reviews {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *ReviewStore) list(keep func(models.Review) bool) []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Review
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
