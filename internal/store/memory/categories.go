// internal/store/memory/categories.go
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

type CategoryStore struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]models.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[primitive.ObjectID]models.Category)}
}

func cloneCategory(c models.Category) models.Category {
	out := c
	out.Products = append([]primitive.ObjectID(nil), c.Products...)
	return out
}

func (s *CategoryStore) Insert(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return store.ErrDuplicate
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.categories[c.ID] = cloneCategory(*c)
	return nil
}

func (s *CategoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneCategory(c)
	return &out, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == name {
			out := cloneCategory(c)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CategoryStore) Update(ctx context.Context, id primitive.ObjectID, update store.CategoryUpdate) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.Image != nil {
		c.Image = *update.Image
	}
	if update.IsActive != nil {
		c.IsActive = *update.IsActive
	}
	c.UpdatedAt = time.Now()
	s.categories[id] = c

	out := cloneCategory(c)
	return &out, nil
}

func (s *CategoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *CategoryStore) PushProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range c.Products {
		if id == productID {
			return nil
		}
	}
	c.Products = append(append([]primitive.ObjectID(nil), c.Products...), productID)
	c.UpdatedAt = time.Now()
	s.categories[categoryID] = c
	return nil
}

func (s *CategoryStore) PullProductFromAll(ctx context.Context, productID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.categories {
		products := make([]primitive.ObjectID, 0, len(c.Products))
		for _, pid := range c.Products {
			if pid != productID {
				products = append(products, pid)
			}
		}
		c.Products = products
		s.categories[id] = c
	}
	return nil
}
