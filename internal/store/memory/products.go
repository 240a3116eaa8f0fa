// internal/store/memory/products.go
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
)

type ProductStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[primitive.ObjectID]models.Product)}
}

// conflicts reports whether another product already holds the given name or
// barcode. Mirrors the unique indexes the mongo store installs; an empty
// barcode never conflicts.
func (s *ProductStore) conflicts(id primitive.ObjectID, name, barcode string) bool {
	for _, other := range s.products {
		if other.ID == id {
			continue
		}
		if other.Name == name {
			return true
		}
		if barcode != "" && other.Barcode == barcode {
			return true
		}
	}
	return false
}

func (s *ProductStore) Insert(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts(p.ID, p.Name, p.Barcode) {
		return store.ErrDuplicate
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (s *ProductStore) List(ctx context.Context, filter store.ProductFilter, opts store.ListOptions) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Product
	for _, p := range s.products {
		if !match(p, filter) {
			continue
		}
		out = append(out, cloneProduct(p))
	}

	sortProducts(out, opts.SortBy, opts.SortDesc)

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(out)) {
			return nil, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *ProductStore) Count(ctx context.Context, filter store.ProductFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, p := range s.products {
		if match(p, filter) {
			n++
		}
	}
	return n, nil
}

func (s *ProductStore) Update(ctx context.Context, id primitive.ObjectID, update store.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	if update.Name != nil || update.Barcode != nil {
		name, barcode := p.Name, p.Barcode
		if update.Name != nil {
			name = *update.Name
		}
		if update.Barcode != nil {
			barcode = *update.Barcode
		}
		if s.conflicts(id, name, barcode) {
			return nil, store.ErrDuplicate
		}
	}

	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Barcode != nil {
		p.Barcode = *update.Barcode
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Brand != nil {
		p.Brand = *update.Brand
	}
	if update.Category != nil {
		p.Category = *update.Category
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Images != nil {
		p.Images = append([]models.Image(nil), update.Images...)
	}
	if update.Discount != nil {
		if *update.Discount <= 0 {
			p.Discount = 0
			p.DiscountedPrice = 0
			p.DiscountStartDate = nil
			p.DiscountEndDate = nil
		} else {
			p.Discount = *update.Discount
			if update.DiscountedPrice != nil {
				p.DiscountedPrice = *update.DiscountedPrice
			}
			p.DiscountStartDate = update.DiscountStartDate
			p.DiscountEndDate = update.DiscountEndDate
		}
	}
	if update.Rating != nil {
		p.Rating = *update.Rating
	}
	if update.NumReviews != nil {
		p.NumReviews = *update.NumReviews
	}
	if update.IsBlocked != nil {
		p.IsBlocked = *update.IsBlocked
	}
	p.UpdatedAt = time.Now()

	s.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func (s *ProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// DecrementStock checks and writes under one lock acquisition, mirroring the
// compare-and-swap the MongoDB implementation gets from FindOneAndUpdate.
func (s *ProductStore) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return nil, store.ErrNotFound
	}

	p.Stock -= qty
	p.UpdatedAt = time.Now()
	s.products[id] = p

	out := cloneProduct(p)
	return &out, nil
}

func (s *ProductStore) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	p.Stock += qty
	p.UpdatedAt = time.Now()
	s.products[id] = p

	out := cloneProduct(p)
	return &out, nil
}

func (s *ProductStore) IncrementSold(ctx context.Context, id primitive.ObjectID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil
	}
	p.Sold += qty
	s.products[id] = p
	return nil
}

func (s *ProductStore) ClearExpiredDiscounts(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.products {
		if expired(p.DiscountEndDate, now) {
			p.Discount = 0
			p.DiscountedPrice = 0
			p.DiscountStartDate = nil
			p.DiscountEndDate = nil
			s.products[id] = p
		}
	}
	return nil
}

func match(p models.Product, f store.ProductFilter) bool {
	if f.Blocked != nil && p.IsBlocked != *f.Blocked {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.Discounted && p.Discount <= 0 {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if !f.ExcludeID.IsZero() && p.ID == f.ExcludeID {
		return false
	}
	if f.Search != "" && !matchSearch(p, f.Search) {
		return false
	}
	return true
}
