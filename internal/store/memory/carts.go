// internal/store/memory/carts.go
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
)

type CartStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]models.Cart // keyed by cart id
	byUsr map[primitive.ObjectID]primitive.ObjectID

	// failWrites, when set, makes every mutation return that error without
	// touching state. Tests use it to open the window between a successful
	// stock decrement and the cart write.
	failWrites error
}

func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[primitive.ObjectID]models.Cart),
		byUsr: make(map[primitive.ObjectID]primitive.ObjectID),
	}
}

// FailWrites arms or clears the injected mutation error.
func (s *CartStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

func (s *CartStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsr[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneCart(s.carts[id])
	return &out, nil
}

func (s *CartStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneCart(c)
	return &out, nil
}

func (s *CartStore) IncrementItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return nil, s.failWrites
	}

	c, ok := s.cartOf(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	item := c.Item(productID)
	if item == nil {
		return nil, store.ErrNotFound
	}
	item.Quantity += qty
	c.UpdatedAt = time.Now()
	s.carts[c.ID] = *c

	out := cloneCart(*c)
	return &out, nil
}

func (s *CartStore) PushItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return nil, s.failWrites
	}

	now := time.Now()
	c, ok := s.cartOf(userID)
	if !ok {
		created := models.Cart{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			CreatedAt: now,
		}
		s.byUsr[userID] = created.ID
		c = &created
	}
	// Same contract as the mongo guard: a line that already exists is never
	// pushed twice.
	if c.Item(productID) != nil {
		return nil, store.ErrDuplicate
	}
	c.Products = append(c.Products, models.CartItem{ProductID: productID, Quantity: qty})
	c.UpdatedAt = now
	s.carts[c.ID] = *c

	out := cloneCart(*c)
	return &out, nil
}

func (s *CartStore) SetItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return nil, s.failWrites
	}

	c, ok := s.cartOf(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	item := c.Item(productID)
	if item == nil {
		return nil, store.ErrNotFound
	}
	item.Quantity = qty
	c.UpdatedAt = time.Now()
	s.carts[c.ID] = *c

	out := cloneCart(*c)
	return &out, nil
}

func (s *CartStore) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return nil, s.failWrites
	}

	c, ok := s.cartOf(userID)
	if !ok {
		return nil, store.ErrNotFound
	}

	found := false
	items := c.Products[:0]
	for _, item := range c.Products {
		if item.ProductID == productID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return nil, store.ErrNotFound
	}
	c.Products = items
	c.UpdatedAt = time.Now()
	s.carts[c.ID] = *c

	out := cloneCart(*c)
	return &out, nil
}

func (s *CartStore) Empty(ctx context.Context, cartID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return s.failWrites
	}

	c, ok := s.carts[cartID]
	if !ok {
		return store.ErrNotFound
	}
	c.Products = []models.CartItem{}
	c.UpdatedAt = time.Now()
	s.carts[cartID] = c
	return nil
}

func (s *CartStore) RemoveProductFromAll(ctx context.Context, productID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return s.failWrites
	}

	for id, c := range s.carts {
		items := make([]models.CartItem, 0, len(c.Products))
		for _, item := range c.Products {
			if item.ProductID != productID {
				items = append(items, item)
			}
		}
		c.Products = items
		s.carts[id] = c
	}
	return nil
}

// cartOf returns a mutable copy of the user's cart; the caller writes it back
// under the same lock.
func (s *CartStore) cartOf(userID primitive.ObjectID) (*models.Cart, bool) {
	id, ok := s.byUsr[userID]
	if !ok {
		return nil, false
	}
	c := cloneCart(s.carts[id])
	return &c, true
}
