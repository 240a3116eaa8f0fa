// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
)

// CartService coordinates stock reservations with cart mutations. Every
// reservation path decrements stock before touching the cart, so two
// concurrent requests for the last unit race on the store's conditional
// update and exactly one wins; the loser fails before any cart write.
//
// The decrement and the cart write are still two separate operations. If the
// cart write fails after the decrement succeeded, the reserved units are lost
// until reconciled by hand; the failure is logged loudly rather than rolled
// back, matching the single-document atomicity the store provides.
type CartService struct {
	products store.ProductStore
	carts    store.CartStore
}

func NewCartService(products store.ProductStore, carts store.CartStore) *CartService {
	return &CartService{products: products, carts: carts}
}

// CartView is a populated cart with its computed total.
type CartView struct {
	Cart  *models.PopulatedCart `json:"cart"`
	Total float64               `json:"total"`
}

// CartMutationResult is returned by every single-product cart mutation so the
// caller can refresh its stock view without a second fetch.
type CartMutationResult struct {
	Cart           *models.PopulatedCart `json:"cart"`
	Total          float64               `json:"total"`
	UpdatedProduct *models.Product       `json:"updated_product"`
}

// ClearCartResult carries the emptied cart plus every product whose stock was
// restored by the clear.
type ClearCartResult struct {
	Cart             *models.PopulatedCart `json:"cart"`
	Total            float64               `json:"total"`
	RestoredProducts []models.Product      `json:"restored_products"`
}

func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*CartView, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	populated, err := s.populate(ctx, cart)
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: populated, Total: populated.Total()}, nil
}

// AddItem reserves qty units of the product for the user's cart. The stock
// decrement happens first and is conditional on stock >= qty, so an
// insufficient-stock failure leaves the cart untouched.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*CartMutationResult, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidInput)
	}

	product, err := s.reserve(ctx, productID, qty)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByUser(ctx, userID)
	switch {
	case err == nil && cart.Item(productID) != nil:
		cart, err = s.carts.IncrementItem(ctx, userID, productID, qty)
	case err == nil || errors.Is(err, store.ErrNotFound):
		cart, err = s.carts.PushItem(ctx, userID, productID, qty)
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race against a concurrent add of the same product;
			// the line exists now, so fold the reservation into it.
			cart, err = s.carts.IncrementItem(ctx, userID, productID, qty)
		}
	}
	if err != nil {
		// Stock is already decremented and there is no cart record of it.
		logrus.WithFields(logrus.Fields{
			"user_id":    userID.Hex(),
			"product_id": productID.Hex(),
			"quantity":   qty,
		}).WithError(err).Error("cart write failed after stock reservation; reserved units leaked")
		return nil, fmt.Errorf("write cart: %w", err)
	}

	return s.mutationResult(ctx, cart, product)
}

// UpdateQuantity adjusts an existing line item's reservation to exactly qty.
// A growing reservation goes through the same conditional decrement as
// AddItem; a shrinking one releases stock unconditionally.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*CartMutationResult, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidInput)
	}

	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	item := cart.Item(productID)
	if item == nil {
		return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
	}

	var product *models.Product
	delta := qty - item.Quantity
	switch {
	case delta > 0:
		product, err = s.reserve(ctx, productID, delta)
	case delta < 0:
		product, err = s.products.IncrementStock(ctx, productID, -delta)
	default:
		product, err = s.products.FindByID(ctx, productID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, err
	}

	cart, err = s.carts.SetItemQuantity(ctx, userID, productID, qty)
	if err != nil {
		if delta > 0 {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID.Hex(),
				"product_id": productID.Hex(),
				"quantity":   delta,
			}).WithError(err).Error("cart write failed after stock reservation; reserved units leaked")
		}
		return nil, fmt.Errorf("write cart: %w", err)
	}

	return s.mutationResult(ctx, cart, product)
}

// RemoveItem drops the line item and returns its full quantity to stock.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*CartMutationResult, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	item := cart.Item(productID)
	if item == nil {
		return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
	}

	product, err := s.products.IncrementStock(ctx, productID, item.Quantity)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("restore stock: %w", err)
	}

	cart, err = s.carts.RemoveItem(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("write cart: %w", err)
	}

	return s.mutationResult(ctx, cart, product)
}

// Clear releases every reservation in the user's cart and empties it. Each
// product's stock is restored with an independent increment, so a failure
// mid-loop leaves earlier restores in place.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) (*ClearCartResult, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	restored := make([]models.Product, 0, len(cart.Products))
	for _, item := range cart.Products {
		product, err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Product deleted while in the cart; nothing to restore.
				continue
			}
			return nil, fmt.Errorf("restore stock for %s: %w", item.ProductID.Hex(), err)
		}
		restored = append(restored, *product)
	}

	if err := s.carts.Empty(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("empty cart: %w", err)
	}

	empty := &models.PopulatedCart{
		ID:       cart.ID,
		UserID:   cart.UserID,
		Products: []models.PopulatedCartItem{},
	}
	return &ClearCartResult{Cart: empty, Total: 0, RestoredProducts: restored}, nil
}

// reserve runs the conditional decrement and untangles its ErrNotFound, which
// covers both a missing product and an unmet stock condition.
func (s *CartService) reserve(ctx context.Context, productID primitive.ObjectID, qty int64) (*models.Product, error) {
	product, err := s.products.DecrementStock(ctx, productID, qty)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reserve stock: %w", err)
	}
	if _, lookupErr := s.products.FindByID(ctx, productID); lookupErr != nil {
		if errors.Is(lookupErr, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("reserve stock: %w", lookupErr)
	}
	return nil, fmt.Errorf("product has fewer than %d units available: %w", qty, ErrInsufficientStock)
}

func (s *CartService) mutationResult(ctx context.Context, cart *models.Cart, product *models.Product) (*CartMutationResult, error) {
	populated, err := s.populate(ctx, cart)
	if err != nil {
		return nil, err
	}
	return &CartMutationResult{
		Cart:           populated,
		Total:          populated.Total(),
		UpdatedProduct: product,
	}, nil
}

// populate resolves the cart's product references against the catalog. Line
// items whose product has been deleted are dropped from the view.
func (s *CartService) populate(ctx context.Context, cart *models.Cart) (*models.PopulatedCart, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Products))
	for _, item := range cart.Products {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("populate cart: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	populated := &models.PopulatedCart{
		ID:       cart.ID,
		UserID:   cart.UserID,
		Products: make([]models.PopulatedCartItem, 0, len(cart.Products)),
	}
	for _, item := range cart.Products {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		populated.Products = append(populated.Products, models.PopulatedCartItem{
			Product:  p,
			Quantity: item.Quantity,
		})
	}
	return populated, nil
}
