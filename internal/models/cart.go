// internal/models/cart.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart holds one user's reservations. One cart per user, created lazily on
// the first add and emptied (never deleted) when an order is placed.
type Cart struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Products  []CartItem         `json:"products" bson:"products"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// CartItem is a line item. ProductID is unique within a cart and Quantity is
// always >= 1; a quantity that would drop below 1 is a removal, not an update.
type CartItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Quantity  int64              `json:"quantity" bson:"quantity"`
}

// Item returns the line item for productID, or nil.
func (c *Cart) Item(productID primitive.ObjectID) *CartItem {
	for i := range c.Products {
		if c.Products[i].ProductID == productID {
			return &c.Products[i]
		}
	}
	return nil
}

// PopulatedCart is a cart with product references resolved against the
// catalog. Totals are always computed from this view, never stored.
type PopulatedCart struct {
	ID       primitive.ObjectID  `json:"id"`
	UserID   primitive.ObjectID  `json:"user_id"`
	Products []PopulatedCartItem `json:"products"`
}

type PopulatedCartItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Total is the sum of effective price * quantity over the populated items.
func (c *PopulatedCart) Total() float64 {
	now := time.Now()
	var sum float64
	for _, item := range c.Products {
		sum += item.Product.EffectivePrice(now) * float64(item.Quantity)
	}
	return sum
}
