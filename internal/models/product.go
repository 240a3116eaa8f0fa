// internal/models/product.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Barcode     string             `json:"barcode" bson:"barcode"`
	Description string             `json:"description" bson:"description"`
	Brand       string             `json:"brand" bson:"brand"`
	Images      []Image            `json:"images" bson:"images"`
	Category    string             `json:"category" bson:"category"`

	// Stock is the quantity available for new reservations. It is mutated
	// only through the store's conditional decrement / unconditional
	// increment primitives and never goes negative.
	Stock int64 `json:"stock" bson:"stock"`
	Sold  int64 `json:"sold" bson:"sold"`

	Price             float64    `json:"price" bson:"price"`
	Discount          float64    `json:"discount,omitempty" bson:"discount,omitempty"`
	DiscountedPrice   float64    `json:"discounted_price,omitempty" bson:"discounted_price,omitempty"`
	DiscountStartDate *time.Time `json:"discount_start_date,omitempty" bson:"discount_start_date,omitempty"`
	DiscountEndDate   *time.Time `json:"discount_end_date,omitempty" bson:"discount_end_date,omitempty"`

	Rating     float64 `json:"rating" bson:"rating"`
	NumReviews int64   `json:"num_reviews" bson:"num_reviews"`

	IsBlocked bool      `json:"is_blocked" bson:"is_blocked"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DiscountActive reports whether the product carries a discount whose window
// covers now.
func (p *Product) DiscountActive(now time.Time) bool {
	if p.Discount <= 0 {
		return false
	}
	if p.DiscountStartDate != nil && now.Before(*p.DiscountStartDate) {
		return false
	}
	if p.DiscountEndDate != nil && now.After(*p.DiscountEndDate) {
		return false
	}
	return true
}

// EffectivePrice is the price a buyer pays at now: the discounted price while
// a discount window is active, the list price otherwise.
func (p *Product) EffectivePrice(now time.Time) float64 {
	if p.DiscountActive(now) {
		return p.DiscountedPrice
	}
	return p.Price
}
