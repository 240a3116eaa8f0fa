// internal/models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id"`
	CartID          primitive.ObjectID `json:"cart_id" bson:"cart_id"`
	CartProducts    []OrderLine        `json:"cart_products" bson:"cart_products"`
	DeliveryAddress string             `json:"delivery_address" bson:"delivery_address"`
	Total           float64            `json:"total" bson:"total"`
	Status          OrderStatus        `json:"status" bson:"status"`
	ShippingFee     float64            `json:"shipping_fee,omitempty" bson:"shipping_fee,omitempty"`
	PaymentMethod   PaymentMethod      `json:"payment_method" bson:"payment_method"`
	PaymentRef      string             `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// OrderLine is a denormalized snapshot of a cart line item captured at order
// time. It never changes after the order is written, even if the referenced
// product is edited or deleted.
type OrderLine struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int64              `json:"quantity" bson:"quantity"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
}
