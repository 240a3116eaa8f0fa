// internal/store/mongo/mongo.go
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stores bundles the MongoDB-backed implementations of every store interface.
type Stores struct {
	Products   *ProductStore
	Carts      *CartStore
	Orders     *OrderStore
	Users      *UserStore
	Categories *CategoryStore
	Reviews    *ReviewStore
}

// New builds the store set and ensures the indexes the mutation paths rely
// on. The unique index on carts.user_id is load-bearing: it backs the upsert
// in PushItem so two concurrent first-adds cannot create duplicate carts.
func New(db *mongo.Database) (*Stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ensureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return &Stores{
		Products:   &ProductStore{col: db.Collection("products")},
		Carts:      &CartStore{col: db.Collection("carts")},
		Orders:     &OrderStore{col: db.Collection("orders")},
		Users:      &UserStore{col: db.Collection("users")},
		Categories: &CategoryStore{col: db.Collection("categories")},
		Reviews:    &ReviewStore{col: db.Collection("reviews")},
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"carts": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		"products": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			// Partial so legacy documents without a barcode never collide
			// on the empty string.
			{Keys: bson.D{{Key: "barcode", Value: 1}}, Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "barcode", Value: bson.D{{Key: "$gt", Value: ""}}}})},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		"categories": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		"orders": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		"reviews": {
			{Keys: bson.D{{Key: "product_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
	}
	return nil
}
