// internal/store/mongo/carts.go
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
)

type CartStore struct {
	col *mongo.Collection
}

func (s *CartStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *CartStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// IncrementItem bumps the quantity of an existing line item. The positional
// operator targets the matched array element; no match means no such cart or
// no such item.
func (s *CartStore) IncrementItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error) {
	filter := bson.M{"user_id": userID, "products.product_id": productID}
	update := bson.M{
		"$inc": bson.M{"products.$.quantity": qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	return s.findOneAndUpdate(ctx, filter, update, false)
}

// PushItem appends a new line item, creating the cart in the same atomic
// upsert if the user has none yet. The filter refuses carts that already
// hold the product, so a racing duplicate add cannot push a second line:
// it falls through to the upsert, trips the unique user_id index and
// surfaces ErrDuplicate for the caller to retry as an increment.
func (s *CartStore) PushItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error) {
	now := time.Now()
	filter := bson.M{
		"user_id":             userID,
		"products.product_id": bson.M{"$ne": productID},
	}
	update := bson.M{
		"$setOnInsert": bson.M{"user_id": userID, "created_at": now},
		"$push":        bson.M{"products": models.CartItem{ProductID: productID, Quantity: qty}},
		"$set":         bson.M{"updated_at": now},
	}
	return s.findOneAndUpdate(ctx, filter, update, true)
}

func (s *CartStore) SetItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error) {
	filter := bson.M{"user_id": userID, "products.product_id": productID}
	update := bson.M{
		"$set": bson.M{
			"products.$.quantity": qty,
			"updated_at":          time.Now(),
		},
	}
	return s.findOneAndUpdate(ctx, filter, update, false)
}

func (s *CartStore) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	filter := bson.M{"user_id": userID, "products.product_id": productID}
	update := bson.M{
		"$pull": bson.M{"products": bson.M{"product_id": productID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	return s.findOneAndUpdate(ctx, filter, update, false)
}

func (s *CartStore) Empty(ctx context.Context, cartID primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": cartID},
		bson.M{"$set": bson.M{"products": []models.CartItem{}, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *CartStore) RemoveProductFromAll(ctx context.Context, productID primitive.ObjectID) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"products.product_id": productID},
		bson.M{"$pull": bson.M{"products": bson.M{"product_id": productID}}},
	)
	return err
}

func (s *CartStore) findOne(ctx context.Context, filter bson.M) (*models.Cart, error) {
	var c models.Cart
	err := s.col.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *CartStore) findOneAndUpdate(ctx context.Context, filter, update bson.M, upsert bool) (*models.Cart, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(upsert)

	var c models.Cart
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	return &c, nil
}
