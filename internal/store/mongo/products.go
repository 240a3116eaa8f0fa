// internal/store/mongo/products.go
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

type ProductStore struct {
	col *mongo.Collection
}

func (s *ProductStore) Insert(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductStore) List(ctx context.Context, filter store.ProductFilter, opts store.ListOptions) ([]models.Product, error) {
	findOpts := options.Find()
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.SortBy != "" {
		order := 1
		if opts.SortDesc {
			order = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortBy, Value: order}})
	}

	cur, err := s.col.Find(ctx, productFilter(filter), findOpts)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductStore) Count(ctx context.Context, filter store.ProductFilter) (int64, error) {
	return s.col.CountDocuments(ctx, productFilter(filter))
}

func (s *ProductStore) Update(ctx context.Context, id primitive.ObjectID, update store.ProductUpdate) (*models.Product, error) {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Barcode != nil {
		set["barcode"] = *update.Barcode
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Brand != nil {
		set["brand"] = *update.Brand
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Images != nil {
		set["images"] = update.Images
	}
	if update.Discount != nil {
		if *update.Discount <= 0 {
			unset["discount"] = ""
			unset["discounted_price"] = ""
			unset["discount_start_date"] = ""
			unset["discount_end_date"] = ""
		} else {
			set["discount"] = *update.Discount
			if update.DiscountedPrice != nil {
				set["discounted_price"] = *update.DiscountedPrice
			}
			if update.DiscountStartDate != nil {
				set["discount_start_date"] = *update.DiscountStartDate
			}
			if update.DiscountEndDate != nil {
				set["discount_end_date"] = *update.DiscountEndDate
			}
		}
	}
	if update.Rating != nil {
		set["rating"] = *update.Rating
	}
	if update.NumReviews != nil {
		set["num_reviews"] = *update.NumReviews
	}
	if update.IsBlocked != nil {
		set["is_blocked"] = *update.IsBlocked
	}

	mutation := bson.M{"$set": set}
	if len(unset) > 0 {
		mutation["$unset"] = unset
	}

	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, mutation)
}

func (s *ProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DecrementStock is the conditional reservation primitive: the filter
// re-checks stock >= qty at write time, so two racing reservations for the
// last units cannot both succeed.
func (s *ProductStore) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error) {
	filter := bson.M{
		"_id":   id,
		"stock": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	return s.findOneAndUpdate(ctx, filter, update)
}

func (s *ProductStore) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error) {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (s *ProductStore) IncrementSold(ctx context.Context, id primitive.ObjectID, qty int64) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"sold": qty}})
	return err
}

func (s *ProductStore) ClearExpiredDiscounts(ctx context.Context, now time.Time) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"discount_end_date": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{
			"discount":            "",
			"discounted_price":    "",
			"discount_start_date": "",
			"discount_end_date":   "",
		}},
	)
	return err
}

func (s *ProductStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	return &p, nil
}

func productFilter(f store.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Blocked != nil {
		filter["is_blocked"] = *f.Blocked
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Brand != "" {
		filter["brand"] = f.Brand
	}
	if f.Discounted {
		filter["discount"] = bson.M{"$gt": 0}
	}
	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	if !f.ExcludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": f.ExcludeID}
	}
	if f.Search != "" {
		regex := primitive.Regex{Pattern: f.Search, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"description": regex},
			bson.M{"category": regex},
			bson.M{"brand": regex},
		}
	}
	return filter
}
