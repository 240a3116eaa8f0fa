// internal/store/mongo/users.go
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

type UserStore struct {
	col *mongo.Collection
}

func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"reset_token": tokenHash})
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

func (s *UserStore) Update(ctx context.Context, id primitive.ObjectID, update store.UserUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}

	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Password != nil {
		set["password"] = *update.Password
	}
	if update.Gender != nil {
		set["gender"] = *update.Gender
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Role != nil {
		set["role"] = *update.Role
	}
	if update.IsBlocked != nil {
		set["is_blocked"] = *update.IsBlocked
	}
	if update.RefreshToken != nil {
		set["refresh_token"] = *update.RefreshToken
	}
	if update.ResetToken != nil {
		set["reset_token"] = *update.ResetToken
	}
	if update.ResetTokenExpires != nil {
		set["reset_token_expires"] = *update.ResetTokenExpires
	}

	change := bson.M{"$set": set}
	if update.ClearResetToken {
		change["$unset"] = bson.M{"reset_token": "", "reset_token_expires": ""}
	}

	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, change)
}

func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *UserStore) PushFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		"$addToSet": bson.M{"favorites": productID},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": userID}, update)
}

func (s *UserStore) PullFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		"$pull": bson.M{"favorites": productID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": userID}, update)
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
