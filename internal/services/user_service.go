// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/utils"
)

type UserService struct {
	users    store.UserStore
	products store.ProductStore
	reviews  store.ReviewStore
	orders   store.OrderStore
}

func NewUserService(users store.UserStore, products store.ProductStore, reviews store.ReviewStore, orders store.OrderStore) *UserService {
	return &UserService{
		users:    users,
		products: products,
		reviews:  reviews,
		orders:   orders,
	}
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,username"`
	Gender   *string `json:"gender,omitempty"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Image    *string `json:"image,omitempty"`
}

type ChangeRoleRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	update := store.UserUpdate{
		Username: req.Username,
		Gender:   req.Gender,
		Address:  req.Address,
		Phone:    req.Phone,
		Image:    req.Image,
	}
	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*models.User, error) {
	update := store.UserUpdate{IsBlocked: &blocked}
	if blocked {
		// A blocked user's sessions die with their refresh token.
		empty := ""
		update.RefreshToken = &empty
	}
	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id primitive.ObjectID, req *ChangeRoleRequest) (*models.User, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, ErrInvalidInput)
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleAdmin {
		return nil, fmt.Errorf("admin accounts keep their role: %w", ErrForbidden)
	}

	user, err := s.users.Update(ctx, id, store.UserUpdate{Role: &req.Role})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes a user account. Admin accounts are untouchable; other
// users' orders stay for bookkeeping while their reviews go.
func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) error {
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin {
		return fmt.Errorf("admin accounts cannot be deleted: %w", ErrForbidden)
	}

	reviews, err := s.reviews.ListByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("list user reviews: %w", err)
	}
	for _, r := range reviews {
		if err := s.reviews.Delete(ctx, r.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			logrus.WithField("review_id", r.ID.Hex()).
				WithError(err).Warn("failed to delete user review")
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user: %w", ErrNotFound)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// AddFavorite puts a product on the user's favorites list. Idempotent.
func (s *UserService) AddFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	user, err := s.users.PushFavorite(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return user, nil
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.PullFavorite(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	return user, nil
}

// Favorites resolves the user's favorites against the catalog, dropping
// products that have since been deleted.
func (s *UserService) Favorites(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Favorites) == 0 {
		return []models.Product{}, nil
	}

	products, err := s.products.FindByIDs(ctx, user.Favorites)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Stats is the staff dashboard summary for one user.
func (s *UserService) Stats(ctx context.Context, userID primitive.ObjectID) (map[string]interface{}, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	orderCount, err := s.orders.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	reviewCount, err := s.reviews.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	return map[string]interface{}{
		"user":         user,
		"order_count":  orderCount,
		"review_count": reviewCount,
		"favorites":    len(user.Favorites),
	}, nil
}
