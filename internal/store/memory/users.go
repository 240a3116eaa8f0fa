// internal/store/memory/users.go
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
)

type UserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = cloneUser(*u)
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken != "" && u.ResetToken == tokenHash {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *UserStore) Update(ctx context.Context, id primitive.ObjectID, update store.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Password != nil {
		u.Password = *update.Password
	}
	if update.Gender != nil {
		u.Gender = *update.Gender
	}
	if update.Image != nil {
		u.Image = *update.Image
	}
	if update.Address != nil {
		u.Address = *update.Address
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	if update.IsBlocked != nil {
		u.IsBlocked = *update.IsBlocked
	}
	if update.RefreshToken != nil {
		u.RefreshToken = *update.RefreshToken
	}
	if update.ResetToken != nil {
		u.ResetToken = *update.ResetToken
	}
	if update.ResetTokenExpires != nil {
		expires := *update.ResetTokenExpires
		u.ResetTokenExpires = &expires
	}
	if update.ClearResetToken {
		u.ResetToken = ""
		u.ResetTokenExpires = nil
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u

	out := cloneUser(u)
	return &out, nil
}

func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *UserStore) PushFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, fav := range u.Favorites {
		if fav == productID {
			out := cloneUser(u)
			return &out, nil
		}
	}
	u.Favorites = append(append([]primitive.ObjectID(nil), u.Favorites...), productID)
	u.UpdatedAt = time.Now()
	s.users[userID] = u

	out := cloneUser(u)
	return &out, nil
}

func (s *UserStore) PullFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	favs := make([]primitive.ObjectID, 0, len(u.Favorites))
	for _, fav := range u.Favorites {
		if fav != productID {
			favs = append(favs, fav)
		}
	}
	u.Favorites = favs
	u.UpdatedAt = time.Now()
	s.users[userID] = u

	out := cloneUser(u)
	return &out, nil
}
