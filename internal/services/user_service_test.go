// internal/services/user_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/store/memory"
)

func newUserFixture(t *testing.T) (*UserService, *memory.Stores) {
	t.Helper()
	stores := memory.New()
	svc := NewUserService(stores.Users, stores.Products, stores.Reviews, stores.Orders)
	return svc, stores
}

func seedUser(t *testing.T, stores *memory.Stores, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: "someone",
		Email:    email,
		Role:     role,
	}
	require.NoError(t, u.SetPassword("Str0ngPass"))
	require.NoError(t, stores.Users.Insert(context.Background(), u))
	return u
}

func TestChangeRolePromotesRegularUser(t *testing.T) {
	svc, stores := newUserFixture(t)
	u := seedUser(t, stores, "shopper@example.com", models.RoleUser)

	updated, err := svc.ChangeRole(context.Background(), u.ID, &ChangeRoleRequest{Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, updated.Role)
}

func TestChangeRoleNeverTouchesAdmins(t *testing.T) {
	svc, stores := newUserFixture(t)
	admin := seedUser(t, stores, "root@example.com", models.RoleAdmin)

	_, err := svc.ChangeRole(context.Background(), admin.ID, &ChangeRoleRequest{Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)

	kept, err := stores.Users.FindByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, kept.Role)
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	svc, stores := newUserFixture(t)
	u := seedUser(t, stores, "shopper@example.com", models.RoleUser)

	_, err := svc.ChangeRole(context.Background(), u.ID, &ChangeRoleRequest{Role: "superuser"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteUserCascadesReviews(t *testing.T) {
	svc, stores := newUserFixture(t)
	u := seedUser(t, stores, "shopper@example.com", models.RoleUser)

	review := &models.Review{
		Type:    models.ReviewTypeSite,
		UserID:  u.ID,
		Rating:  4,
		Comment: "Solid store, fast delivery.",
	}
	require.NoError(t, stores.Reviews.Insert(context.Background(), review))

	require.NoError(t, svc.Delete(context.Background(), u.ID))

	_, err := stores.Users.FindByID(context.Background(), u.ID)
	assert.Error(t, err)
	left, err := stores.Reviews.ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDeleteNeverTouchesAdmins(t *testing.T) {
	svc, stores := newUserFixture(t)
	admin := seedUser(t, stores, "root@example.com", models.RoleAdmin)

	err := svc.Delete(context.Background(), admin.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	kept, err := stores.Users.FindByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, kept.Role)
}

func TestBlockUserRevokesRefreshToken(t *testing.T) {
	svc, stores := newUserFixture(t)
	u := seedUser(t, stores, "shopper@example.com", models.RoleUser)
	token := "stored-refresh-hash"
	_, err := stores.Users.Update(context.Background(), u.ID, store.UserUpdate{RefreshToken: &token})
	require.NoError(t, err)

	blocked, err := svc.SetBlocked(context.Background(), u.ID, true)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)
	assert.Empty(t, blocked.RefreshToken)
}
