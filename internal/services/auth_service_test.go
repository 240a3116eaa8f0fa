// internal/services/auth_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negmaretail/storefront/internal/config"
	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/store/memory"
)

func newAuthFixture(t *testing.T) (*AuthService, *memory.Stores) {
	t.Helper()
	stores := memory.New()
	cfg := &config.Config{}
	cfg.JWT.AccessTokenTTL = 1
	cfg.JWT.RefreshTokenTTL = 24
	return NewAuthService(stores.Users, NewNotificationService(cfg), cfg), stores
}

func registerShopper(t *testing.T, svc *AuthService) *AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "shopper",
		Email:    "shopper@example.com",
		Password: "Str0ngPass",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, _ := newAuthFixture(t)
	resp := registerShopper(t, svc)

	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEqual(t, "Str0ngPass", resp.User.Password, "password must be stored hashed")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerShopper(t, svc)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "other",
		Email:    "shopper@example.com",
		Password: "Str0ngPass",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "shopper",
		Email:    "shopper@example.com",
		Password: "weak",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerShopper(t, svc)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &LoginRequest{Email: "shopper@example.com", Password: "Str0ngPass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Login(ctx, &LoginRequest{Email: "shopper@example.com", Password: "WrongPass1"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Unknown email gets the same error as a wrong password.
	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "Str0ngPass"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginBlockedAccount(t *testing.T) {
	svc, stores := newAuthFixture(t)
	resp := registerShopper(t, svc)
	ctx := context.Background()

	blocked := true
	_, err := stores.Users.Update(ctx, resp.User.ID, store.UserUpdate{IsBlocked: &blocked})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "shopper@example.com", Password: "Str0ngPass"})
	assert.ErrorIs(t, err, ErrForbidden)
}

// Refresh rotates the stored token: the old refresh token must stop working
// once a new one has been issued.
func TestRefreshRotation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	first := registerShopper(t, svc)
	ctx := context.Background()

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	resp := registerShopper(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, resp.User.ID))

	_, err := svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestForgotPasswordIsSilentForUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	err := svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.NoError(t, err)
}

func TestForgotPasswordStoresHashedToken(t *testing.T) {
	svc, stores := newAuthFixture(t)
	resp := registerShopper(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "shopper@example.com"}))

	user, err := stores.Users.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ResetToken)
	require.NotNil(t, user.ResetTokenExpires)
}

func TestResetPasswordWithBogusToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	err := svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Token:       "bogus-token",
		NewPassword: "N3wStrongPass",
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
