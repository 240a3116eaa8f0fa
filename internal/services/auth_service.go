// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/config"
	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/utils"
)

type AuthService struct {
	users         store.UserStore
	notifications *NotificationService
	cfg           *config.Config
}

func NewAuthService(users store.UserStore, notifications *NotificationService, cfg *config.Config) *AuthService {
	return &AuthService{
		users:         users,
		notifications: notifications,
		cfg:           cfg,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
	Gender   string `json:"gender,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Gender:    req.Gender,
		Role:      models.RoleUser,
		Favorites: []primitive.ObjectID{},
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("user with this email: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	go func() {
		if err := s.notifications.SendWelcomeEmail(user); err != nil {
			logrus.WithField("email", user.Email).WithError(err).Warn("failed to send welcome email")
		}
	}()

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("account is blocked: %w", ErrForbidden)
	}
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token. The presented token must match the one
// stored for the user, so a stolen token stops working as soon as the owner
// refreshes or logs out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userIDHex, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token subject: %w", ErrUnauthorized)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("account is blocked: %w", ErrForbidden)
	}
	if user.RefreshToken == "" || user.RefreshToken != utils.HashString(refreshToken) {
		return nil, fmt.Errorf("refresh token revoked: %w", ErrUnauthorized)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	empty := ""
	if _, err := s.users.Update(ctx, userID, store.UserUpdate{RefreshToken: &empty}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user: %w", ErrNotFound)
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token. It reports success even for unknown
// emails so the endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	hash := utils.HashString(token)
	expires := time.Now().Add(time.Hour)
	if _, err := s.users.Update(ctx, user.ID, store.UserUpdate{
		ResetToken:        &hash,
		ResetTokenExpires: &expires,
	}); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	go func() {
		if err := s.notifications.SendPasswordResetEmail(user, token); err != nil {
			logrus.WithField("email", user.Email).WithError(err).Warn("failed to send reset email")
		}
	}()

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := s.users.FindByResetToken(ctx, utils.HashString(req.Token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token: %w", ErrUnauthorized)
		}
		return fmt.Errorf("look up reset token: %w", err)
	}
	if user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		return fmt.Errorf("reset token has expired: %w", ErrUnauthorized)
	}

	fresh := &models.User{}
	if err := fresh.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	empty := ""
	if _, err := s.users.Update(ctx, user.ID, store.UserUpdate{
		Password:        &fresh.Password,
		RefreshToken:    &empty,
		ClearResetToken: true,
	}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	hash := utils.HashString(refreshToken)
	if user, err = s.users.Update(ctx, user.ID, store.UserUpdate{RefreshToken: &hash}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
