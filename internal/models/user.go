// internal/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username     string               `json:"username" bson:"username"`
	Email        string               `json:"email" bson:"email"`
	Password     string               `json:"-" bson:"password"`
	Gender       string               `json:"gender" bson:"gender"`
	Image        string               `json:"image,omitempty" bson:"image,omitempty"`
	Address      string               `json:"address,omitempty" bson:"address,omitempty"`
	Phone        string               `json:"phone,omitempty" bson:"phone,omitempty"`
	Role         Role                 `json:"role" bson:"role"`
	IsBlocked    bool                 `json:"is_blocked" bson:"is_blocked"`
	Favorites    []primitive.ObjectID `json:"favorites" bson:"favorites"`
	RefreshToken string               `json:"-" bson:"refresh_token,omitempty"`

	// ResetToken holds the sha256 of the outstanding password reset token, if
	// any. The raw token is only ever in the reset email.
	ResetToken        string     `json:"-" bson:"reset_token,omitempty"`
	ResetTokenExpires *time.Time `json:"-" bson:"reset_token_expires,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}
