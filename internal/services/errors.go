// internal/services/errors.go
package services

import "errors"

// Service errors form the boundary between business logic and transport.
// Handlers map them to HTTP status codes with errors.Is; services wrap them
// with %w to add context without breaking the mapping.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicate         = errors.New("already exists")
)
