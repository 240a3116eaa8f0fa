// internal/services/authorization_service.go
package services

import (
	"fmt"

	"github.com/negmaretail/storefront/internal/models"
)

// Operation names a privileged action. Each operation declares the set of
// roles allowed to perform it; nothing else in the codebase compares role
// strings directly.
type Operation string

const (
	OpManageCatalog    Operation = "catalog:manage"
	OpManageCategories Operation = "categories:manage"
	OpManageOrders     Operation = "orders:manage"
	OpManageUsers      Operation = "users:manage"
	OpManageReviews    Operation = "reviews:manage"
	OpViewReports      Operation = "reports:view"
)

var operationRoles = map[Operation][]models.Role{
	OpManageCatalog:    {models.RoleStaff, models.RoleAdmin},
	OpManageCategories: {models.RoleStaff, models.RoleAdmin},
	OpManageOrders:     {models.RoleStaff, models.RoleAdmin},
	OpManageUsers:      {models.RoleAdmin},
	OpManageReviews:    {models.RoleStaff, models.RoleAdmin},
	OpViewReports:      {models.RoleStaff, models.RoleAdmin},
}

// AuthorizationService answers "may this role perform this operation". It is
// deliberately independent of how the caller's identity was established.
type AuthorizationService struct{}

func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

func (s *AuthorizationService) Can(role models.Role, op Operation) bool {
	for _, allowed := range operationRoles[op] {
		if role == allowed {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden when the role may not perform op.
func (s *AuthorizationService) Authorize(role models.Role, op Operation) error {
	if !s.Can(role, op) {
		return fmt.Errorf("role %q may not perform %s: %w", role, op, ErrForbidden)
	}
	return nil
}
