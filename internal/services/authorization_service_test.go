// internal/services/authorization_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/negmaretail/storefront/internal/models"
)

func TestOperationRoleMatrix(t *testing.T) {
	svc := NewAuthorizationService()

	cases := []struct {
		role models.Role
		op   Operation
		want bool
	}{
		{models.RoleUser, OpManageCatalog, false},
		{models.RoleStaff, OpManageCatalog, true},
		{models.RoleAdmin, OpManageCatalog, true},
		{models.RoleStaff, OpManageCategories, true},
		{models.RoleStaff, OpManageOrders, true},
		{models.RoleUser, OpManageOrders, false},
		{models.RoleStaff, OpManageUsers, false},
		{models.RoleAdmin, OpManageUsers, true},
		{models.RoleStaff, OpManageReviews, true},
		{models.RoleStaff, OpViewReports, true},
		{models.RoleUser, OpViewReports, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, svc.Can(tc.role, tc.op), "role %s op %s", tc.role, tc.op)
	}
}

func TestAuthorizeWrapsForbidden(t *testing.T) {
	svc := NewAuthorizationService()

	assert.NoError(t, svc.Authorize(models.RoleAdmin, OpManageUsers))

	err := svc.Authorize(models.RoleUser, OpManageUsers)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUnknownRoleAndOperationDenied(t *testing.T) {
	svc := NewAuthorizationService()

	assert.False(t, svc.Can("superuser", OpManageCatalog))
	assert.False(t, svc.Can(models.RoleAdmin, Operation("unknown:op")))
}
