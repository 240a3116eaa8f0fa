// internal/handlers/handlers.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/services"
	"github.com/negmaretail/storefront/internal/utils"
)

// respondError translates service errors into the HTTP error envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrInsufficientStock):
		utils.ErrorResponse(c, 400, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, services.ErrEmptyCart):
		utils.ErrorResponse(c, 400, "EMPTY_CART", err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, 404, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, err.Error())
	case errors.Is(err, services.ErrDuplicate):
		utils.ConflictResponse(c, err.Error())
	default:
		utils.InternalErrorResponse(c, "")
	}
}

// callerID reads the authenticated user's id from the request context.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid user identity")
		return primitive.NilObjectID, false
	}
	return id, true
}

func callerRole(c *gin.Context) models.Role {
	roleStr, _ := utils.GetUserRoleFromContext(c)
	return models.Role(roleStr)
}

// pathID parses an object id path parameter.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return primitive.NilObjectID, false
	}
	return id, true
}
