// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/services"
	"github.com/negmaretail/storefront/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

func (r *cartItemRequest) productID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product_id", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	view, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cart":  view.Cart,
		"total": view.Total,
	})
}

// PUT /cart/add
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	productID, ok := req.productID(c)
	if !ok {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.cartService.AddItem(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":         "Product added to cart",
		"cart":            result.Cart,
		"total":           result.Total,
		"updated_product": result.UpdatedProduct,
	})
}

// PUT /cart/quantity
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	productID, ok := req.productID(c)
	if !ok {
		return
	}

	result, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":         "Cart quantity updated",
		"cart":            result.Cart,
		"total":           result.Total,
		"updated_product": result.UpdatedProduct,
	})
}

// PUT /cart/remove
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	productID, ok := req.productID(c)
	if !ok {
		return
	}

	result, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":         "Product removed from cart",
		"cart":            result.Cart,
		"total":           result.Total,
		"updated_product": result.UpdatedProduct,
	})
}

// PUT /cart/clear
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.cartService.Clear(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":           "Cart cleared",
		"cart":              result.Cart,
		"total":             result.Total,
		"restored_products": result.RestoredProducts,
	})
}
