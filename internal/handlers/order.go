// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/services"
	"github.com/negmaretail/storefront/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// POST /order
func (h *OrderHandler) Place(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var body struct {
		CartID          string  `json:"cart_id" binding:"required"`
		DeliveryAddress string  `json:"delivery_address" binding:"required"`
		PaymentMethod   string  `json:"payment_method" binding:"required"`
		ShippingFee     float64 `json:"shipping_fee"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	cartID, err := primitive.ObjectIDFromHex(body.CartID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid cart_id", nil)
		return
	}

	result, err := h.orderService.Place(c.Request.Context(), userID, &services.PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: body.DeliveryAddress,
		PaymentMethod:   models.PaymentMethod(body.PaymentMethod),
		ShippingFee:     body.ShippingFee,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /order
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, orders)
}

// GET /order/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), orderID, userID, callerRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, order)
}

// PUT /order/:id/status (staff)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, models.OrderStatus(body.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, order)
}

// DELETE /order/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), orderID, userID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Order deleted"})
}
