// internal/services/order_service.go
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
)

// OrderService converts cart reservations into immutable orders. Placing an
// order performs no stock mutation: the units were already decremented when
// they entered the cart, so the order only snapshots and commits them.
type OrderService struct {
	orders        store.OrderStore
	carts         store.CartStore
	products      store.ProductStore
	users         store.UserStore
	authorization *AuthorizationService
	notifications *NotificationService
	payments      *PaymentService
	cfg           *config.Config
}

func NewOrderService(
	orders store.OrderStore,
	carts store.CartStore,
	products store.ProductStore,
	users store.UserStore,
	authorization *AuthorizationService,
	notifications *NotificationService,
	payments *PaymentService,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orders:        orders,
		carts:         carts,
		products:      products,
		users:         users,
		authorization: authorization,
		notifications: notifications,
		payments:      payments,
		cfg:           cfg,
	}
}

type PlaceOrderRequest struct {
	CartID          primitive.ObjectID
	DeliveryAddress string
	PaymentMethod   models.PaymentMethod
	ShippingFee     float64
}

type PlaceOrderResult struct {
	Order   *models.Order          `json:"order"`
	Payment *PaymentIntentResponse `json:"payment,omitempty"`
}

// Place validates the cart, snapshots its line items with the product data
// current at this moment, writes the order and empties the cart. The snapshot
// is deliberate denormalization: the order stays historically accurate even
// if a product is later edited or deleted.
func (s *OrderService) Place(ctx context.Context, userID primitive.ObjectID, req *PlaceOrderRequest) (*PlaceOrderResult, error) {
	if req.CartID.IsZero() {
		return nil, fmt.Errorf("cart id is required: %w", ErrInvalidInput)
	}
	if req.DeliveryAddress == "" {
		return nil, fmt.Errorf("delivery address is required: %w", ErrInvalidInput)
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.PaymentMethod, ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	cart, err := s.carts.FindByID(ctx, req.CartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.UserID != userID {
		return nil, fmt.Errorf("cart belongs to another user: %w", ErrForbidden)
	}
	if len(cart.Products) == 0 {
		return nil, ErrEmptyCart
	}

	lines, total, err := s.snapshot(ctx, cart)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		CartID:          cart.ID,
		CartProducts:    lines,
		DeliveryAddress: req.DeliveryAddress,
		Total:           total + req.ShippingFee,
		Status:          models.OrderStatusPending,
		ShippingFee:     req.ShippingFee,
		PaymentMethod:   req.PaymentMethod,
	}

	var payment *PaymentIntentResponse
	if req.PaymentMethod == models.PaymentMethodCard {
		payment, err = s.payments.CreateOrderIntent(order)
		if err != nil {
			return nil, fmt.Errorf("card payment: %w", err)
		}
		if payment != nil {
			order.PaymentRef = payment.PaymentID
		}
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("write order: %w", err)
	}

	if err := s.carts.Empty(ctx, cart.ID); err != nil {
		// The order exists but the cart still holds its lines. The items stay
		// reserved, so nothing can be oversold; the user just sees a stale cart.
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID.Hex(),
			"cart_id":  cart.ID.Hex(),
		}).WithError(err).Error("failed to empty cart after order placement")
	}

	for _, line := range lines {
		if err := s.products.IncrementSold(ctx, line.ProductID, line.Quantity); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			logrus.WithField("product_id", line.ProductID.Hex()).
				WithError(err).Warn("failed to bump sold counter")
		}
	}

	go func() {
		if err := s.notifications.SendOrderConfirmation(user, order); err != nil {
			logrus.WithField("order_id", order.ID.Hex()).
				WithError(err).Warn("failed to send order confirmation")
		}
	}()

	return &PlaceOrderResult{Order: order, Payment: payment}, nil
}

func (s *OrderService) Get(ctx context.Context, orderID, callerID primitive.ObjectID, callerRole models.Role) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.UserID != callerID && !s.authorization.Can(callerRole, OpManageOrders) {
		return nil, fmt.Errorf("order belongs to another user: %w", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// UpdateStatus is a staff operation. Cancelling a card order triggers a full
// refund of its payment intent.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidInput)
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	if status == models.OrderStatusCancelled {
		if err := s.payments.RefundOrder(order); err != nil {
			logrus.WithField("order_id", order.ID.Hex()).
				WithError(err).Error("failed to refund cancelled order")
		}
	}

	go func() {
		user, err := s.users.FindByID(context.Background(), order.UserID)
		if err != nil {
			return
		}
		if err := s.notifications.SendOrderStatusChange(user, order); err != nil {
			logrus.WithField("order_id", order.ID.Hex()).
				WithError(err).Warn("failed to send status change email")
		}
	}()

	return order, nil
}

// Delete removes a pending order. Only the owner may delete, and only while
// the order is still pending; anything else is Forbidden regardless of
// retries. Whether the committed units return to stock is a deployment
// policy, off by default: units are spent once ordered.
func (s *OrderService) Delete(ctx context.Context, orderID, callerID primitive.ObjectID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("order: %w", ErrNotFound)
		}
		return fmt.Errorf("load order: %w", err)
	}
	if order.UserID != callerID {
		return fmt.Errorf("order belongs to another user: %w", ErrForbidden)
	}
	if order.Status != models.OrderStatusPending {
		return fmt.Errorf("only pending orders can be deleted: %w", ErrForbidden)
	}

	if err := s.carts.Empty(ctx, order.CartID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("empty cart: %w", err)
	}

	if s.cfg.Inventory.RestoreOnOrderDelete {
		for _, line := range order.CartProducts {
			if _, err := s.products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil &&
				!errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("restore stock for %s: %w", line.ProductID.Hex(), err)
			}
		}
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// snapshot resolves the cart against the catalog and freezes each line item
// with the product's current name, effective price and first image.
func (s *OrderService) snapshot(ctx context.Context, cart *models.Cart) ([]models.OrderLine, float64, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Products))
	for _, item := range cart.Products {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := time.Now()
	lines := make([]models.OrderLine, 0, len(cart.Products))
	var total float64
	for _, item := range cart.Products {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		price := p.EffectivePrice(now)
		line := models.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     price,
			Quantity:  item.Quantity,
		}
		if len(p.Images) > 0 {
			line.Image = p.Images[0].URL
		}
		lines = append(lines, line)
		total += price * float64(item.Quantity)
	}
	if len(lines) == 0 {
		return nil, 0, ErrEmptyCart
	}
	return lines, total, nil
}
