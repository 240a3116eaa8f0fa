// internal/services/order_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/config"
	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/store/memory"
)

type orderFixture struct {
	orders   *OrderService
	carts    *CartService
	stores   *memory.Stores
	cfg      *config.Config
	user     *models.User
	products []*models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	stores := memory.New()
	ctx := context.Background()

	user := &models.User{Username: "shopper", Email: "shopper@example.com", Role: models.RoleUser}
	require.NoError(t, stores.Users.Insert(ctx, user))

	first := &models.Product{Name: "Keyboard", Price: 50, Stock: 10}
	second := &models.Product{Name: "Mouse", Price: 20, Stock: 10}
	require.NoError(t, stores.Products.Insert(ctx, first))
	require.NoError(t, stores.Products.Insert(ctx, second))

	cfg := &config.Config{}
	f := &orderFixture{
		stores:   stores,
		cfg:      cfg,
		user:     user,
		products: []*models.Product{first, second},
		carts:    NewCartService(stores.Products, stores.Carts),
	}
	f.orders = NewOrderService(
		stores.Orders, stores.Carts, stores.Products, stores.Users,
		NewAuthorizationService(), NewNotificationService(cfg), NewPaymentService(cfg), cfg,
	)
	return f
}

// fillCart reserves the given quantities and returns the cart id.
func (f *orderFixture) fillCart(t *testing.T, quantities ...int64) primitive.ObjectID {
	t.Helper()
	ctx := context.Background()
	for i, qty := range quantities {
		_, err := f.carts.AddItem(ctx, f.user.ID, f.products[i].ID, qty)
		require.NoError(t, err)
	}
	cart, err := f.stores.Carts.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	return cart.ID
}

func TestPlaceOrderSnapshotsCartAndEmptiesIt(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 2, 3)

	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
		ShippingFee:     5,
	})
	require.NoError(t, err)

	order := result.Order
	require.Len(t, order.CartProducts, 2)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 2*50.0+3*20.0+5, order.Total, 1e-9)

	// Placement commits the reservation: no stock movement.
	p, err := f.stores.Products.FindByID(ctx, f.products[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, p.Stock)

	cart, err := f.stores.Carts.FindByID(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, cart.Products)
}

// The order's lines are frozen at placement time. Later catalog edits and
// deletions must not change what the order says was bought.
func TestOrderSnapshotSurvivesProductChanges(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 2)

	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	newName := "Renamed"
	newPrice := 999.0
	_, err = f.stores.Products.Update(ctx, f.products[0].ID, store.ProductUpdate{
		Name: &newName, Price: &newPrice,
	})
	require.NoError(t, err)

	stored, err := f.orders.Get(ctx, result.Order.ID, f.user.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", stored.CartProducts[0].Name)
	assert.InDelta(t, 50.0, stored.CartProducts[0].Price, 1e-9)

	require.NoError(t, f.stores.Products.Delete(ctx, f.products[0].ID))
	stored, err = f.orders.Get(ctx, result.Order.ID, f.user.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", stored.CartProducts[0].Name)
}

func TestPlaceOrderChargesEffectivePrice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	discount := 50.0
	discounted := 25.0
	_, err := f.stores.Products.Update(ctx, f.products[0].ID, store.ProductUpdate{
		Discount: &discount, DiscountedPrice: &discounted,
	})
	require.NoError(t, err)

	cartID := f.fillCart(t, 2)
	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.InDelta(t, 25.0, result.Order.CartProducts[0].Price, 1e-9)
	assert.InDelta(t, 50.0, result.Order.Total, 1e-9)
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 1)
	_, err := f.carts.Clear(ctx, f.user.ID)
	require.NoError(t, err)

	_, err = f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderRejectsForeignCart(t *testing.T) {
	f := newOrderFixture(t)
	cartID := f.fillCart(t, 1)

	_, err := f.orders.Place(context.Background(), primitive.NewObjectID(), &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrNotFound) // unknown user fails first
}

func TestPlaceOrderValidatesInput(t *testing.T) {
	f := newOrderFixture(t)
	cartID := f.fillCart(t, 1)
	ctx := context.Background()

	_, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:        cartID,
		PaymentMethod: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   "check",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetOrderOwnershipAndStaffOverride(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 1)

	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	_, err = f.orders.Get(ctx, result.Order.ID, stranger, models.RoleUser)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.Get(ctx, result.Order.ID, stranger, models.RoleStaff)
	assert.NoError(t, err)
}

func TestDeletePendingOrderDefaultKeepsUnitsSpent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 4)

	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, result.Order.ID, f.user.ID))

	// Units stay spent under the default policy.
	p, err := f.stores.Products.FindByID(ctx, f.products[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 6, p.Stock)

	_, err = f.orders.Get(ctx, result.Order.ID, f.user.ID, models.RoleUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePendingOrderWithRestorePolicy(t *testing.T) {
	f := newOrderFixture(t)
	f.cfg.Inventory.RestoreOnOrderDelete = true
	ctx := context.Background()
	cartID := f.fillCart(t, 4)

	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, result.Order.ID, f.user.ID))

	p, err := f.stores.Products.FindByID(ctx, f.products[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, p.Stock)
}

func TestDeleteOrderGuards(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 1)

	result, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	// Not the owner.
	err = f.orders.Delete(ctx, result.Order.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrForbidden)

	// No longer pending.
	_, err = f.orders.UpdateStatus(ctx, result.Order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	err = f.orders.Delete(ctx, result.Order.ID, f.user.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.orders.UpdateStatus(context.Background(), primitive.NewObjectID(), "shipped-ish")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlaceOrderBumpsSoldCounters(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	cartID := f.fillCart(t, 2, 5)

	_, err := f.orders.Place(ctx, f.user.ID, &PlaceOrderRequest{
		CartID:          cartID,
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCash,
	})
	require.NoError(t, err)

	first, err := f.stores.Products.FindByID(ctx, f.products[0].ID)
	require.NoError(t, err)
	second, err := f.stores.Products.FindByID(ctx, f.products[1].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.Sold)
	assert.EqualValues(t, 5, second.Sold)
}

func TestListByUserReturnsEmptySliceNotNil(t *testing.T) {
	f := newOrderFixture(t)
	orders, err := f.orders.ListByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}
