// internal/services/cart_service_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/store"
	"github.com/negmaretail/storefront/internal/store/memory"
)

func newCartFixture(t *testing.T, stock int64, price float64) (*CartService, *memory.Stores, primitive.ObjectID) {
	t.Helper()
	stores := memory.New()
	product := &models.Product{
		Name:     "Widget",
		Category: "tools",
		Price:    price,
		Stock:    stock,
	}
	require.NoError(t, stores.Products.Insert(context.Background(), product))
	svc := NewCartService(stores.Products, stores.Carts)
	return svc, stores, product.ID
}

func stockOf(t *testing.T, stores *memory.Stores, productID primitive.ObjectID) int64 {
	t.Helper()
	p, err := stores.Products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestAddItemReservesStock(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 25.0)
	userID := primitive.NewObjectID()

	result, err := svc.AddItem(context.Background(), userID, productID, 3)
	require.NoError(t, err)

	assert.EqualValues(t, 7, result.UpdatedProduct.Stock)
	assert.EqualValues(t, 7, stockOf(t, stores, productID))
	require.Len(t, result.Cart.Products, 1)
	assert.EqualValues(t, 3, result.Cart.Products[0].Quantity)
	assert.InDelta(t, 75.0, result.Total, 1e-9)
}

func TestAddItemAccumulatesExistingLine(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 5.0)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, productID, 2)
	require.NoError(t, err)
	result, err := svc.AddItem(context.Background(), userID, productID, 4)
	require.NoError(t, err)

	require.Len(t, result.Cart.Products, 1)
	assert.EqualValues(t, 6, result.Cart.Products[0].Quantity)
	assert.EqualValues(t, 4, stockOf(t, stores, productID))
}

func TestAddItemInsufficientStockLeavesCartUntouched(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 2, 5.0)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, productID, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.EqualValues(t, 2, stockOf(t, stores, productID))
	_, err = stores.Carts.FindByUser(context.Background(), userID)
	assert.Error(t, err, "no cart should have been created")
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _, _ := newCartFixture(t, 2, 5.0)

	_, err := svc.AddItem(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 5, 5.0)

	_, err := svc.AddItem(context.Background(), primitive.NewObjectID(), productID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualValues(t, 5, stockOf(t, stores, productID))
}

// Two buyers race for the last unit. The conditional decrement guarantees
// exactly one wins and stock never goes negative.
func TestAddItemLastUnitRace(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 1, 9.99)
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, userID := range []primitive.ObjectID{alice, bob} {
		wg.Add(1)
		go func(uid primitive.ObjectID) {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), uid, productID, 1)
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInsufficientStock):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.EqualValues(t, 0, stockOf(t, stores, productID))
}

// Many concurrent adds against a small stock: total reserved quantity must
// equal the initial stock and the remainder must be zero, never negative.
func TestConcurrentAddsNeverOversell(t *testing.T) {
	const initialStock = 25
	const buyers = 100

	svc, stores, productID := newCartFixture(t, initialStock, 1.0)

	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), primitive.NewObjectID(), productID, 1)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, initialStock, successes)
	assert.EqualValues(t, 0, stockOf(t, stores, productID))
}

func TestUpdateQuantityGrowReservesDelta(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 2.0)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, productID, 3)
	require.NoError(t, err)

	result, err := svc.UpdateQuantity(context.Background(), userID, productID, 5)
	require.NoError(t, err)

	require.Len(t, result.Cart.Products, 1)
	assert.EqualValues(t, 5, result.Cart.Products[0].Quantity)
	assert.EqualValues(t, 5, stockOf(t, stores, productID))
}

func TestUpdateQuantityShrinkReleasesDelta(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 2.0)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, productID, 5)
	require.NoError(t, err)

	result, err := svc.UpdateQuantity(context.Background(), userID, productID, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 2, result.Cart.Products[0].Quantity)
	assert.EqualValues(t, 8, stockOf(t, stores, productID))
}

// Growing the line by more than the remaining stock must fail and leave both
// the cart quantity and the stock exactly as they were.
func TestUpdateQuantityInsufficientStockIsAtomic(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 4, 2.0)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, productID, 3)
	require.NoError(t, err)
	require.EqualValues(t, 1, stockOf(t, stores, productID))

	_, err = svc.UpdateQuantity(context.Background(), userID, productID, 5)
	require.ErrorIs(t, err, ErrInsufficientStock)

	cart, err := stores.Carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cart.Item(productID).Quantity)
	assert.EqualValues(t, 1, stockOf(t, stores, productID))
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc, _, productID := newCartFixture(t, 5, 2.0)
	userID := primitive.NewObjectID()

	// Seed a cart so the lookup fails on the line item, not the cart.
	_, err := svc.AddItem(context.Background(), userID, productID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(context.Background(), userID, primitive.NewObjectID(), 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveItemRestoresStock(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 2.0)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(context.Background(), userID, productID, 4)
	require.NoError(t, err)
	require.EqualValues(t, 6, stockOf(t, stores, productID))

	result, err := svc.RemoveItem(context.Background(), userID, productID)
	require.NoError(t, err)

	assert.Empty(t, result.Cart.Products)
	assert.EqualValues(t, 10, stockOf(t, stores, productID))
}

func TestClearRestoresEveryLine(t *testing.T) {
	stores := memory.New()
	ctx := context.Background()

	first := &models.Product{Name: "First", Price: 3, Stock: 5}
	second := &models.Product{Name: "Second", Price: 7, Stock: 8}
	require.NoError(t, stores.Products.Insert(ctx, first))
	require.NoError(t, stores.Products.Insert(ctx, second))

	svc := NewCartService(stores.Products, stores.Carts)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(ctx, userID, first.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, second.ID, 3)
	require.NoError(t, err)

	result, err := svc.Clear(ctx, userID)
	require.NoError(t, err)

	assert.Empty(t, result.Cart.Products)
	assert.Zero(t, result.Total)
	assert.Len(t, result.RestoredProducts, 2)
	assert.EqualValues(t, 5, stockOf(t, stores, first.ID))
	assert.EqualValues(t, 8, stockOf(t, stores, second.ID))
}

// A product deleted while sitting in a cart is skipped on clear: its units are
// gone with it and the rest of the cart still restores cleanly.
func TestClearSkipsDeletedProducts(t *testing.T) {
	stores := memory.New()
	ctx := context.Background()

	kept := &models.Product{Name: "Kept", Price: 3, Stock: 5}
	doomed := &models.Product{Name: "Doomed", Price: 7, Stock: 5}
	require.NoError(t, stores.Products.Insert(ctx, kept))
	require.NoError(t, stores.Products.Insert(ctx, doomed))

	svc := NewCartService(stores.Products, stores.Carts)
	userID := primitive.NewObjectID()

	_, err := svc.AddItem(ctx, userID, kept.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, doomed.ID, 2)
	require.NoError(t, err)

	require.NoError(t, stores.Products.Delete(ctx, doomed.ID))

	result, err := svc.Clear(ctx, userID)
	require.NoError(t, err)

	require.Len(t, result.RestoredProducts, 1)
	assert.Equal(t, kept.ID, result.RestoredProducts[0].ID)
	assert.EqualValues(t, 5, stockOf(t, stores, kept.ID))
}

// Conservation: any sequence of adds, updates, removals, and a final clear
// must return the product to its initial stock.
func TestStockConservationAcrossMutations(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 20, 1.0)
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, productID, 5)
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(ctx, userID, productID, 9)
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(ctx, userID, productID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, productID, 6)
	require.NoError(t, err)

	cart, err := stores.Carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	reserved := cart.Item(productID).Quantity
	assert.EqualValues(t, 20-reserved, stockOf(t, stores, productID))

	_, err = svc.Clear(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 20, stockOf(t, stores, productID))
}

func TestGetCartTotalUsesEffectivePrice(t *testing.T) {
	stores := memory.New()
	ctx := context.Background()

	product := &models.Product{Name: "Deal", Price: 100, Stock: 10}
	require.NoError(t, stores.Products.Insert(ctx, product))

	discount := 25.0
	discounted := 75.0
	_, err := stores.Products.Update(ctx, product.ID, store.ProductUpdate{
		Discount:        &discount,
		DiscountedPrice: &discounted,
	})
	require.NoError(t, err)

	svc := NewCartService(stores.Products, stores.Carts)
	userID := primitive.NewObjectID()
	_, err = svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)

	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, view.Total, 1e-9)
}

// The decrement and the cart write are two separate operations. When the cart
// write fails after a successful decrement, the units stay decremented: the
// service reports the failure and does not roll the stock back.
func TestFailedCartWriteLeaksReservedUnits(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 1.0)
	userID := primitive.NewObjectID()

	injected := errors.New("write timeout")
	stores.Carts.FailWrites(injected)

	_, err := svc.AddItem(context.Background(), userID, productID, 3)
	require.ErrorIs(t, err, injected)

	// The decrement happened and nothing compensates for it.
	assert.EqualValues(t, 7, stockOf(t, stores, productID))

	stores.Carts.FailWrites(nil)
	_, err = stores.Carts.FindByUser(context.Background(), userID)
	assert.Error(t, err, "no cart record exists for the leaked units")
}

func TestFailedQuantityGrowthLeaksOnlyDelta(t *testing.T) {
	svc, stores, productID := newCartFixture(t, 10, 1.0)
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, productID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 8, stockOf(t, stores, productID))

	injected := errors.New("write timeout")
	stores.Carts.FailWrites(injected)

	_, err = svc.UpdateQuantity(ctx, userID, productID, 5)
	require.ErrorIs(t, err, injected)

	// Delta of 3 was reserved and leaked; the cart still records 2.
	assert.EqualValues(t, 5, stockOf(t, stores, productID))
	stores.Carts.FailWrites(nil)
	cart, err := stores.Carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cart.Item(productID).Quantity)
}

func TestGetCartForUnknownUser(t *testing.T) {
	svc, _, _ := newCartFixture(t, 5, 1.0)

	_, err := svc.GetCart(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPushItemRefusesDuplicateLine(t *testing.T) {
	_, stores, productID := newCartFixture(t, 10, 5.0)
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := stores.Carts.PushItem(ctx, userID, productID, 1)
	require.NoError(t, err)
	_, err = stores.Carts.PushItem(ctx, userID, productID, 1)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	cart, err := stores.Carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Products, 1)
	assert.EqualValues(t, 1, cart.Products[0].Quantity)
}

func TestConcurrentSameProductAddsKeepOneLine(t *testing.T) {
	const buyers = 16
	svc, stores, productID := newCartFixture(t, buyers, 5.0)
	userID := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), userID, productID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := stores.Carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Products, 1)
	assert.EqualValues(t, buyers, cart.Products[0].Quantity)
	assert.EqualValues(t, 0, stockOf(t, stores, productID))
}
