// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
)

// ErrNotFound is returned when no document matches the operation's filter at
// the time of the write. For conditional updates this covers both "document
// missing" and "document exists but the condition no longer holds" - the two
// are indistinguishable to a compare-and-swap.
var ErrNotFound = errors.New("store: document not found")

// ErrDuplicate is returned when an insert violates a unique index, e.g. a
// second user registering with the same email.
var ErrDuplicate = errors.New("store: duplicate document")

// ListOptions carries pagination and sorting for list queries.
type ListOptions struct {
	Skip     int64
	Limit    int64
	SortBy   string
	SortDesc bool
}

// ProductFilter narrows product list queries. Nil/zero fields are ignored.
type ProductFilter struct {
	Blocked    *bool
	Category   string
	Brand      string
	Discounted bool
	InStock    bool
	ExcludeID  primitive.ObjectID
	Search     string
}

// ProductUpdate lists the catalog fields a staff edit may touch. Stock is
// deliberately absent: it moves only through DecrementStock/IncrementStock so
// catalog edits can never clobber a concurrent reservation.
type ProductUpdate struct {
	Name              *string
	Barcode           *string
	Description       *string
	Brand             *string
	Category          *string
	Price             *float64
	Images            []models.Image
	Discount          *float64
	DiscountedPrice   *float64
	DiscountStartDate *time.Time
	DiscountEndDate   *time.Time
	Rating            *float64
	NumReviews        *int64
	IsBlocked         *bool
}

// ProductStore is the catalog side of the document store. DecrementStock is
// the single conditional-update primitive the whole reservation scheme rests
// on: it mutates the product only if stock >= qty still holds at write time.
type ProductStore interface {
	Insert(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	List(ctx context.Context, filter ProductFilter, opts ListOptions) ([]models.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, update ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// DecrementStock atomically applies stock -= qty iff stock >= qty,
	// returning the updated product. ErrNotFound means the product is missing
	// or the condition failed; nothing was written in either case.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error)
	// IncrementStock atomically applies stock += qty. Releasing a reservation
	// never fails on the stock side; ErrNotFound only when the product is gone.
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error)
	// IncrementSold bumps the lifetime sold counter when a reservation is
	// committed to an order.
	IncrementSold(ctx context.Context, id primitive.ObjectID, qty int64) error

	// ClearExpiredDiscounts unsets discount fields on every product whose
	// discount window ended before now.
	ClearExpiredDiscounts(ctx context.Context, now time.Time) error
}

// CartStore mutates per-user cart documents. Every mutation is a single
// atomic document update; cart creation happens through the upsert in
// PushItem so concurrent first-adds by the same user cannot produce duplicate
// carts (a unique index on user_id backs this up).
type CartStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Cart, error)

	// IncrementItem applies quantity += qty to an existing line item.
	// ErrNotFound when the user has no cart or the cart has no such item.
	IncrementItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error)
	// PushItem upserts the user's cart and appends a new line item.
	// ErrDuplicate when the cart already holds a line for productID; the
	// caller folds the quantity in through IncrementItem instead.
	PushItem(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error)
	// SetItemQuantity sets an existing line item's quantity to exactly qty.
	SetItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int64) (*models.Cart, error)
	// RemoveItem pulls the line item for productID.
	RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error)
	// Empty sets products to the empty list, keeping the cart document.
	Empty(ctx context.Context, cartID primitive.ObjectID) error
	// RemoveProductFromAll pulls productID's line items from every cart;
	// used when a product is deleted from the catalog.
	RemoveProductFromAll(ctx context.Context, productID primitive.ObjectID) error
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// UserUpdate lists the profile fields an update may touch.
type UserUpdate struct {
	Username     *string
	Email        *string
	Password     *string
	Gender       *string
	Image        *string
	Address      *string
	Phone        *string
	Role         *models.Role
	IsBlocked    *bool
	RefreshToken *string

	ResetToken        *string
	ResetTokenExpires *time.Time
	ClearResetToken   bool
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByResetToken looks a user up by the hash of an outstanding password
	// reset token.
	FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	PushFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error)
	PullFavorite(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error)
}

type CategoryUpdate struct {
	Name        *string
	Description *string
	Image       *models.Image
	IsActive    *bool
}

type CategoryStore interface {
	Insert(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id primitive.ObjectID, update CategoryUpdate) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	PushProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error
	PullProductFromAll(ctx context.Context, productID primitive.ObjectID) error
}

// UserReviewCount is one row of the per-user review aggregation.
type UserReviewCount struct {
	UserID primitive.ObjectID `json:"user_id" bson:"_id"`
	Count  int64              `json:"count" bson:"count"`
}

type ReviewStore interface {
	Insert(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	ListSite(ctx context.Context) ([]models.Review, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, rating *float64, comment *string) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error
	CountByUser(ctx context.Context) ([]UserReviewCount, error)
	CountByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
