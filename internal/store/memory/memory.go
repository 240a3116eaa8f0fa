// internal/store/memory/memory.go

// Package memory provides in-memory store implementations with the same
// atomicity guarantees as the MongoDB ones: every mutation happens under a
// per-store mutex, so a conditional decrement observes and writes stock in
// one step exactly like FindOneAndUpdate does. Used by tests.
package memory

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/models"
)

// Stores bundles the in-memory implementations.
type Stores struct {
	Products   *ProductStore
	Carts      *CartStore
	Orders     *OrderStore
	Users      *UserStore
	Categories *CategoryStore
	Reviews    *ReviewStore
}

func New() *Stores {
	return &Stores{
		Products:   NewProductStore(),
		Carts:      NewCartStore(),
		Orders:     NewOrderStore(),
		Users:      NewUserStore(),
		Categories: NewCategoryStore(),
		Reviews:    NewReviewStore(),
	}
}

func cloneProduct(p models.Product) models.Product {
	c := p
	c.Images = append([]models.Image(nil), p.Images...)
	return c
}

func cloneCart(c models.Cart) models.Cart {
	out := c
	out.Products = append([]models.CartItem(nil), c.Products...)
	return out
}

func cloneOrder(o models.Order) models.Order {
	out := o
	out.CartProducts = append([]models.OrderLine(nil), o.CartProducts...)
	return out
}

func cloneUser(u models.User) models.User {
	out := u
	out.Favorites = append([]primitive.ObjectID(nil), u.Favorites...)
	return out
}

func matchSearch(p models.Product, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{p.Name, p.Description, p.Category, p.Brand} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortProducts(products []models.Product, field string, desc bool) {
	if field == "" {
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		var less bool
		switch field {
		case "price":
			less = products[i].Price < products[j].Price
		case "rating":
			less = products[i].Rating < products[j].Rating
		case "sold":
			less = products[i].Sold < products[j].Sold
		case "name":
			less = products[i].Name < products[j].Name
		default:
			less = products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

func expired(end *time.Time, now time.Time) bool {
	return end != nil && end.Before(now)
}
