// internal/handlers/cart_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/negmaretail/storefront/internal/middleware"
	"github.com/negmaretail/storefront/internal/models"
	"github.com/negmaretail/storefront/internal/services"
	"github.com/negmaretail/storefront/internal/store/memory"
	"github.com/negmaretail/storefront/internal/utils"
)

type CartHandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	stores  *memory.Stores
	userID  primitive.ObjectID
	token   string
	product *models.Product
}

func (suite *CartHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.stores = memory.New()

	suite.product = &models.Product{Name: "Widget", Price: 10, Stock: 5}
	require.NoError(suite.T(), suite.stores.Products.Insert(context.Background(), suite.product))

	suite.userID = primitive.NewObjectID()
	token, err := utils.GenerateJWT(suite.userID, "shopper", string(models.RoleUser), 1)
	require.NoError(suite.T(), err)
	suite.token = token

	cartService := services.NewCartService(suite.stores.Products, suite.stores.Carts)
	cartHandler := NewCartHandler(cartService)

	suite.router = gin.New()
	cart := suite.router.Group("/cart")
	cart.Use(middleware.AuthRequired())
	{
		cart.GET("", cartHandler.GetCart)
		cart.PUT("/add", cartHandler.AddItem)
		cart.PUT("/quantity", cartHandler.UpdateQuantity)
		cart.PUT("/remove", cartHandler.RemoveItem)
		cart.PUT("/clear", cartHandler.Clear)
	}
}

func (suite *CartHandlerTestSuite) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *CartHandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *CartHandlerTestSuite) TestAddItem() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
		"quantity":   2,
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	response := suite.decode(w)
	assert.True(suite.T(), response["success"].(bool))

	data := response["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 20, data["total"])
	updated := data["updated_product"].(map[string]interface{})
	assert.EqualValues(suite.T(), 3, updated["stock"])
}

func (suite *CartHandlerTestSuite) TestAddItemDefaultsQuantityToOne() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	data := suite.decode(w)["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 10, data["total"])
}

func (suite *CartHandlerTestSuite) TestAddItemInsufficientStock() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
		"quantity":   6,
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	response := suite.decode(w)
	assert.False(suite.T(), response["success"].(bool))
	errObj := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "INSUFFICIENT_STOCK", errObj["code"])

	// Stock untouched by the failed add.
	p, err := suite.stores.Products.FindByID(context.Background(), suite.product.ID)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 5, p.Stock)
}

func (suite *CartHandlerTestSuite) TestAddItemUnknownProduct() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": primitive.NewObjectID().Hex(),
		"quantity":   1,
	})

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *CartHandlerTestSuite) TestAddItemMalformedProductID() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": "not-an-id",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *CartHandlerTestSuite) TestUpdateQuantityAndRemove() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
		"quantity":   2,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("PUT", "/cart/quantity", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
		"quantity":   4,
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	data := suite.decode(w)["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 40, data["total"])

	w = suite.request("PUT", "/cart/remove", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	data = suite.decode(w)["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 0, data["total"])

	p, err := suite.stores.Products.FindByID(context.Background(), suite.product.ID)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 5, p.Stock)
}

func (suite *CartHandlerTestSuite) TestClearReturnsRestoredProducts() {
	w := suite.request("PUT", "/cart/add", map[string]interface{}{
		"product_id": suite.product.ID.Hex(),
		"quantity":   3,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("PUT", "/cart/clear", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	restored := data["restored_products"].([]interface{})
	require.Len(suite.T(), restored, 1)
	product := restored[0].(map[string]interface{})
	assert.EqualValues(suite.T(), 5, product["stock"])
}

func (suite *CartHandlerTestSuite) TestGetCartWithoutToken() {
	req, _ := http.NewRequest("GET", "/cart", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *CartHandlerTestSuite) TestGetCartBeforeFirstAdd() {
	w := suite.request("GET", "/cart", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestCartHandlerSuite(t *testing.T) {
	suite.Run(t, new(CartHandlerTestSuite))
}
