// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/negmaretail/storefront/internal/services"
	"github.com/negmaretail/storefront/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

func (h *ProductHandler) listParams(c *gin.Context) services.ProductListParams {
	return services.ProductListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Category:         c.Query("category"),
		Brand:            c.Query("brand"),
		Discounted:       c.Query("discounted") == "true",
		InStock:          c.Query("in_stock") == "true",
	}
}

// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	params := h.listParams(c)

	products, total, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /admin/products (staff; includes blocked)
func (h *ProductHandler) ListAll(c *gin.Context) {
	params := h.listParams(c)

	products, total, err := h.productService.ListAll(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// GET /products/:id/related
func (h *ProductHandler) Related(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit := queryLimit(c, 8)
	products, err := h.productService.Related(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// GET /products/top-selling
func (h *ProductHandler) TopSelling(c *gin.Context) {
	products, err := h.productService.TopSelling(c.Request.Context(), queryLimit(c, 10))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// GET /products/top-rated
func (h *ProductHandler) TopRated(c *gin.Context) {
	products, err := h.productService.TopRated(c.Request.Context(), queryLimit(c, 10))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// POST /admin/products (staff)
func (h *ProductHandler) Create(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, product)
}

// PUT /admin/products/:id (staff)
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// DELETE /admin/products/:id (staff)
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Product deleted"})
}

// PUT /admin/products/:id/discount (staff)
func (h *ProductHandler) SetDiscount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	product, err := h.productService.SetDiscount(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// DELETE /admin/products/:id/discount (staff)
func (h *ProductHandler) ClearDiscount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.ClearDiscount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// PUT /admin/products/:id/block (staff)
func (h *ProductHandler) SetBlocked(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Blocked *bool `json:"blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	product, err := h.productService.SetBlocked(c.Request.Context(), id, *body.Blocked)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// POST /admin/products/images (staff, multipart)
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Missing image file", nil)
		return
	}
	defer file.Close()

	image, err := h.storageService.UploadImage(c.Request.Context(), file, header, h.storageService.ProductImageOptions())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, image)
}

func queryLimit(c *gin.Context, fallback int64) int64 {
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return fallback
}
