// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/negmaretail/storefront/internal/config"
	"github.com/negmaretail/storefront/internal/handlers"
	"github.com/negmaretail/storefront/internal/middleware"
	"github.com/negmaretail/storefront/internal/services"
	mongostore "github.com/negmaretail/storefront/internal/store/mongo"
	"github.com/negmaretail/storefront/internal/utils"
)

// Initialize wires stores, services, and handlers onto a gin engine. The
// product service is returned as well so the caller can run the periodic
// discount sweep alongside the HTTP server.
func Initialize(db *mongo.Database, cfg *config.Config) (*gin.Engine, *services.ProductService, error) {
	stores, err := mongostore.New(db)
	if err != nil {
		return nil, nil, err
	}

	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, nil, err
	}
	authorizationService := services.NewAuthorizationService()
	paymentService := services.NewPaymentService(cfg)

	authService := services.NewAuthService(stores.Users, notificationService, cfg)
	userService := services.NewUserService(stores.Users, stores.Products, stores.Reviews, stores.Orders)
	productService := services.NewProductService(stores.Products, stores.Categories, stores.Reviews, stores.Carts, storageService)
	categoryService := services.NewCategoryService(stores.Categories, stores.Products, storageService)
	reviewService := services.NewReviewService(stores.Reviews, stores.Products, authorizationService)
	cartService := services.NewCartService(stores.Products, stores.Carts)
	orderService := services.NewOrderService(
		stores.Orders, stores.Carts, stores.Products, stores.Users,
		authorizationService, notificationService, paymentService, cfg,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, storageService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.List)
			products.GET("/top-selling", productHandler.TopSelling)
			products.GET("/top-rated", productHandler.TopRated)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.Get)
			products.GET("/:id/related", productHandler.Related)
			products.GET("/:id/reviews", reviewHandler.ListByProduct)
		}

		// Category routes
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:id", categoryHandler.Get)
		}

		// Review routes
		reviews := v1.Group("/reviews")
		{
			reviews.GET("/site", reviewHandler.ListSite)

			protected := reviews.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", reviewHandler.Create)
				protected.GET("/mine", reviewHandler.ListMine)
				protected.PUT("/:id", reviewHandler.Update)
				protected.DELETE("/:id", reviewHandler.Delete)
			}
		}

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.PUT("/add", cartHandler.AddItem)
			cart.PUT("/quantity", cartHandler.UpdateQuantity)
			cart.PUT("/remove", cartHandler.RemoveItem)
			cart.PUT("/clear", cartHandler.Clear)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.Place)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.DELETE("/:id", orderHandler.Delete)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/me", userHandler.GetProfile)
			users.PUT("/me", userHandler.UpdateProfile)
			users.POST("/me/avatar", middleware.UploadRateLimit(), userHandler.UploadAvatar)
			users.GET("/me/favorites", userHandler.Favorites)
			users.PUT("/me/favorites/:id", userHandler.AddFavorite)
			users.DELETE("/me/favorites/:id", userHandler.RemoveFavorite)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		{
			// Catalog management
			adminProducts := admin.Group("/products")
			adminProducts.Use(middleware.Authorize(authorizationService, services.OpManageCatalog))
			{
				adminProducts.GET("", productHandler.ListAll)
				adminProducts.POST("", productHandler.Create)
				adminProducts.POST("/images", middleware.UploadRateLimit(), productHandler.UploadImage)
				adminProducts.PUT("/:id", productHandler.Update)
				adminProducts.DELETE("/:id", productHandler.Delete)
				adminProducts.PUT("/:id/discount", productHandler.SetDiscount)
				adminProducts.DELETE("/:id/discount", productHandler.ClearDiscount)
				adminProducts.PUT("/:id/block", productHandler.SetBlocked)
			}

			// Category management
			adminCategories := admin.Group("/categories")
			adminCategories.Use(middleware.Authorize(authorizationService, services.OpManageCategories))
			{
				adminCategories.POST("", categoryHandler.Create)
				adminCategories.PUT("/:id", categoryHandler.Update)
				adminCategories.DELETE("/:id", categoryHandler.Delete)
			}

			// Order management
			adminOrders := admin.Group("/orders")
			adminOrders.Use(middleware.Authorize(authorizationService, services.OpManageOrders))
			{
				adminOrders.PUT("/:id/status", orderHandler.UpdateStatus)
			}

			// User management
			adminUsers := admin.Group("/users")
			adminUsers.Use(middleware.Authorize(authorizationService, services.OpManageUsers))
			{
				adminUsers.GET("", userHandler.List)
				adminUsers.PUT("/:id/block", userHandler.SetBlocked)
				adminUsers.PUT("/:id/role", userHandler.ChangeRole)
				adminUsers.DELETE("/:id", userHandler.Delete)
			}

			// Reporting
			adminReports := admin.Group("/reports")
			adminReports.Use(middleware.Authorize(authorizationService, services.OpViewReports))
			{
				adminReports.GET("/users/:id/stats", userHandler.Stats)
				adminReports.GET("/users/:id/reviews", reviewHandler.CountByUser)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r, productService, nil
}
