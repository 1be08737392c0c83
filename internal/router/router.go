package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/eshop-admin-backend/config"
	"github.com/ikkim/eshop-admin-backend/internal/app/controller"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
)

type Router struct {
	userController     *controller.UserController
	categoryController *controller.CategoryController
	productController  *controller.ProductController
	orderController    *controller.OrderController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	userController *controller.UserController,
	categoryController *controller.CategoryController,
	productController *controller.ProductController,
	orderController *controller.OrderController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		userController:     userController,
		categoryController: categoryController,
		productController:  productController,
		orderController:    orderController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "ESHOP admin API is running",
		})
	})

	// Serve uploaded images when the local disk backend is active
	if r.config.Upload.Backend == "local" {
		router.Static(r.config.Upload.PublicPath, r.config.Upload.Dir)
	}

	v1 := router.Group(r.config.Server.APIBasePath)
	{
		users := v1.Group("/users")
		{
			users.POST("/register", r.userController.Register)
			users.POST("/login", r.userController.Login)

			users.POST("/verify-token", r.authMiddleware.Authenticate(), r.userController.VerifyToken)
			users.GET("/:id", r.authMiddleware.Authenticate(), r.userController.GetUserByID)

			users.GET("", r.authMiddleware.RequireAdmin(), r.userController.GetAllUsers)
			users.GET("/get/count", r.authMiddleware.RequireAdmin(), r.userController.CountUsers)
			users.POST("", r.authMiddleware.RequireAdmin(), r.userController.CreateUser)
			users.PUT("/:id", r.authMiddleware.RequireAdmin(), r.userController.UpdateUser)
			users.DELETE("/:id", r.authMiddleware.RequireAdmin(), r.userController.DeleteUser)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.categoryController.GetAllCategories)
			categories.GET("/:id", r.categoryController.GetCategoryByID)

			categories.POST("", r.authMiddleware.RequireAdmin(), r.categoryController.CreateCategory)
			categories.PUT("/:id", r.authMiddleware.RequireAdmin(), r.categoryController.UpdateCategory)
			categories.DELETE("/:id", r.authMiddleware.RequireAdmin(), r.categoryController.DeleteCategory)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.GetAllProducts)
			products.GET("/get/count", r.productController.CountProducts)
			products.GET("/get/featured/:count", r.productController.GetFeaturedProducts)
			products.GET("/:id", r.productController.GetProductByID)

			products.POST("", r.authMiddleware.RequireAdmin(), r.productController.CreateProduct)
			products.PUT("/gallery-images/:id", r.authMiddleware.RequireAdmin(), r.productController.UpdateGallery)
			products.PUT("/:id", r.authMiddleware.RequireAdmin(), r.productController.UpdateProduct)
			products.DELETE("/:id", r.authMiddleware.RequireAdmin(), r.productController.DeleteProduct)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", r.authMiddleware.Authenticate(), r.orderController.CreateOrder)
			orders.GET("/get/userorders/:userid", r.authMiddleware.Authenticate(), r.orderController.GetUserOrders)

			orders.GET("", r.authMiddleware.RequireAdmin(), r.orderController.GetAllOrders)
			orders.GET("/get/count", r.authMiddleware.RequireAdmin(), r.orderController.CountOrders)
			orders.GET("/get/totalsales", r.authMiddleware.RequireAdmin(), r.orderController.TotalSales)
			orders.GET("/get/export", r.authMiddleware.RequireAdmin(), r.orderController.ExportOrders)
			orders.GET("/:id", r.authMiddleware.RequireAdmin(), r.orderController.GetOrderByID)
			orders.PUT("/:id", r.authMiddleware.RequireAdmin(), r.orderController.UpdateOrderStatus)
			orders.DELETE("/:id", r.authMiddleware.RequireAdmin(), r.orderController.DeleteOrder)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
