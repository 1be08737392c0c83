package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/eshop-admin-backend/config"
	"github.com/ikkim/eshop-admin-backend/internal/app/controller"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/internal/db"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
	"github.com/ikkim/eshop-admin-backend/internal/router"
	"github.com/ikkim/eshop-admin-backend/internal/scheduler"
	"github.com/ikkim/eshop-admin-backend/internal/storage"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"github.com/ikkim/eshop-admin-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting ESHOP Admin Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional; without it the dashboard stats fall back to the database
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without stats cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Select the upload storage backend
	var store storage.Storage
	switch cfg.Upload.Backend {
	case "s3":
		store = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
		logger.Info("Using S3 upload storage", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	default:
		localStore, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.PublicPath)
		if err != nil {
			logger.Fatal("Failed to initialize upload storage", err)
		}
		store = localStore
		logger.Info("Using local upload storage", map[string]interface{}{
			"dir": cfg.Upload.Dir,
		})
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())

	// Initialize services
	imageService := service.NewImageService(store, cfg.Upload.MaxFileSize)
	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo, imageService)
	orderService := service.NewOrderService(orderRepo, productRepo, db.GetDB())

	// Initialize controllers
	userController := controller.NewUserController(userService)
	categoryController := controller.NewCategoryController(categoryService)
	productController := controller.NewProductController(productService)
	orderController := controller.NewOrderController(orderService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start the orphaned image sweep
	var sweep *scheduler.ImageSweepScheduler
	if cfg.Upload.SweepEnabled {
		sweep = scheduler.NewImageSweepScheduler(imageService, productRepo, cfg.Upload.SweepMaxAge)
		if err := sweep.Start(); err != nil {
			logger.Warn("Image sweep scheduler not running", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer sweep.Stop()
		}
	}

	// Setup router
	r := router.NewRouter(
		userController,
		categoryController,
		productController,
		orderController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
