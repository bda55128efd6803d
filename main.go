package main

import (
	"fmt"
	"log"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/database"
	"github.com/lh20005/geo-xi-tong-sub000/handlers"
	"github.com/lh20005/geo-xi-tong-sub000/logger"
	"github.com/lh20005/geo-xi-tong-sub000/middleware"
	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"
	"github.com/lh20005/geo-xi-tong-sub000/services"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting storage ledger service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.Server.LogLevel)

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}

	database.DB.AutoMigrate(
		&models.StorageAccount{},
		&models.StorageTransaction{},
		&models.StorageAlert{},
		&models.StorageSnapshot{},
	)
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	notifier := services.NewRedisNotifier(database.RedisClient, cfg.Redis.EventChannel)
	serviceContainer := services.NewContainer(repoContainer, notifier)
	handlers.SetServices(serviceContainer)

	serviceContainer.Maintenance.StartWorkers()
	log.Println("maintenance workers started")

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	storage := api.Group("/storage")
	storage.Use(middleware.AuthMiddleware())
	{
		storage.GET("/usage", handlers.GetUsage)
		storage.GET("/breakdown", handlers.GetBreakdown)
		storage.POST("/check-quota", handlers.CheckQuota)
		storage.POST("/usage/record", handlers.RecordUsage)
		storage.POST("/usage/remove", handlers.RemoveUsage)
		storage.GET("/transactions", handlers.ListTransactions)
		storage.GET("/alerts", handlers.ListPendingAlerts)
		storage.GET("/history", handlers.GetHistory)
		storage.GET("/growth-rate", handlers.GetGrowthRate)
		storage.GET("/export", handlers.ExportHistory)
	}

	admin := api.Group("/admin/storage")
	admin.Use(middleware.AuthMiddleware())
	{
		admin.POST("/:user_id/initialize", handlers.InitializeAccount)
		admin.PUT("/:user_id/quota", handlers.UpdateUserQuota)
		admin.POST("/:user_id/purchased", handlers.AddPurchasedStorage)
		admin.POST("/:user_id/reconcile", handlers.ReconcileUser)
		admin.POST("/:user_id/snapshot", handlers.SnapshotUser)
		admin.POST("/snapshots/run", handlers.RunSnapshots)
	}
}
