package main

import (
	"log"

	"backend_stm/api"
	"backend_stm/config"
	"backend_stm/database"
	"backend_stm/middleware"
	"backend_stm/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// Safety snapshot before the store is touched.
	backups := services.NewBackupService(cfg.Database.Path, cfg.Backup.Dir, cfg.Backup.RetentionCount)
	backups.CreateBackup()

	catalog, err := config.LoadProfileCatalog(cfg.App.ProfilesPath)
	if err != nil {
		log.Fatal("❌ Unable to load verification profiles: ", err)
	}
	log.Printf("✅ Loaded %d verification profiles from %s", catalog.Len(), cfg.App.ProfilesPath)

	log.Println("🔧 Initializing database...")
	if err := database.ConnectDatabase(cfg.Database.Path, cfg.App.Debug); err != nil {
		log.Fatal("❌ Database initialization failed: ", err)
	}
	db := database.GetDB()

	cache := services.NewCacheService(services.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
	auth := services.NewAuthService(db, cfg.JWT.Secret, cfg.JWT.ExpiresHours)
	notifications := services.NewNotificationService(db, cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	scheduler := services.NewSchedulerService(backups, notifications, cfg.Telegram.ReminderHorizonDays)
	if err := scheduler.Start(cfg.Backup.Schedule); err != nil {
		log.Fatal("❌ Unable to start maintenance scheduler: ", err)
	}
	defer scheduler.Stop()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "success",
			"message":  "pong",
			"database": "connected",
		})
	})

	handler := api.NewHandler(db, catalog, cfg, cache, backups, auth)
	authMiddleware := middleware.NewAuthMiddleware(auth)
	handler.RegisterRoutes(r, authMiddleware.RequireAuth())

	log.Printf("🚀 Server started on port %s", cfg.App.Port)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatal("❌ Server stopped: ", err)
	}
}
