package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/edusuite/backend/internal/config"
	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/database"
	"github.com/edusuite/backend/internal/handlers"
	"github.com/edusuite/backend/internal/middleware"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
	"github.com/edusuite/backend/internal/services"
)

// @title EduSuite API
// @version 1.0
// @description Multi-tenant school management backend: fees, attendance, results, events and notifications
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if len(os.Args) > 1 {
		handleCommand(os.Args[1])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if cfg.Server.Env == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range cfg.CORS.Origins {
			if origin == allowed {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Active-School")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.Static("/logos", "./public/logos")

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "edusuite-api"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "EduSuite API", "status": "running"})
	})

	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Services
	authService := services.NewAuthService(db, cfg)
	setupService := services.NewSchoolSetupService(db, authService)
	activityService := services.NewActivityService(db)
	manager := data.NewManager(rowstore.NewGorm(db))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	snapshotHandler := handlers.NewSnapshotHandler(manager)
	schoolHandler := handlers.NewSchoolHandler(manager, setupService)
	userHandler := handlers.NewUserHandler(manager, authService)
	classHandler := handlers.NewClassHandler(manager, setupService)
	studentHandler := handlers.NewStudentHandler(manager)
	feeHandler := handlers.NewFeeHandler(manager)
	attendanceHandler := handlers.NewAttendanceHandler(manager)
	resultHandler := handlers.NewResultHandler(manager)
	eventHandler := handlers.NewEventHandler(manager)
	notificationHandler := handlers.NewNotificationHandler(manager)
	activityHandler := handlers.NewActivityHandler(activityService)
	backupHandler := handlers.NewBackupHandler(manager)
	dashboardHandler := handlers.NewDashboardHandler(manager)

	// Routes
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(authService))
		protected.Use(middleware.SessionMiddleware(db))
		{
			// Owner only
			owner := protected.Group("")
			owner.Use(middleware.RequireOwner())
			{
				owner.POST("/schools", schoolHandler.Create)
				owner.DELETE("/schools/:id", schoolHandler.Delete)
			}

			// Owner and school admin
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.PUT("/schools/:id", schoolHandler.Update)

				admin.POST("/users", userHandler.Create)
				admin.POST("/users/bulk", userHandler.BulkCreate)
				admin.PUT("/users/:id", userHandler.Update)
				admin.POST("/users/:id/approve", userHandler.Approve)
				admin.DELETE("/users/:id", userHandler.Delete)

				admin.POST("/classes", classHandler.Create)
				admin.POST("/classes/bulk", classHandler.BulkCreate)
				admin.PUT("/classes/:id", classHandler.Update)
				admin.PUT("/classes/:id/teacher", classHandler.AssignTeacher)
				admin.DELETE("/classes/:id", classHandler.Delete)

				admin.POST("/students", studentHandler.Create)
				admin.POST("/students/bulk", studentHandler.BulkCreate)
				admin.PUT("/students/:id", studentHandler.Update)
				admin.POST("/students/:id/leaving-certificate", studentHandler.IssueLeavingCertificate)
				admin.DELETE("/students/:id", studentHandler.Delete)

				admin.POST("/fee-heads", feeHandler.CreateHead)
				admin.PUT("/fee-heads/:id", feeHandler.UpdateHead)
				admin.DELETE("/fee-heads/:id", feeHandler.DeleteHead)
				admin.DELETE("/challans/:id", feeHandler.DeleteChallan)

				admin.POST("/events", eventHandler.Create)
				admin.PUT("/events/:id", eventHandler.Update)
				admin.DELETE("/events/:id", eventHandler.Delete)

				admin.DELETE("/results/:id", resultHandler.Delete)

				admin.GET("/backup", backupHandler.Export)
				admin.POST("/backup/restore", backupHandler.Restore)
			}

			// Admin and accountant
			billing := protected.Group("")
			billing.Use(middleware.RequireRole(models.RoleOwner, models.RoleAdmin, models.RoleAccountant))
			{
				billing.POST("/challans/generate", feeHandler.GenerateChallans)
				billing.POST("/challans/:id/payment", feeHandler.RecordPayment)
				billing.POST("/challans/:id/cancel", feeHandler.CancelChallan)
				billing.GET("/fees/defaulters", feeHandler.Defaulters)
			}

			// Teaching staff
			staff := protected.Group("")
			staff.Use(middleware.RequireStaff())
			{
				staff.POST("/attendance", attendanceHandler.Set)
				staff.POST("/results", resultHandler.Save)
			}

			// Any authenticated user
			protected.GET("/data", snapshotHandler.Get)
			protected.POST("/data/refresh", snapshotHandler.Refresh)
			protected.GET("/dashboard", dashboardHandler.Stats)
			protected.GET("/attendance", attendanceHandler.Day)
			protected.GET("/students/:id/balance", studentHandler.Balance)
			protected.GET("/students/:id/results", resultHandler.ByStudent)
			protected.GET("/activity", activityHandler.List)
			protected.GET("/notifications", notificationHandler.List)
			protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
			protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
			protected.PUT("/users/me/preferences", userHandler.UpdatePreferences)
		}
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func handleCommand(cmd string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	switch cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			log.Fatal("Migration failed:", err)
		}
		log.Println("Migration completed successfully")

	case "seed-owner":
		seedOwner(db, cfg)

	default:
		log.Printf("Unknown command: %s", cmd)
	}
}

// seedOwner bootstraps the platform owner account and one demo school
// so a fresh install is usable immediately.
func seedOwner(db *gorm.DB, cfg *config.Config) {
	authService := services.NewAuthService(db, cfg)

	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleOwner).Count(&count)
	if count > 0 {
		log.Println("Owner account already exists")
		return
	}

	password := cfg.Server.SeedOwnerSecret
	if password == "" {
		password = "Owner@123"
	}
	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash owner password:", err)
	}

	owner := &models.User{
		SchoolID:     nil,
		Email:        "owner@edusuite.example",
		PasswordHash: hash,
		Name:         "Platform Owner",
		Role:         models.RoleOwner,
		Status:       models.UserActive,
	}
	if err := db.Create(owner).Error; err != nil {
		log.Fatal("Failed to create owner:", err)
	}
	log.Println("Owner: owner@edusuite.example")

	var school models.School
	if err := db.First(&school).Error; err != nil {
		setup := services.NewSchoolSetupService(db, authService)
		school = models.School{
			Name:    "Demo Public School",
			Address: "12 School Road",
		}
		admin, err := setup.SetupSchool(&school, "admin@demo.example", "Admin@123")
		if err != nil {
			log.Fatal("Failed to seed demo school:", err)
		}
		log.Printf("Demo school admin: %s", admin.Email)
	}
}
