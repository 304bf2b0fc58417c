package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/admins"
	"github.com/jpvargas/guardian/pkg/guardian/apps"
	"github.com/jpvargas/guardian/pkg/guardian/auth"
	"github.com/jpvargas/guardian/pkg/guardian/config"
	"github.com/jpvargas/guardian/pkg/guardian/database"
	"github.com/jpvargas/guardian/pkg/guardian/email"
	"github.com/jpvargas/guardian/pkg/guardian/enrollment"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/rol"
	"github.com/jpvargas/guardian/pkg/guardian/users"

	_ "github.com/jpvargas/guardian/api/swagger"
)

// @title Guardian API
// @version 1.0
// @description Multi-tenant identity and authorization backend: enrollment, verification, JWT login and per-app role management.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token, raw or "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	if err := ensureAdminExists(db, cfg); err != nil {
		log.Fatalf("Failed to ensure admin user exists: %v", err)
	}

	var sender email.Sender
	if cfg.SMTPHost != "" {
		sender = &email.SMTPSender{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}
	} else {
		log.Println("No SMTP host configured - verification mails are logged only")
		sender = &logSender{}
	}

	tokens := auth.NewTokenManager(cfg)

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "guardian"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	root := r.Group("")

	// Auth routes (public)
	authHandler := auth.NewHandler(db, cfg, tokens)
	authHandler.RegisterRoutes(root.Group("/auth"))

	// Enrollment and user lookups (public)
	enrollHandler := enrollment.NewHandler(db, cfg, sender)
	enrollHandler.RegisterRoutes(root)

	usersHandler := users.NewHandler(db)
	usersHandler.RegisterRoutes(root)

	// Management routes (admin token required)
	managed := root.Group("", auth.Middleware(tokens), auth.RequireAdmin())

	adminsHandler := admins.NewHandler(db)
	adminsHandler.RegisterRoutes(managed)

	appsHandler := apps.NewHandler(db)
	appsHandler.RegisterRoutes(managed)

	rolHandler := rol.NewHandler(db)
	rolHandler.RegisterRoutes(managed)
	rolHandler.RegisterScreenRoutes(managed)

	log.Printf("Starting Guardian server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// logSender stands in for a real mail relay in development.
type logSender struct{}

func (*logSender) Send(to, subject, body string) error {
	log.Printf("mail to %s: %s\n%s", to, subject, body)
	return nil
}

// ensureAdminExists creates a default admin if none exists, so the
// management API is reachable on a fresh database.
func ensureAdminExists(db *gorm.DB, cfg config.Config) error {
	var count int64
	if err := db.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	admin := models.Admin{
		Email:        cfg.SeedAdminEmail,
		PasswordHash: hash,
		Status:       models.AdminStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created default admin user: %s", admin.Email)
	return nil
}
