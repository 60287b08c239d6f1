package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tripstack/internal/auth"
	"tripstack/internal/cache"
	"tripstack/internal/config"
	"tripstack/internal/db"
	"tripstack/internal/handler"
	"tripstack/internal/mailer"
	"tripstack/internal/model"
	"tripstack/internal/repository"
	"tripstack/internal/router"
	"tripstack/internal/service"
)

// @title Tripstack Authentication API
// @version 1.0
// @description Authentication and authorization service for the Tripstack travel content platform.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.PasswordResetToken{},
			&model.RolePermission{},
			&model.Permission{},
			&model.User{},
			&model.Role{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.User{},
		&model.PasswordResetToken{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	resetRepo := repository.NewResetTokenRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	resetMailer := mailer.NewLogMailer()

	// Initialize services
	authService := service.NewAuthService(userRepo, roleRepo, resetRepo, jwtService, resetMailer, cfg.ResetTokenTTL)
	permService := service.NewPermissionService(roleRepo, cacheClient)
	userService := service.NewUserService(userRepo, roleRepo, cacheClient)

	// Reap expired reset tokens in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := service.NewResetTokenSweeper(resetRepo, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, jwtService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, permService)

	// Register routes
	router.Register(
		e,
		cfg,
		permService,
		authHandler,
		userHandler,
		roleHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
