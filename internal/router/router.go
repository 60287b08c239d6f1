package router

import (
	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tripstack/internal/config"
	"tripstack/internal/handler"
	"tripstack/internal/service"
)

// Permission codes consulted by route guards. Must match the seeded catalog.
const (
	PermUserRead   = "user:read"
	PermUserUpdate = "user:update"
	PermRoleRead   = "role:read"
	PermRoleUpdate = "role:update"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	perms service.PermissionService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	roleHandler *handler.RoleHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.GET("/auth/health", authHandler.Health)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/password-reset", authHandler.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)
	api.GET("/auth/check-email", authHandler.CheckEmail)

	// Secured routes (require a verified bearer token)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}))

	secured.GET("/users/me", userHandler.Me)

	// Administration routes gated on permission codes
	secured.GET("/users", userHandler.ListUsers, RequirePermission(perms, PermUserRead))
	secured.GET("/users/:id", userHandler.GetUser, RequirePermission(perms, PermUserRead))
	secured.PUT("/users/:id/role", userHandler.ChangeRole, RequirePermission(perms, PermUserUpdate))
	secured.PUT("/users/:id/deactivate", userHandler.Deactivate, RequirePermission(perms, PermUserUpdate))

	secured.GET("/roles", roleHandler.ListRoles, RequirePermission(perms, PermRoleRead))
	secured.GET("/permissions", roleHandler.ListPermissions, RequirePermission(perms, PermRoleRead))
	secured.POST("/roles/:id/permissions/:pid", roleHandler.GrantPermission, RequirePermission(perms, PermRoleUpdate))
	secured.DELETE("/roles/:id/permissions/:pid", roleHandler.RevokePermission, RequirePermission(perms, PermRoleUpdate))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
