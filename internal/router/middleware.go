package router

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"tripstack/internal/service"
)

// RequirePermission gates a route on the authenticated role granting the
// given permission code. Superusers bypass the check. Must run after the JWT
// middleware has verified the token.
func RequirePermission(perms service.PermissionService, code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if superuser, _ := claims["is_superuser"].(bool); superuser {
				return next(c)
			}

			role, _ := claims["role"].(string)
			allowed, err := perms.HasPermission(c.Request().Context(), role, code)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "permission denied")
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusForbidden, "permission denied")
			}
			return next(c)
		}
	}
}
