package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "tripstack/internal/errors"
	"tripstack/internal/repository"
	"tripstack/internal/service"
)

// RoleHandler handles role and permission administration endpoints.
type RoleHandler struct {
	roleRepo    repository.RoleRepository
	permService service.PermissionService
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(roleRepo repository.RoleRepository, permService service.PermissionService) *RoleHandler {
	return &RoleHandler{roleRepo: roleRepo, permService: permService}
}

// ListRoles godoc
// @Summary List roles with their permissions
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Role
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c echo.Context) error {
	roles, err := h.roleRepo.ListRoles(c.Request().Context())
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, roles)
}

// ListPermissions godoc
// @Summary List the permission catalog
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Permission
// @Router /permissions [get]
func (h *RoleHandler) ListPermissions(c echo.Context) error {
	perms, err := h.roleRepo.ListPermissions(c.Request().Context())
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, perms)
}

// GrantPermission godoc
// @Summary Grant a permission to a role
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param pid path int true "Permission ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Router /roles/{id}/permissions/{pid} [post]
func (h *RoleHandler) GrantPermission(c echo.Context) error {
	roleID, permID, err := rolePermissionParams(c)
	if err != nil {
		return err
	}

	if err := h.permService.Grant(c.Request().Context(), roleID, permID); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "permission granted"})
}

// RevokePermission godoc
// @Summary Revoke a permission from a role
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param pid path int true "Permission ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Router /roles/{id}/permissions/{pid} [delete]
func (h *RoleHandler) RevokePermission(c echo.Context) error {
	roleID, permID, err := rolePermissionParams(c)
	if err != nil {
		return err
	}

	if err := h.permService.Revoke(c.Request().Context(), roleID, permID); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "permission revoked"})
}

func rolePermissionParams(c echo.Context) (uint, uint, error) {
	roleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	permID, err := strconv.Atoi(c.Param("pid"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid permission id")
	}
	return uint(roleID), uint(permID), nil
}
