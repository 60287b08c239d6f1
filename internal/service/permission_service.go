package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tripstack/internal/cache"
	apperrors "tripstack/internal/errors"
	"tripstack/internal/repository"
)

const permissionCacheTTL = 5 * time.Minute

// PermissionService resolves a role to its granted permission codes. It is
// the access decision layer consulted per request by the permission
// middleware, so lookups are cached.
type PermissionService interface {
	// HasPermission reports whether the named role grants the permission code.
	HasPermission(ctx context.Context, roleName, code string) (bool, error)
	// PermissionCodes returns all codes granted to the named role.
	PermissionCodes(ctx context.Context, roleName string) ([]string, error)
	Grant(ctx context.Context, roleID, permissionID uint) error
	Revoke(ctx context.Context, roleID, permissionID uint) error
}

type permissionService struct {
	roleRepo repository.RoleRepository
	cache    *cache.Client
}

// NewPermissionService builds a PermissionService with repository and cache.
func NewPermissionService(roleRepo repository.RoleRepository, cache *cache.Client) PermissionService {
	return &permissionService{roleRepo: roleRepo, cache: cache}
}

func (s *permissionService) cacheKey(roleName string) string {
	return fmt.Sprintf("role_perms:%s", roleName)
}

func (s *permissionService) HasPermission(ctx context.Context, roleName, code string) (bool, error) {
	codes, err := s.PermissionCodes(ctx, roleName)
	if err != nil {
		return false, err
	}
	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *permissionService) PermissionCodes(ctx context.Context, roleName string) ([]string, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(roleName)); data != nil {
		var cached []string
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	role, err := s.roleRepo.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, err
	}

	perms, err := s.roleRepo.FindPermissionsByRoleID(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, p.Code)
	}

	if payload, err := json.Marshal(codes); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(roleName), payload, permissionCacheTTL)
	}
	return codes, nil
}

func (s *permissionService) Grant(ctx context.Context, roleID, permissionID uint) error {
	role, err := s.roleRepo.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRoleNotFound
		}
		return err
	}
	if err := s.roleRepo.GrantPermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(role.Name))
	return nil
}

func (s *permissionService) Revoke(ctx context.Context, roleID, permissionID uint) error {
	role, err := s.roleRepo.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRoleNotFound
		}
		return err
	}
	if err := s.roleRepo.RevokePermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(role.Name))
	return nil
}
