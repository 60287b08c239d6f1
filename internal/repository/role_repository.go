package repository

import (
	"context"

	"gorm.io/gorm"

	"tripstack/internal/model"
)

// RoleRepository defines persistence operations for roles, permissions and
// their bindings.
type RoleRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	FindRoleByID(ctx context.Context, id uint) (*model.Role, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	FindDefaultRole(ctx context.Context) (*model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionsByRoleID(ctx context.Context, roleID uint) ([]model.Permission, error)
	CreatePermission(ctx context.Context, perm *model.Permission) error
	GrantPermission(ctx context.Context, roleID, permissionID uint) error
	RevokePermission(ctx context.Context, roleID, permissionID uint) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository builds a GORM-backed repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) CreateRole(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepository) FindRoleByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindDefaultRole(ctx context.Context) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := r.db.WithContext(ctx).Order("code").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissionsByRoleID(ctx context.Context, roleID uint) ([]model.Permission, error) {
	var perms []model.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", roleID).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return r.db.WithContext(ctx).Create(perm).Error
}

func (r *roleRepository) GrantPermission(ctx context.Context, roleID, permissionID uint) error {
	binding := model.RolePermission{RoleID: roleID, PermissionID: permissionID}
	// Idempotent: granting an existing pairing is not an error.
	return r.db.WithContext(ctx).
		Where(&binding).FirstOrCreate(&binding).Error
}

func (r *roleRepository) RevokePermission(ctx context.Context, roleID, permissionID uint) error {
	return r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&model.RolePermission{}).Error
}
