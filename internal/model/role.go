package model

import "time"

// Role is a named permission bundle. At most one role system-wide may be
// flagged as the default assigned on self-registration.
type Role struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Description string       `json:"description,omitempty" gorm:"size:255"`
	IsDefault   bool         `json:"is_default" gorm:"default:false"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName returns the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// Permission is an atomic capability identified by a unique code such as
// "user:create" or "article:publish".
type Permission struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex;size:100;not null"`
	Description string    `json:"description,omitempty" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}

// RolePermission binds a permission to a role. Composite primary key, no
// lifecycle beyond creation and deletion of the pairing.
type RolePermission struct {
	RoleID       uint `json:"role_id" gorm:"primaryKey"`
	PermissionID uint `json:"permission_id" gorm:"primaryKey"`
}

// TableName returns the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}
