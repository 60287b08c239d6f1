package model

import "time"

// User represents a registered member of the travel platform.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	FullName     string    `json:"full_name" gorm:"size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	RoleID       uint      `json:"role_id" gorm:"not null;index"`
	Role         *Role     `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	IsSuperuser  bool      `json:"is_superuser" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}
