package model

import "time"

// PasswordResetToken is a single-use credential-recovery artifact. A token is
// valid iff IsUsed is false and the expiry has not passed; expired rows are
// reaped by a periodic sweep.
type PasswordResetToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	IsUsed    bool      `json:"is_used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for the PasswordResetToken model.
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
