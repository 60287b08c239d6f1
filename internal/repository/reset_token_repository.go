package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tripstack/internal/model"
)

// ResetTokenRepository defines persistence operations for password reset
// tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error
	FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error)
	// InvalidateForUser marks all unused tokens of a user as used.
	InvalidateForUser(ctx context.Context, userID uint) error
	// ConfirmReset atomically consumes a valid token and writes the new
	// password hash on its user. The token row is claimed with a guarded
	// update so that concurrent confirmations of the same token are
	// serialized by the store: exactly one caller wins, the rest get
	// gorm.ErrRecordNotFound. Missing, used and expired tokens are
	// indistinguishable to the caller.
	ConfirmReset(ctx context.Context, token, newPasswordHash string) error
	// DeleteExpired reaps rows past their expiry and returns how many were
	// removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

type resetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository builds a GORM-backed repository.
func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *resetTokenRepository) FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	var row model.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *resetTokenRepository) InvalidateForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("user_id = ? AND is_used = ?", userID, false).
		Update("is_used", true).Error
}

func (r *resetTokenRepository) ConfirmReset(ctx context.Context, token, newPasswordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// First writer wins: the guarded update claims the token only if
		// it is still unused and unexpired.
		res := tx.Model(&model.PasswordResetToken{}).
			Where("token = ? AND is_used = ? AND expires_at > ?", token, false, time.Now()).
			Update("is_used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var row model.PasswordResetToken
		if err := tx.Where("token = ?", token).First(&row).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.User{}).
			Where("id = ?", row.UserID).
			Update("password_hash", newPasswordHash).Error; err != nil {
			return err
		}

		// Outstanding sibling tokens become unusable once the password
		// has changed.
		return tx.Model(&model.PasswordResetToken{}).
			Where("user_id = ? AND is_used = ?", row.UserID, false).
			Update("is_used", true).Error
	})
}

func (r *resetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.PasswordResetToken{})
	return res.RowsAffected, res.Error
}
