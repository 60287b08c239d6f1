package service

// End-to-end exercise of the authentication lifecycle against in-memory
// stores that mirror the GORM repositories' semantics, including the
// first-writer-wins reset confirmation.

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tripstack/internal/auth"
	apperrors "tripstack/internal/errors"
	"tripstack/internal/model"
)

type memStore struct {
	users  map[uint]*model.User
	tokens map[string]*model.PasswordResetToken
	role   *model.Role
	nextID uint
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uint]*model.User),
		tokens: make(map[string]*model.PasswordResetToken),
		role:   &model.Role{ID: 1, Name: "User", IsDefault: true},
		nextID: 1,
	}
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = r.s.nextID
	r.s.nextID++
	r.s.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.s.users[user.ID] = user
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUserRepo) List(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	return out, nil
}

type memRoleRepo struct{ s *memStore }

func (r *memRoleRepo) CreateRole(ctx context.Context, role *model.Role) error { return nil }
func (r *memRoleRepo) FindRoleByID(ctx context.Context, id uint) (*model.Role, error) {
	return r.s.role, nil
}
func (r *memRoleRepo) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return r.s.role, nil
}
func (r *memRoleRepo) FindDefaultRole(ctx context.Context) (*model.Role, error) {
	return r.s.role, nil
}
func (r *memRoleRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	return []model.Role{*r.s.role}, nil
}
func (r *memRoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return nil, nil
}
func (r *memRoleRepo) FindPermissionsByRoleID(ctx context.Context, roleID uint) ([]model.Permission, error) {
	return nil, nil
}
func (r *memRoleRepo) CreatePermission(ctx context.Context, perm *model.Permission) error { return nil }
func (r *memRoleRepo) GrantPermission(ctx context.Context, roleID, permissionID uint) error {
	return nil
}
func (r *memRoleRepo) RevokePermission(ctx context.Context, roleID, permissionID uint) error {
	return nil
}

type memResetRepo struct{ s *memStore }

func (r *memResetRepo) Create(ctx context.Context, token *model.PasswordResetToken) error {
	r.s.tokens[token.Token] = token
	return nil
}

func (r *memResetRepo) FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	if t, ok := r.s.tokens[token]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memResetRepo) InvalidateForUser(ctx context.Context, userID uint) error {
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			t.IsUsed = true
		}
	}
	return nil
}

func (r *memResetRepo) ConfirmReset(ctx context.Context, token, newPasswordHash string) error {
	t, ok := r.s.tokens[token]
	if !ok || t.IsUsed || !t.ExpiresAt.After(time.Now()) {
		return gorm.ErrRecordNotFound
	}
	t.IsUsed = true
	user, ok := r.s.users[t.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = newPasswordHash
	for _, other := range r.s.tokens {
		if other.UserID == t.UserID {
			other.IsUsed = true
		}
	}
	return nil
}

func (r *memResetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	for key, t := range r.s.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(r.s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func TestAuthLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	svc := NewAuthService(&memUserRepo{store}, &memRoleRepo{store}, &memResetRepo{store}, jwtService, new(nopMailer), time.Hour)

	// Register alice and confirm she can log in immediately.
	_, registered, err := svc.Register(ctx, "alice@x.com", "pw123", "Alice")
	require.NoError(t, err)
	require.NotNil(t, registered)

	token, _, err := svc.Login(ctx, "alice@x.com", "pw123")
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "User", claims.Role)
	assert.Equal(t, registered.ID, claims.UserID)

	// Request a reset and pick up the persisted token row.
	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@x.com"))
	require.Len(t, store.tokens, 1)
	var resetToken string
	for tok := range store.tokens {
		resetToken = tok
	}

	// Confirm the reset: old password stops working, the new one works.
	require.NoError(t, svc.ConfirmPasswordReset(ctx, resetToken, "newpw"))

	_, _, err = svc.Login(ctx, "alice@x.com", "pw123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice@x.com", "newpw")
	assert.NoError(t, err)

	// The token is single-use.
	err = svc.ConfirmPasswordReset(ctx, resetToken, "thirdpw")
	assert.ErrorIs(t, err, apperrors.ErrResetTokenInvalid)
}

func TestAuthLifecycle_NewResetTokenInvalidatesPrior(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	svc := NewAuthService(&memUserRepo{store}, &memRoleRepo{store}, &memResetRepo{store}, jwtService, new(nopMailer), time.Hour)

	_, _, err := svc.Register(ctx, "alice@x.com", "pw123", "Alice")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@x.com"))
	var first string
	for tok := range store.tokens {
		first = tok
	}

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@x.com"))

	// The first token died when the second was issued.
	err = svc.ConfirmPasswordReset(ctx, first, "newpw")
	assert.ErrorIs(t, err, apperrors.ErrResetTokenInvalid)
}

func TestAuthLifecycle_ExpiredResetTokenRejected(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	svc := NewAuthService(&memUserRepo{store}, &memRoleRepo{store}, &memResetRepo{store}, jwtService, new(nopMailer), -time.Minute)

	_, _, err := svc.Register(ctx, "alice@x.com", "pw123", "Alice")
	require.NoError(t, err)

	// Negative TTL issues an already-expired token with is_used still false.
	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@x.com"))
	var tok string
	for k := range store.tokens {
		tok = k
	}
	require.False(t, store.tokens[tok].IsUsed)

	err = svc.ConfirmPasswordReset(ctx, tok, "newpw")
	assert.ErrorIs(t, err, apperrors.ErrResetTokenInvalid)
}

type nopMailer struct{}

func (nopMailer) SendPasswordReset(ctx context.Context, email, token string) error { return nil }
