package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"tripstack/internal/auth"
	apperrors "tripstack/internal/errors"
	"tripstack/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockRoleRepository is a mock implementation of repository.RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) CreateRole(ctx context.Context, role *model.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) FindRoleByID(ctx context.Context, id uint) (*model.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) FindDefaultRole(ctx context.Context) (*model.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

func (m *MockRoleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockRoleRepository) FindPermissionsByRoleID(ctx context.Context, roleID uint) ([]model.Permission, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockRoleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	args := m.Called(ctx, perm)
	return args.Error(0)
}

func (m *MockRoleRepository) GrantPermission(ctx context.Context, roleID, permissionID uint) error {
	args := m.Called(ctx, roleID, permissionID)
	return args.Error(0)
}

func (m *MockRoleRepository) RevokePermission(ctx context.Context, roleID, permissionID uint) error {
	args := m.Called(ctx, roleID, permissionID)
	return args.Error(0)
}

// MockResetTokenRepository is a mock implementation of repository.ResetTokenRepository.
type MockResetTokenRepository struct {
	mock.Mock
}

func (m *MockResetTokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockResetTokenRepository) FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PasswordResetToken), args.Error(1)
}

func (m *MockResetTokenRepository) InvalidateForUser(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockResetTokenRepository) ConfirmReset(ctx context.Context, token, newPasswordHash string) error {
	args := m.Called(ctx, token, newPasswordHash)
	return args.Error(0)
}

func (m *MockResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockMailer is a mock implementation of mailer.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func newTestAuthService(userRepo *MockUserRepository, roleRepo *MockRoleRepository, resetRepo *MockResetTokenRepository, m *MockMailer) AuthService {
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	return NewAuthService(userRepo, roleRepo, resetRepo, jwtService, m, time.Hour)
}

func activeUser(password string) *model.User {
	hash, _ := auth.HashPassword(password)
	return &model.User{
		ID:           1,
		Email:        "alice@x.com",
		FullName:     "Alice",
		PasswordHash: hash,
		RoleID:       2,
		Role:         &model.Role{ID: 2, Name: "User", IsDefault: true},
		IsActive:     true,
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "alice@x.com",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@x.com").Return(activeUser("pw123456"), nil)
			},
			expectedError: nil,
		},
		{
			name:     "wrong password",
			email:    "alice@x.com",
			password: "wrong-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@x.com").Return(activeUser("pw123456"), nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@x.com",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "deactivated account",
			email:    "alice@x.com",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				user := activeUser("pw123456")
				user.IsActive = false
				m.On("FindByEmail", mock.Anything, "alice@x.com").Return(user, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			tt.setupMock(userRepo)

			svc := newTestAuthService(userRepo, new(MockRoleRepository), new(MockResetTokenRepository), new(MockMailer))
			token, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, tt.email, user.Email)
			}

			userRepo.AssertExpectations(t)
		})
	}
}

// All login failure modes must be externally indistinguishable.
func TestAuthService_LoginUniformError(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "alice@x.com").Return(activeUser("pw123456"), nil)
	userRepo.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestAuthService(userRepo, new(MockRoleRepository), new(MockResetTokenRepository), new(MockMailer))

	_, _, wrongPw := svc.Login(context.Background(), "alice@x.com", "wrong")
	_, _, unknown := svc.Login(context.Background(), "nobody@x.com", "anything")

	assert.Equal(t, wrongPw, unknown)
	assert.ErrorIs(t, wrongPw, apperrors.ErrInvalidCredentials)
}

func TestAuthService_LoginTokenVerifiable(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "alice@x.com").Return(activeUser("pw123456"), nil)

	jwtService := auth.NewJWTService(testSecret, time.Hour)
	svc := NewAuthService(userRepo, new(MockRoleRepository), new(MockResetTokenRepository), jwtService, new(MockMailer), time.Hour)

	token, _, err := svc.Login(context.Background(), "alice@x.com", "pw123456")
	assert.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "User", claims.Role)
}

func TestAuthService_Register(t *testing.T) {
	defaultRole := &model.Role{ID: 2, Name: "User", IsDefault: true}

	tests := []struct {
		name          string
		email         string
		setupMocks    func(*MockUserRepository, *MockRoleRepository)
		expectedError error
	}{
		{
			name:  "successful registration",
			email: "bob@x.com",
			setupMocks: func(u *MockUserRepository, r *MockRoleRepository) {
				u.On("ExistsByEmail", mock.Anything, "bob@x.com").Return(false, nil)
				r.On("FindDefaultRole", mock.Anything).Return(defaultRole, nil)
				u.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:  "duplicate email",
			email: "alice@x.com",
			setupMocks: func(u *MockUserRepository, r *MockRoleRepository) {
				u.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(true, nil)
			},
			expectedError: apperrors.ErrEmailAlreadyExists,
		},
		{
			name:  "default role created when none flagged",
			email: "carol@x.com",
			setupMocks: func(u *MockUserRepository, r *MockRoleRepository) {
				u.On("ExistsByEmail", mock.Anything, "carol@x.com").Return(false, nil)
				r.On("FindDefaultRole", mock.Anything).Return(nil, gorm.ErrRecordNotFound)
				r.On("CreateRole", mock.Anything, mock.AnythingOfType("*model.Role")).Run(func(args mock.Arguments) {
					args.Get(1).(*model.Role).ID = 7
				}).Return(nil)
				u.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			roleRepo := new(MockRoleRepository)
			tt.setupMocks(userRepo, roleRepo)

			svc := newTestAuthService(userRepo, roleRepo, new(MockResetTokenRepository), new(MockMailer))
			token, user, err := svc.Register(context.Background(), tt.email, "pw123456", "Some Name")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				// The existing record must not be touched.
				userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, tt.email, user.Email)
				assert.True(t, user.IsActive)
				assert.False(t, user.IsSuperuser)
				assert.NotEqual(t, "pw123456", user.PasswordHash)
				assert.True(t, auth.CheckPassword(user.PasswordHash, "pw123456"))
			}

			userRepo.AssertExpectations(t)
			roleRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository), new(MockRoleRepository), new(MockResetTokenRepository), new(MockMailer))

	// Stateless and idempotent: always succeeds.
	assert.NoError(t, svc.Logout(context.Background(), "alice@x.com"))
	assert.NoError(t, svc.Logout(context.Background(), "alice@x.com"))
	assert.NoError(t, svc.Logout(context.Background(), ""))
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	t.Run("known email persists a token and dispatches it", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		resetRepo := new(MockResetTokenRepository)
		m := new(MockMailer)

		user := activeUser("pw123456")
		userRepo.On("FindByEmail", mock.Anything, "alice@x.com").Return(user, nil)
		resetRepo.On("InvalidateForUser", mock.Anything, user.ID).Return(nil)

		var issued *model.PasswordResetToken
		resetRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.PasswordResetToken")).Run(func(args mock.Arguments) {
			issued = args.Get(1).(*model.PasswordResetToken)
		}).Return(nil)
		m.On("SendPasswordReset", mock.Anything, "alice@x.com", mock.AnythingOfType("string")).Return(nil)

		svc := newTestAuthService(userRepo, new(MockRoleRepository), resetRepo, m)
		err := svc.RequestPasswordReset(context.Background(), "alice@x.com")

		assert.NoError(t, err)
		assert.NotNil(t, issued)
		assert.NotEmpty(t, issued.Token)
		assert.False(t, issued.IsUsed)
		assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)

		resetRepo.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("unknown email acks without persisting anything", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		resetRepo := new(MockResetTokenRepository)
		m := new(MockMailer)

		userRepo.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)

		svc := newTestAuthService(userRepo, new(MockRoleRepository), resetRepo, m)
		err := svc.RequestPasswordReset(context.Background(), "nobody@x.com")

		// Same outcome as the known-email branch from the caller's view.
		assert.NoError(t, err)
		resetRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_ConfirmPasswordReset(t *testing.T) {
	tests := []struct {
		name          string
		confirmErr    error
		expectedError error
	}{
		{name: "valid token", confirmErr: nil, expectedError: nil},
		{name: "missing or used or expired token", confirmErr: gorm.ErrRecordNotFound, expectedError: apperrors.ErrResetTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetRepo := new(MockResetTokenRepository)
			resetRepo.On("ConfirmReset", mock.Anything, "some-token", mock.AnythingOfType("string")).Return(tt.confirmErr)

			svc := newTestAuthService(new(MockUserRepository), new(MockRoleRepository), resetRepo, new(MockMailer))
			err := svc.ConfirmPasswordReset(context.Background(), "some-token", "newpw1234")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			resetRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_CheckEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(true, nil)
	userRepo.On("ExistsByEmail", mock.Anything, "nobody@x.com").Return(false, nil)

	svc := newTestAuthService(userRepo, new(MockRoleRepository), new(MockResetTokenRepository), new(MockMailer))

	exists, err := svc.CheckEmail(context.Background(), "alice@x.com")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.CheckEmail(context.Background(), "nobody@x.com")
	assert.NoError(t, err)
	assert.False(t, exists)
}
