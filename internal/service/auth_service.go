package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripstack/internal/auth"
	apperrors "tripstack/internal/errors"
	"tripstack/internal/mailer"
	"tripstack/internal/model"
	"tripstack/internal/repository"
)

// TokenType labels issued tokens in responses and the Authorization scheme.
const TokenType = "Bearer"

const defaultRoleName = "User"

// ResetAckMessage is returned for every password-reset request, registered
// email or not, so responses cannot be used to enumerate accounts.
const ResetAckMessage = "If the email is registered, a password reset link has been sent"

// AuthService handles the authentication lifecycle.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Register(ctx context.Context, email, password, fullName string) (token string, user *model.User, err error)
	Logout(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	CheckEmail(ctx context.Context, email string) (bool, error)
}

type authService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	resetRepo  repository.ResetTokenRepository
	jwtService *auth.JWTService
	mailer     mailer.Mailer
	resetTTL   time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	resetRepo repository.ResetTokenRepository,
	jwtService *auth.JWTService,
	m mailer.Mailer,
	resetTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		resetRepo:  resetRepo,
		jwtService: jwtService,
		mailer:     m,
		resetTTL:   resetTTL,
	}
}

// Login authenticates a user and returns a signed access token. Unknown
// email, deactivated account and wrong password all fail with the same
// ErrInvalidCredentials so the caller cannot tell which check failed.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, s.roleName(user), user.IsSuperuser)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	log.Printf("login: user %d authenticated", user.ID)
	return token, user, nil
}

// Register creates a new user with a hashed password and the system default
// role, then issues a token so the fresh user is immediately authenticated.
// Self-registration never accepts a caller-chosen role and never sets the
// superuser flag.
func (s *authService) Register(ctx context.Context, email, password, fullName string) (string, *model.User, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("check email existence: %w", err)
	}
	if exists {
		return "", nil, apperrors.ErrEmailAlreadyExists
	}

	role, err := s.defaultRole(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("resolve default role: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashed,
		RoleID:       role.ID,
		Role:         role,
		IsActive:     true,
		IsSuperuser:  false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, role.Name, false)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	log.Printf("register: user %d created", user.ID)
	return token, user, nil
}

// Logout is a stateless acknowledgment. Tokens are self-contained and the
// server holds no session to invalidate; the client discards its copy.
// Always succeeds and is idempotent.
func (s *authService) Logout(ctx context.Context, email string) error {
	log.Printf("logout: %s", email)
	return nil
}

// RequestPasswordReset issues a reset token for a registered email. The
// returned error is nil for unknown emails too; handlers answer with the
// same generic acknowledgment on every path.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	// One live token per user: earlier outstanding tokens stop working
	// the moment a new one is issued.
	if err := s.resetRepo.InvalidateForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("invalidate prior tokens: %w", err)
	}

	token := &model.PasswordResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.resetTTL),
		IsUsed:    false,
	}

	if err := s.resetRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token.Token); err != nil {
		// Delivery failures must not leak into the response either.
		log.Printf("password reset delivery failed for user %d: %v", user.ID, err)
	}

	return nil
}

// ConfirmPasswordReset consumes a valid reset token and applies the new
// password. Token consumption and the password write happen in one store
// transaction; concurrent confirmations of the same token let exactly one
// caller through.
func (s *authService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.resetRepo.ConfirmReset(ctx, token, hashed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrResetTokenInvalid
		}
		return fmt.Errorf("confirm reset: %w", err)
	}

	log.Printf("password reset confirmed")
	return nil
}

// CheckEmail reports whether an email is already registered.
func (s *authService) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.userRepo.ExistsByEmail(ctx, email)
}

// defaultRole returns the role flagged is_default, creating a standard one
// when no role carries the flag yet.
func (s *authService) defaultRole(ctx context.Context) (*model.Role, error) {
	role, err := s.roleRepo.FindDefaultRole(ctx)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = &model.Role{
		Name:        defaultRoleName,
		Description: "Default role assigned on registration",
		IsDefault:   true,
	}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *authService) roleName(user *model.User) string {
	if user.Role != nil {
		return user.Role.Name
	}
	return defaultRoleName
}
