package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"tripstack/internal/auth"
	"tripstack/internal/config"
	"tripstack/internal/db"
	"tripstack/internal/model"
	"tripstack/internal/repository"
)

// seedPermission pairs a code with its description for the catalog.
type seedPermission struct {
	Code        string
	Description string
}

var permissionCatalog = []seedPermission{
	{"user:read", "View user profiles"},
	{"user:create", "Create users"},
	{"user:update", "Update users, roles and activation state"},
	{"role:read", "View roles and permissions"},
	{"role:update", "Grant and revoke role permissions"},
	{"content:read", "View travel content"},
	{"content:create", "Create travel content"},
	{"content:update", "Edit travel content"},
	{"content:delete", "Remove travel content"},
}

var adminPermissions = []string{
	"user:read", "user:create", "user:update",
	"role:read", "role:update",
	"content:read", "content:create", "content:update", "content:delete",
}

var userPermissions = []string{
	"content:read", "content:create",
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.User{},
		&model.PasswordResetToken{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	perms, err := seedPermissions(ctx, roleRepo)
	if err != nil {
		log.Fatalf("Failed to seed permissions: %v", err)
	}
	log.Printf("Permission catalog ready (%d permissions)", len(perms))

	adminRole, err := ensureRole(ctx, roleRepo, "Admin", "Platform administrators", false)
	if err != nil {
		log.Fatalf("Failed to seed Admin role: %v", err)
	}
	userRole, err := ensureRole(ctx, roleRepo, "User", "Default role assigned on registration", true)
	if err != nil {
		log.Fatalf("Failed to seed User role: %v", err)
	}

	if err := bindPermissions(ctx, roleRepo, adminRole, perms, adminPermissions); err != nil {
		log.Fatalf("Failed to bind Admin permissions: %v", err)
	}
	if err := bindPermissions(ctx, roleRepo, userRole, perms, userPermissions); err != nil {
		log.Fatalf("Failed to bind User permissions: %v", err)
	}
	log.Println("Role bindings ready")

	if err := seedSuperuser(ctx, userRepo, adminRole); err != nil {
		log.Fatalf("Failed to seed superuser: %v", err)
	}

	log.Println("Seed completed successfully!")
}

// seedPermissions creates any missing catalog entries and returns the full
// code-to-id mapping.
func seedPermissions(ctx context.Context, repo repository.RoleRepository) (map[string]uint, error) {
	existing, err := repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]uint, len(existing))
	for _, p := range existing {
		byCode[p.Code] = p.ID
	}

	for _, entry := range permissionCatalog {
		if _, ok := byCode[entry.Code]; ok {
			continue
		}
		perm := &model.Permission{Code: entry.Code, Description: entry.Description}
		if err := repo.CreatePermission(ctx, perm); err != nil {
			return nil, fmt.Errorf("create permission %s: %w", entry.Code, err)
		}
		byCode[perm.Code] = perm.ID
	}
	return byCode, nil
}

func ensureRole(ctx context.Context, repo repository.RoleRepository, name, description string, isDefault bool) (*model.Role, error) {
	role, err := repo.FindRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = &model.Role{Name: name, Description: description, IsDefault: isDefault}
	if err := repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	log.Printf("Created role %s", name)
	return role, nil
}

func bindPermissions(ctx context.Context, repo repository.RoleRepository, role *model.Role, byCode map[string]uint, codes []string) error {
	for _, code := range codes {
		permID, ok := byCode[code]
		if !ok {
			return fmt.Errorf("unknown permission code %s", code)
		}
		if err := repo.GrantPermission(ctx, role.ID, permID); err != nil {
			return fmt.Errorf("grant %s to %s: %w", code, role.Name, err)
		}
	}
	return nil
}

// seedSuperuser creates the initial administrator from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when the variables are unset or the user exists.
func seedSuperuser(ctx context.Context, repo repository.UserRepository, adminRole *model.Role) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping superuser")
		return nil
	}

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("Superuser %s already exists", email)
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hashed,
		RoleID:       adminRole.ID,
		IsActive:     true,
		IsSuperuser:  true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("Created superuser %s", email)
	return nil
}
