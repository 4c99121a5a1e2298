package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	"github.com/meridian-crm/meridian-crm/internal/users"
)

// SeedOptions controls the bootstrap run.
type SeedOptions struct {
	// AdminEmail, AdminPassword and AdminName describe the initial management
	// account. All three empty skips account creation and only reconciles the
	// permission catalog.
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Seed reconciles the role and permission catalog and optionally bootstraps
// the first management account. Safe to run repeatedly: existing grants and
// accounts are left untouched.
func Seed(ctx context.Context, catalogRepo rbac.Repository, userRepo users.RepositoryPort, hasher *auth.Hasher, opts SeedOptions) error {
	catalog := rbac.NewCatalog(catalogRepo)
	if err := catalog.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	if opts.AdminEmail == "" {
		return nil
	}
	if opts.AdminPassword == "" {
		return errors.New("seed: admin password required when admin email is set")
	}

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if _, err := userRepo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("seed admin lookup: %w", err)
	}

	role, err := catalog.FindRole(ctx, rbac.RoleGestion)
	if err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}
	hash, err := hasher.Hash(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}
	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}
	_, err = userRepo.Create(ctx, users.User{
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		RoleID:       &role.ID,
		IsActive:     true,
	})
	if errors.Is(err, shared.ErrDuplicate) {
		return nil
	}
	return err
}
