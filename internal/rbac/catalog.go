package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Catalog is the authoritative store of roles, permissions and their mapping.
// It is injected into every component that needs permission data; nothing in
// the application reads role or permission rows behind its back.
type Catalog struct {
	repo Repository
}

// NewCatalog constructs a Catalog backed by the provided repository.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// SeedDefaults idempotently reconciles the baseline roles and permissions.
// Missing permissions, roles and links are created; existing rows are never
// touched, so grants added by an administrator survive a reseed.
func (c *Catalog) SeedDefaults(ctx context.Context) error {
	permIDs := make(map[string]int64, len(defaultPermissions))
	for _, seed := range defaultPermissions {
		perm, err := c.repo.FindPermissionByCode(ctx, seed.code)
		if errors.Is(err, shared.ErrNotFound) {
			perm, err = c.repo.CreatePermission(ctx, seed.code, seed.description)
		}
		if err != nil {
			return fmt.Errorf("rbac: seed permission %s: %w", seed.code, err)
		}
		permIDs[perm.Code] = perm.ID
	}

	for name, codes := range defaultRoles {
		role, err := c.repo.FindRoleByName(ctx, name)
		if errors.Is(err, shared.ErrNotFound) {
			role, err = c.repo.CreateRole(ctx, name, "Role "+name)
		}
		if err != nil {
			return fmt.Errorf("rbac: seed role %s: %w", name, err)
		}

		existing, err := c.repo.RolePermissionCodes(ctx, role.ID)
		if err != nil {
			return fmt.Errorf("rbac: seed role %s: %w", name, err)
		}
		have := make(map[string]struct{}, len(existing))
		for _, code := range existing {
			have[code] = struct{}{}
		}
		for _, code := range codes {
			if _, ok := have[code]; ok {
				continue
			}
			permID, ok := permIDs[code]
			if !ok {
				return fmt.Errorf("rbac: seed role %s: permission %s: %w", name, code, shared.ErrCatalogIntegrity)
			}
			if err := c.repo.AttachPermission(ctx, role.ID, permID); err != nil {
				return fmt.Errorf("rbac: seed link %s->%s: %w", name, code, err)
			}
		}
	}
	return nil
}

// PermissionsOf returns the deduplicated permission codes granted by a role.
func (c *Catalog) PermissionsOf(ctx context.Context, roleName string) ([]string, error) {
	role, err := c.repo.FindRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	codes, err := c.repo.RolePermissionCodes(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	unique := make(map[string]struct{}, len(codes))
	deduped := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := unique[code]; ok {
			continue
		}
		unique[code] = struct{}{}
		deduped = append(deduped, code)
	}
	return deduped, nil
}

// Grant links an existing permission to an existing role. Unknown role or
// permission is reported as not found; the catalog never invents keys.
func (c *Catalog) Grant(ctx context.Context, roleName, code string) error {
	role, err := c.repo.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	perm, err := c.repo.FindPermissionByCode(ctx, code)
	if err != nil {
		return err
	}
	return c.repo.AttachPermission(ctx, role.ID, perm.ID)
}

// Revoke removes a permission link from a role.
func (c *Catalog) Revoke(ctx context.Context, roleName, code string) error {
	role, err := c.repo.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	perm, err := c.repo.FindPermissionByCode(ctx, code)
	if err != nil {
		return err
	}
	return c.repo.DetachPermission(ctx, role.ID, perm.ID)
}

// ListRoles returns all roles.
func (c *Catalog) ListRoles(ctx context.Context) ([]Role, error) {
	return c.repo.ListRoles(ctx)
}

// ListPermissions returns all permissions.
func (c *Catalog) ListPermissions(ctx context.Context) ([]Permission, error) {
	return c.repo.ListPermissions(ctx)
}

// FindRole fetches one role by name.
func (c *Catalog) FindRole(ctx context.Context, name string) (*Role, error) {
	return c.repo.FindRoleByName(ctx, name)
}
