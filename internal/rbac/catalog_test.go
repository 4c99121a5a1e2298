package rbac_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	_ "github.com/meridian-crm/meridian-crm/testing"
)

type memoryCatalogRepo struct {
	nextID      int64
	roles       map[string]*rbac.Role
	permissions map[string]*rbac.Permission
	links       map[int64]map[int64]bool

	createdRoles int
	createdPerms int
	createdLinks int
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		roles:       map[string]*rbac.Role{},
		permissions: map[string]*rbac.Permission{},
		links:       map[int64]map[int64]bool{},
	}
}

func (m *memoryCatalogRepo) FindRoleByName(_ context.Context, name string) (*rbac.Role, error) {
	role, ok := m.roles[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (m *memoryCatalogRepo) ListRoles(_ context.Context) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryCatalogRepo) CreateRole(_ context.Context, name, description string) (*rbac.Role, error) {
	m.nextID++
	m.createdRoles++
	role := &rbac.Role{ID: m.nextID, Name: name, Description: description}
	m.roles[name] = role
	copied := *role
	return &copied, nil
}

func (m *memoryCatalogRepo) FindPermissionByCode(_ context.Context, code string) (*rbac.Permission, error) {
	perm, ok := m.permissions[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *perm
	return &copied, nil
}

func (m *memoryCatalogRepo) ListPermissions(_ context.Context) ([]rbac.Permission, error) {
	out := make([]rbac.Permission, 0, len(m.permissions))
	for _, perm := range m.permissions {
		out = append(out, *perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memoryCatalogRepo) CreatePermission(_ context.Context, code, description string) (*rbac.Permission, error) {
	m.nextID++
	m.createdPerms++
	perm := &rbac.Permission{ID: m.nextID, Code: code, Description: description}
	m.permissions[code] = perm
	copied := *perm
	return &copied, nil
}

func (m *memoryCatalogRepo) RolePermissionCodes(_ context.Context, roleID int64) ([]string, error) {
	var codes []string
	for permID := range m.links[roleID] {
		for _, perm := range m.permissions {
			if perm.ID == permID {
				codes = append(codes, perm.Code)
			}
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (m *memoryCatalogRepo) AttachPermission(_ context.Context, roleID, permissionID int64) error {
	if m.links[roleID] == nil {
		m.links[roleID] = map[int64]bool{}
	}
	if !m.links[roleID][permissionID] {
		m.createdLinks++
	}
	m.links[roleID][permissionID] = true
	return nil
}

func (m *memoryCatalogRepo) DetachPermission(_ context.Context, roleID, permissionID int64) error {
	delete(m.links[roleID], permissionID)
	return nil
}

func TestSeedDefaultsCreatesBaseline(t *testing.T) {
	repo := newMemoryCatalogRepo()
	catalog := rbac.NewCatalog(repo)

	if err := catalog.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	codes, err := catalog.PermissionsOf(context.Background(), rbac.RoleGestion)
	if err != nil {
		t.Fatalf("permissions of gestion: %v", err)
	}
	if len(codes) != 8 {
		t.Fatalf("expected 8 gestion permissions, got %d: %v", len(codes), codes)
	}

	codes, err = catalog.PermissionsOf(context.Background(), rbac.RoleSupport)
	if err != nil {
		t.Fatalf("permissions of support: %v", err)
	}
	want := []string{"client.read", "contract.read", "event.read", "event.write"}
	sort.Strings(codes)
	if len(codes) != len(want) {
		t.Fatalf("expected support permissions %v, got %v", want, codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected support permissions %v, got %v", want, codes)
		}
	}
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := newMemoryCatalogRepo()
	catalog := rbac.NewCatalog(repo)

	if err := catalog.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	roles, perms, links := repo.createdRoles, repo.createdPerms, repo.createdLinks

	if err := catalog.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if repo.createdRoles != roles || repo.createdPerms != perms || repo.createdLinks != links {
		t.Fatalf("reseed created new rows: roles %d->%d perms %d->%d links %d->%d",
			roles, repo.createdRoles, perms, repo.createdPerms, links, repo.createdLinks)
	}
}

func TestSeedDefaultsKeepsManualGrants(t *testing.T) {
	repo := newMemoryCatalogRepo()
	catalog := rbac.NewCatalog(repo)
	ctx := context.Background()

	if err := catalog.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := catalog.Grant(ctx, rbac.RoleSupport, rbac.PermClientWrite); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := catalog.SeedDefaults(ctx); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	codes, err := catalog.PermissionsOf(ctx, rbac.RoleSupport)
	if err != nil {
		t.Fatalf("permissions of support: %v", err)
	}
	found := false
	for _, code := range codes {
		if code == rbac.PermClientWrite {
			found = true
		}
	}
	if !found {
		t.Fatalf("manual grant dropped by reseed: %v", codes)
	}
}

func TestGrantUnknownPermission(t *testing.T) {
	repo := newMemoryCatalogRepo()
	catalog := rbac.NewCatalog(repo)
	ctx := context.Background()

	if err := catalog.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := catalog.Grant(ctx, rbac.RoleSupport, "nonexistent.permission"); err != shared.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := catalog.Grant(ctx, "nonexistent-role", rbac.PermClientRead); err != shared.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// integrityFailingRepo simulates a role_permissions row whose permission no
// longer resolves, the way the storage layer reports a dangling link.
type integrityFailingRepo struct {
	*memoryCatalogRepo
}

func (r *integrityFailingRepo) RolePermissionCodes(_ context.Context, _ int64) ([]string, error) {
	return nil, shared.ErrCatalogIntegrity
}

func TestPermissionsOfCatalogIntegrityError(t *testing.T) {
	base := newMemoryCatalogRepo()
	if err := rbac.NewCatalog(base).SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	catalog := rbac.NewCatalog(&integrityFailingRepo{memoryCatalogRepo: base})

	codes, err := catalog.PermissionsOf(context.Background(), rbac.RoleGestion)
	if !errors.Is(err, shared.ErrCatalogIntegrity) {
		t.Fatalf("expected catalog integrity error, got %v", err)
	}
	if codes != nil {
		t.Fatalf("a dangling link must never degrade to a grant set, got %v", codes)
	}
}

func TestPermissionsOfDeduplicates(t *testing.T) {
	repo := newMemoryCatalogRepo()
	catalog := rbac.NewCatalog(repo)
	ctx := context.Background()

	role, err := repo.CreateRole(ctx, "auditor", "")
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	perm, err := repo.CreatePermission(ctx, rbac.PermClientRead, "")
	if err != nil {
		t.Fatalf("create permission: %v", err)
	}
	if err := repo.AttachPermission(ctx, role.ID, perm.ID); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := repo.AttachPermission(ctx, role.ID, perm.ID); err != nil {
		t.Fatalf("attach twice: %v", err)
	}

	codes, err := catalog.PermissionsOf(ctx, "auditor")
	if err != nil {
		t.Fatalf("permissions of: %v", err)
	}
	if len(codes) != 1 || codes[0] != rbac.PermClientRead {
		t.Fatalf("expected single deduplicated code, got %v", codes)
	}
}
