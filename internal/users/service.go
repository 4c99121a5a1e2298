package users

import (
	"context"
	"strings"

	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Notifier enqueues an account-created notification. Satisfied by the jobs
// mail enqueuer; nil disables notifications.
type Notifier interface {
	NotifyAccountCreated(ctx context.Context, email, fullName string) error
}

// Service handles collaborator management. Every entry point passes through
// the guard before any storage access; a principal operating on its own
// account gets no shortcut, which closes the self-promotion path.
type Service struct {
	repo     RepositoryPort
	guard    *rbac.Guard
	catalog  *rbac.Catalog
	hasher   *auth.Hasher
	notifier Notifier
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, guard *rbac.Guard, catalog *rbac.Catalog, hasher *auth.Hasher, notifier Notifier) *Service {
	return &Service{repo: repo, guard: guard, catalog: catalog, hasher: hasher, notifier: notifier}
}

// Create registers a new collaborator. Requires user.manage.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*User, error) {
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:       strings.TrimSpace(input.FullName),
		EmployeeNumber: strings.TrimSpace(input.EmployeeNumber),
		PasswordHash:   digest,
	}
	if input.RoleName != "" {
		role, err := s.catalog.FindRole(ctx, input.RoleName)
		if err != nil {
			return nil, err
		}
		user.RoleID = &role.ID
		user.RoleName = role.Name
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		// Notification failure must not roll back account creation.
		_ = s.notifier.NotifyAccountCreated(ctx, created.Email, created.FullName)
	}
	return created, nil
}

// List returns a page of accounts. Requires user.manage.
func (s *Service) List(ctx context.Context, principal *shared.Principal, page, perPage int) ([]User, shared.Pagination, error) {
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return nil, shared.Pagination{}, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	out, err := s.repo.List(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, pagination, nil
}

// Get fetches one account. Requires user.manage.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (*User, error) {
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Promote assigns a role to an account. Requires rbac.manage even when the
// target is the caller's own account. The swap is one atomic UPDATE.
func (s *Service) Promote(ctx context.Context, principal *shared.Principal, email, roleName string) (*User, error) {
	if err := s.guard.Require(principal, rbac.PermRBACManage); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	role, err := s.catalog.FindRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, user.ID)
}

// SetPassword re-hashes and stores a new secret. Requires user.manage.
func (s *Service) SetPassword(ctx context.Context, principal *shared.Principal, email, newPassword string) error {
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return err
	}
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, digest)
}

// Deactivate soft-deletes an account. Requires user.manage. Outstanding
// tokens for the account die at their next resolution.
func (s *Service) Deactivate(ctx context.Context, principal *shared.Principal, id int64) error {
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, false)
}
