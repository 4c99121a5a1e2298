package clients

import (
	"context"
	"strings"

	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Service handles client business rules. Reads require client.read, writes
// client.write; on top of the permission, a commercial may only modify the
// clients they are the sales contact for.
type Service struct {
	repo  RepositoryPort
	guard *rbac.Guard
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, guard *rbac.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// List returns a page of clients.
func (s *Service) List(ctx context.Context, principal *shared.Principal, page, perPage int) ([]Client, shared.Pagination, error) {
	if err := s.guard.Require(principal, rbac.PermClientRead); err != nil {
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

// Get fetches one client.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (*Client, error) {
	if err := s.guard.Require(principal, rbac.PermClientRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create registers a new client. A commercial caller is auto-assigned as the
// client's sales contact.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Client, error) {
	if err := s.guard.Require(principal, rbac.PermClientWrite); err != nil {
		return nil, err
	}
	client := Client{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		FullName: strings.TrimSpace(input.FullName),
		Company:  strings.TrimSpace(input.Company),
		Phone:    strings.TrimSpace(input.Phone),
	}
	if principal.Role == rbac.RoleCommercial {
		id := principal.ID
		client.SalesContactID = &id
	}
	return s.repo.Create(ctx, client)
}

// Update modifies a client. A commercial must be the record's sales contact.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, input UpdateInput) (*Client, error) {
	if err := s.guard.Require(principal, rbac.PermClientWrite); err != nil {
		return nil, err
	}
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, client); err != nil {
		return nil, err
	}
	if input.Email != nil {
		client.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.FullName != nil {
		client.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Company != nil {
		client.Company = strings.TrimSpace(*input.Company)
	}
	if input.Phone != nil {
		client.Phone = strings.TrimSpace(*input.Phone)
	}
	return s.repo.Update(ctx, *client)
}

// AssignSalesContact reassigns the responsible commercial. Reserved to
// principals holding user.manage on top of client.write.
func (s *Service) AssignSalesContact(ctx context.Context, principal *shared.Principal, clientID, userID int64) (*Client, error) {
	if err := s.guard.Require(principal, rbac.PermClientWrite); err != nil {
		return nil, err
	}
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return nil, err
	}
	client, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	client.SalesContactID = &userID
	return s.repo.Update(ctx, *client)
}

func (s *Service) checkOwnership(principal *shared.Principal, client *Client) error {
	if principal.Role != rbac.RoleCommercial {
		return nil
	}
	if client.SalesContactID == nil || *client.SalesContactID != principal.ID {
		return shared.ErrPermissionDenied
	}
	return nil
}
