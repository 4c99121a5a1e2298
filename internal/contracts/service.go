package contracts

import (
	"context"
	"time"

	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Service handles contract business rules. Reads require contract.read,
// writes contract.write; a commercial may only touch contracts belonging to
// their own clients.
type Service struct {
	repo  RepositoryPort
	guard *rbac.Guard
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, guard *rbac.Guard) *Service {
	return &Service{repo: repo, guard: guard, now: time.Now}
}

// List returns a page of contracts.
func (s *Service) List(ctx context.Context, principal *shared.Principal, page, perPage int) ([]Contract, shared.Pagination, error) {
	if err := s.guard.Require(principal, rbac.PermContractRead); err != nil {
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

// Get fetches one contract.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (*Contract, error) {
	if err := s.guard.Require(principal, rbac.PermContractRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create opens a pending contract for a client. The client's sales contact is
// recorded on the contract; a commercial can only open contracts for clients
// they are responsible for.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Contract, error) {
	if err := s.guard.Require(principal, rbac.PermContractWrite); err != nil {
		return nil, err
	}
	salesContact, err := s.repo.ClientSalesContact(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, salesContact); err != nil {
		return nil, err
	}
	contract := Contract{
		ClientID:       input.ClientID,
		SalesContactID: salesContact,
		TotalAmount:    input.TotalAmount,
		AmountDue:      input.AmountDue,
	}
	return s.repo.Create(ctx, contract)
}

// Update changes contract amounts.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, input UpdateInput) (*Contract, error) {
	if err := s.guard.Require(principal, rbac.PermContractWrite); err != nil {
		return nil, err
	}
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, contract.SalesContactID); err != nil {
		return nil, err
	}
	if input.TotalAmount != nil {
		contract.TotalAmount = *input.TotalAmount
	}
	if input.AmountDue != nil {
		contract.AmountDue = *input.AmountDue
	}
	return s.repo.Update(ctx, *contract)
}

// Sign marks a pending contract as signed.
func (s *Service) Sign(ctx context.Context, principal *shared.Principal, id int64) (*Contract, error) {
	if err := s.guard.Require(principal, rbac.PermContractWrite); err != nil {
		return nil, err
	}
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, contract.SalesContactID); err != nil {
		return nil, err
	}
	return s.repo.MarkSigned(ctx, id, s.now())
}

func (s *Service) checkOwnership(principal *shared.Principal, salesContactID *int64) error {
	if principal.Role != rbac.RoleCommercial {
		return nil
	}
	if salesContactID == nil || *salesContactID != principal.ID {
		return shared.ErrPermissionDenied
	}
	return nil
}
