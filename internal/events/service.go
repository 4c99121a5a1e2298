package events

import (
	"context"

	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Service handles event business rules. Events hang off signed contracts.
// A commercial creates events for their own contracts; a support member
// maintains the events they are assigned to but never creates them.
type Service struct {
	repo  RepositoryPort
	guard *rbac.Guard
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, guard *rbac.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// List returns a page of events.
func (s *Service) List(ctx context.Context, principal *shared.Principal, page, perPage int) ([]Event, shared.Pagination, error) {
	if err := s.guard.Require(principal, rbac.PermEventRead); err != nil {
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

// Get fetches one event.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (*Event, error) {
	if err := s.guard.Require(principal, rbac.PermEventRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create attaches an event to a signed contract.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Event, error) {
	if err := s.guard.Require(principal, rbac.PermEventWrite); err != nil {
		return nil, err
	}
	info, err := s.repo.ContractInfo(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	if info.Status != "signed" {
		return nil, ErrContractNotSigned
	}
	switch principal.Role {
	case rbac.RoleSupport:
		return nil, shared.ErrPermissionDenied
	case rbac.RoleCommercial:
		if info.SalesContactID == nil || *info.SalesContactID != principal.ID {
			return nil, shared.ErrPermissionDenied
		}
	}
	event := Event{
		ContractID: input.ContractID,
		EventDate:  input.EventDate,
		Location:   input.Location,
		Attendees:  input.Attendees,
		Notes:      input.Notes,
	}
	return s.repo.Create(ctx, event)
}

// Update modifies event details. Support members may only touch events they
// are the assigned contact for; commercials hand events over at signature
// time and cannot edit them afterwards.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, input UpdateInput) (*Event, error) {
	if err := s.guard.Require(principal, rbac.PermEventWrite); err != nil {
		return nil, err
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch principal.Role {
	case rbac.RoleCommercial:
		return nil, shared.ErrPermissionDenied
	case rbac.RoleSupport:
		if event.SupportContactID == nil || *event.SupportContactID != principal.ID {
			return nil, shared.ErrPermissionDenied
		}
	}
	if input.EventDate != nil {
		event.EventDate = input.EventDate
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.Attendees != nil {
		event.Attendees = *input.Attendees
	}
	if input.Notes != nil {
		event.Notes = *input.Notes
	}
	return s.repo.Update(ctx, *event)
}

// AssignSupport sets the support contact for an event. Requires event.write
// plus user.manage, so only management reshuffles assignments.
func (s *Service) AssignSupport(ctx context.Context, principal *shared.Principal, eventID, userID int64) (*Event, error) {
	if err := s.guard.Require(principal, rbac.PermEventWrite); err != nil {
		return nil, err
	}
	if err := s.guard.Require(principal, rbac.PermUserManage); err != nil {
		return nil, err
	}
	if err := s.repo.AssignSupport(ctx, eventID, userID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, eventID)
}
