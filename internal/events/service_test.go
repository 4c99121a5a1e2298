package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/meridian-crm/meridian-crm/internal/events"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	_ "github.com/meridian-crm/meridian-crm/testing"
)

type stubEventRepo struct {
	nextID    int64
	byID      map[int64]*events.Event
	contracts map[int64]events.ContractInfo
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{byID: map[int64]*events.Event{}, contracts: map[int64]events.ContractInfo{}}
}

func (s *stubEventRepo) Create(_ context.Context, event events.Event) (*events.Event, error) {
	info, ok := s.contracts[event.ContractID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if info.Status != "signed" {
		return nil, events.ErrContractNotSigned
	}
	s.nextID++
	event.ID = s.nextID
	s.byID[event.ID] = &event
	copied := event
	return &copied, nil
}

func (s *stubEventRepo) FindByID(_ context.Context, id int64) (*events.Event, error) {
	event, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *stubEventRepo) List(_ context.Context, _, _ int) ([]events.Event, error) {
	out := make([]events.Event, 0, len(s.byID))
	for _, event := range s.byID {
		out = append(out, *event)
	}
	return out, nil
}

func (s *stubEventRepo) Count(_ context.Context) (int, error) {
	return len(s.byID), nil
}

func (s *stubEventRepo) Update(_ context.Context, event events.Event) (*events.Event, error) {
	if _, ok := s.byID[event.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	s.byID[event.ID] = &event
	copied := event
	return &copied, nil
}

func (s *stubEventRepo) AssignSupport(_ context.Context, eventID, userID int64) error {
	event, ok := s.byID[eventID]
	if !ok {
		return shared.ErrNotFound
	}
	event.SupportContactID = &userID
	return nil
}

func (s *stubEventRepo) ContractInfo(_ context.Context, contractID int64) (*events.ContractInfo, error) {
	info, ok := s.contracts[contractID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &info, nil
}

func commercial(id int64) *shared.Principal {
	return shared.NewPrincipal(id, "sales@test.local", "Sales", rbac.RoleCommercial,
		[]string{rbac.PermEventRead, rbac.PermEventWrite})
}

func gestion() *shared.Principal {
	return shared.NewPrincipal(1, "admin@test.local", "Admin", rbac.RoleGestion,
		[]string{rbac.PermEventRead, rbac.PermEventWrite, rbac.PermUserManage})
}

func support(id int64) *shared.Principal {
	return shared.NewPrincipal(id, "support@test.local", "Support", rbac.RoleSupport,
		[]string{rbac.PermEventRead, rbac.PermEventWrite})
}

func signedContract(repo *stubEventRepo, contractID int64, salesContact *int64) {
	repo.contracts[contractID] = events.ContractInfo{ID: contractID, Status: "signed", SalesContactID: salesContact}
}

func TestEventCreateRequiresSignedContract(t *testing.T) {
	repo := newStubEventRepo()
	repo.contracts[30] = events.ContractInfo{ID: 30, Status: "pending"}
	service := events.NewService(repo, rbac.NewGuard(nil))

	_, err := service.Create(context.Background(), gestion(), events.CreateInput{ContractID: 30})
	if !errors.Is(err, events.ErrContractNotSigned) {
		t.Fatalf("expected ErrContractNotSigned, got %v", err)
	}
}

func TestEventCreateOnSignedContract(t *testing.T) {
	repo := newStubEventRepo()
	owner := int64(5)
	signedContract(repo, 30, &owner)
	service := events.NewService(repo, rbac.NewGuard(nil))

	created, err := service.Create(context.Background(), commercial(5), events.CreateInput{
		ContractID: 30, Location: "Paris", Attendees: 80,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ContractID != 30 || created.Location != "Paris" {
		t.Fatalf("unexpected event: %+v", created)
	}
}

func TestEventCreateOwnership(t *testing.T) {
	repo := newStubEventRepo()
	owner := int64(5)
	signedContract(repo, 30, &owner)
	service := events.NewService(repo, rbac.NewGuard(nil))

	// A commercial who is not the contract's sales contact may not create.
	if _, err := service.Create(context.Background(), commercial(6), events.CreateInput{ContractID: 30}); !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// Support holds event.write for updates but never creates events.
	if _, err := service.Create(context.Background(), support(3), events.CreateInput{ContractID: 30}); !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestEventUpdateBySupportContact(t *testing.T) {
	repo := newStubEventRepo()
	owner := int64(5)
	signedContract(repo, 30, &owner)
	service := events.NewService(repo, rbac.NewGuard(nil))

	created, err := service.Create(context.Background(), gestion(), events.CreateInput{ContractID: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.AssignSupport(context.Background(), gestion(), created.ID, 3); err != nil {
		t.Fatalf("assign support: %v", err)
	}

	notes := "door opens at 18:00"
	updated, err := service.Update(context.Background(), support(3), created.ID, events.UpdateInput{Notes: &notes})
	if err != nil {
		t.Fatalf("support update: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("unexpected notes: %q", updated.Notes)
	}

	// A different support member is denied.
	if _, err := service.Update(context.Background(), support(4), created.ID, events.UpdateInput{Notes: &notes}); !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// The commercial hands the event over at signature and cannot edit it.
	if _, err := service.Update(context.Background(), commercial(5), created.ID, events.UpdateInput{Notes: &notes}); !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestEventAssignSupportRequiresUserManage(t *testing.T) {
	repo := newStubEventRepo()
	owner := int64(5)
	signedContract(repo, 30, &owner)
	service := events.NewService(repo, rbac.NewGuard(nil))

	created, err := service.Create(context.Background(), gestion(), events.CreateInput{ContractID: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.AssignSupport(context.Background(), support(3), created.ID, 3); !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	updated, err := service.AssignSupport(context.Background(), gestion(), created.ID, 3)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.SupportContactID == nil || *updated.SupportContactID != 3 {
		t.Fatalf("expected support contact 3, got %v", updated.SupportContactID)
	}
}

func TestEventCreateUnknownContract(t *testing.T) {
	service := events.NewService(newStubEventRepo(), rbac.NewGuard(nil))

	if _, err := service.Create(context.Background(), gestion(), events.CreateInput{ContractID: 404}); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
