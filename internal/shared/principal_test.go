package shared_test

import (
	"context"
	"testing"

	"github.com/meridian-crm/meridian-crm/internal/shared"
	_ "github.com/meridian-crm/meridian-crm/testing"
)

func TestPrincipalCan(t *testing.T) {
	p := shared.NewPrincipal(1, "a@b.c", "A", "support", []string{"client.read", "client.read", "event.write"})

	if !p.Can("client.read") || !p.Can("event.write") {
		t.Fatal("expected granted permissions")
	}
	if p.Can("user.manage") {
		t.Fatal("unexpected permission")
	}
	if len(p.Permissions()) != 2 {
		t.Fatalf("expected deduplicated set, got %v", p.Permissions())
	}
}

func TestNilPrincipal(t *testing.T) {
	var p *shared.Principal
	if p.Can("client.read") {
		t.Fatal("nil principal must not hold permissions")
	}
	if p.Permissions() != nil {
		t.Fatal("nil principal has no permission list")
	}
}

func TestPrincipalContext(t *testing.T) {
	p := shared.NewPrincipal(1, "a@b.c", "A", "support", nil)
	ctx := shared.ContextWithPrincipal(context.Background(), p)

	if got := shared.PrincipalFromContext(ctx); got != p {
		t.Fatalf("expected principal from context, got %+v", got)
	}
	if got := shared.PrincipalFromContext(context.Background()); got != nil {
		t.Fatalf("expected nil from empty context, got %+v", got)
	}
}

func TestPagination(t *testing.T) {
	p := shared.NewPagination(0, 0, 45)
	if p.Page != 1 || p.PerPage != 20 || p.TotalPages != 3 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", p.Offset())
	}

	p = shared.NewPagination(3, 10, 45)
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}
	if p.TotalPages != 5 {
		t.Fatalf("expected 5 pages, got %d", p.TotalPages)
	}
}
