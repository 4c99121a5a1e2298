package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	_ "github.com/meridian-crm/meridian-crm/testing"
)

func newRevocationList(t *testing.T) *auth.RevocationList {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRevocationList(client)
}

func TestRevokeBeforeExpiry(t *testing.T) {
	list := newRevocationList(t)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := list.IsRevoked(ctx, "jti-live")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti to be denylisted")
	}
}

// A token stays parseable for a short leeway past its expiry, so revoking
// inside that window must still write a denylist entry.
func TestRevokeInsideLeewayWindow(t *testing.T) {
	list := newRevocationList(t)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-leeway", time.Now().Add(-10*time.Second)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := list.IsRevoked(ctx, "jti-leeway")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti revoked while parsers still accept the token")
	}
}

func TestRevokePastLeewayIsNoop(t *testing.T) {
	list := newRevocationList(t)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-dead", time.Now().Add(-2*time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := list.IsRevoked(ctx, "jti-dead")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("no parser accepts the token anymore, no entry expected")
	}
}

// Logging out with an expired-but-within-leeway bearer must kill the token
// for the rest of the leeway window.
func TestLogoutDuringLeewayRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	codec := auth.NewTokenCodec("service-test-secret", -10*time.Second)
	perms := &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}}
	service := auth.NewService(repo, auth.NewHasher(4), codec, auth.NewRevocationList(client), perms, nil)

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	// The token expired 10s ago but parses thanks to leeway.
	if _, err := service.Resolve(context.Background(), token.Raw); err != nil {
		t.Fatalf("resolve before logout: %v", err)
	}

	if err := service.Logout(context.Background(), token.Raw); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := service.Resolve(context.Background(), token.Raw); !errors.Is(err, shared.ErrTokenInvalid) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}
