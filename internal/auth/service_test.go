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

type sessionMeta struct {
	userID int64
	ip     string
	ua     string
}

type stubUserRepo struct {
	users    map[string]*auth.User
	sessions map[string]sessionMeta
}

func newStubUserRepo(users ...*auth.User) *stubUserRepo {
	repo := &stubUserRepo{users: map[string]*auth.User{}, sessions: map[string]sessionMeta{}}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubUserRepo) CreateSession(_ context.Context, jti string, userID int64, _ time.Time, ip, ua string) error {
	s.sessions[jti] = sessionMeta{userID: userID, ip: ip, ua: ua}
	return nil
}

func (s *stubUserRepo) DeleteSession(_ context.Context, jti string) error {
	delete(s.sessions, jti)
	return nil
}

func (s *stubUserRepo) DeleteExpiredSessions(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type stubPermissionSource struct {
	byRole map[string][]string
}

func (s *stubPermissionSource) PermissionsOf(_ context.Context, roleName string) ([]string, error) {
	codes, ok := s.byRole[roleName]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return codes, nil
}

func newAuthService(t *testing.T, repo auth.Repository, perms *stubPermissionSource) *auth.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	codec := auth.NewTokenCodec("service-test-secret", time.Hour)
	return auth.NewService(repo, auth.NewHasher(4), codec, auth.NewRevocationList(client), perms, nil)
}

func seededUser(t *testing.T, password string) *auth.User {
	t.Helper()
	digest, err := auth.NewHasher(4).Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.User{
		ID:           1,
		Email:        "bob@test.local",
		FullName:     "Bob Martin",
		PasswordHash: digest,
		Role:         "support",
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}})

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token.Raw == "" {
		t.Fatal("expected a signed token")
	}
	if _, ok := repo.sessions[token.JTI]; !ok {
		t.Fatal("expected session audit row")
	}
}

func TestLoginWithoutClientMetadata(t *testing.T) {
	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}})

	// A client may legally omit the User-Agent header; login must still
	// succeed and the audit row keeps empty strings.
	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	meta, ok := repo.sessions[token.JTI]
	if !ok {
		t.Fatal("expected session audit row")
	}
	if meta.ip != "" || meta.ua != "" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo(
		seededUser(t, "correct-horse"),
		&auth.User{ID: 2, Email: "gone@test.local", PasswordHash: "$2a$04$invalidinvalidinvalidinvalidinvalidinvalid", Role: "support", IsActive: false},
	)
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": nil}})

	cases := map[string][2]string{
		"unknown identifier":  {"nobody@test.local", "whatever-pass"},
		"wrong password":      {"bob@test.local", "wrong-pass"},
		"deactivated account": {"gone@test.local", "whatever-pass"},
	}
	for name, creds := range cases {
		_, err := service.Login(context.Background(), creds[0], creds[1], "127.0.0.1", "test")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
}

func TestResolveBuildsPrincipal(t *testing.T) {
	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	perms := &stubPermissionSource{byRole: map[string][]string{"support": {"client.read", "event.write"}}}
	service := newAuthService(t, repo, perms)

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	principal, err := service.Resolve(context.Background(), token.Raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.ID != 1 || principal.Role != "support" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if !principal.Can("client.read") || !principal.Can("event.write") {
		t.Fatal("expected granted permissions")
	}
	if principal.Can("user.manage") {
		t.Fatal("unexpected permission")
	}
}

func TestResolveReflectsRoleChange(t *testing.T) {
	user := seededUser(t, "correct-horse")
	repo := newStubUserRepo(user)
	perms := &stubPermissionSource{byRole: map[string][]string{
		"support": {"client.read"},
		"gestion": {"client.read", "user.manage"},
	}}
	service := newAuthService(t, repo, perms)

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Promote out of band; the unexpired token picks up the new grants on
	// the next resolution because nothing is read from its claims.
	user.Role = "gestion"

	principal, err := service.Resolve(context.Background(), token.Raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !principal.Can("user.manage") {
		t.Fatal("expected promotion to be visible immediately")
	}
}

func TestResolveDeactivatedAccount(t *testing.T) {
	user := seededUser(t, "correct-horse")
	repo := newStubUserRepo(user)
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}})

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user.IsActive = false

	if _, err := service.Resolve(context.Background(), token.Raw); !errors.Is(err, shared.ErrPrincipalRevoked) {
		t.Fatalf("expected ErrPrincipalRevoked, got %v", err)
	}
}

func TestResolveRoleRemoved(t *testing.T) {
	user := seededUser(t, "correct-horse")
	repo := newStubUserRepo(user)
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}})

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user.Role = ""

	if _, err := service.Resolve(context.Background(), token.Raw); !errors.Is(err, shared.ErrPrincipalRevoked) {
		t.Fatalf("expected ErrPrincipalRevoked, got %v", err)
	}
}

func TestResolveAfterLogout(t *testing.T) {
	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}})

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := service.Logout(context.Background(), token.Raw); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := service.Resolve(context.Background(), token.Raw); !errors.Is(err, shared.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("expected session row removed")
	}
}

type integrityFailingPermissionSource struct{}

func (integrityFailingPermissionSource) PermissionsOf(_ context.Context, _ string) ([]string, error) {
	return nil, shared.ErrCatalogIntegrity
}

func TestResolveCatalogIntegrityAborts(t *testing.T) {
	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	codec := auth.NewTokenCodec("service-test-secret", time.Hour)
	service := auth.NewService(repo, auth.NewHasher(4), codec, auth.NewRevocationList(client), integrityFailingPermissionSource{}, nil)

	token, err := service.Login(context.Background(), "bob@test.local", "correct-horse", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	principal, err := service.Resolve(context.Background(), token.Raw)
	if !errors.Is(err, shared.ErrCatalogIntegrity) {
		t.Fatalf("expected catalog integrity error to abort resolution, got %v", err)
	}
	if principal != nil {
		t.Fatal("a broken catalog must never yield a principal")
	}
}

func TestResolveTamperedToken(t *testing.T) {
	repo := newStubUserRepo(seededUser(t, "correct-horse"))
	service := newAuthService(t, repo, &stubPermissionSource{byRole: map[string][]string{"support": {"client.read"}}})

	if _, err := service.Resolve(context.Background(), "not-a-token"); !errors.Is(err, shared.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
