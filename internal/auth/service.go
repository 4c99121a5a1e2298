package auth

import (
	"context"
	"errors"

	"github.com/meridian-crm/meridian-crm/internal/observability"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// PermissionSource yields the permission codes a role grants. Satisfied by
// the rbac catalog.
type PermissionSource interface {
	PermissionsOf(ctx context.Context, roleName string) ([]string, error)
}

// Service wraps authentication and token resolution business rules.
type Service struct {
	repo    Repository
	hasher  *Hasher
	tokens  *TokenCodec
	revoked *RevocationList
	perms   PermissionSource
	metrics *observability.Metrics
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher *Hasher, tokens *TokenCodec, revoked *RevocationList, perms PermissionSource, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens, revoked: revoked, perms: perms, metrics: metrics}
}

// Login validates email/password credentials and mints a session token.
// Unknown identifier, deactivated account and wrong password are
// indistinguishable to the caller, and the unknown-identifier path still pays
// one bcrypt comparison so response timing does not reveal which it was.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (*SessionToken, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.hasher.VerifyDummy(password)
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.hasher.VerifyDummy(password)
		return nil, shared.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSession(ctx, token.JTI, user.ID, token.ExpiresAt, ip, ua); err != nil {
		return nil, err
	}
	return token, nil
}

// Logout denylists the token for its remaining lifetime and drops the session
// record. The bearer string stays technically well formed, so without the
// revocation list logout would only be advisory; with it the token is dead at
// the next resolution.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, claims.JTI)
}

// Resolve validates an incoming token and rebuilds the authorization context.
// The account and its role grants are always re-read from storage, never
// taken from token claims, so a demotion or deactivation lands on the very
// next request even for tokens minted earlier.
func (s *Service) Resolve(ctx context.Context, raw string) (*shared.Principal, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		s.recordValidation("invalid")
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if revoked {
		s.recordValidation("invalid")
		return nil, shared.ErrTokenInvalid
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.recordValidation("revoked")
			return nil, shared.ErrPrincipalRevoked
		}
		return nil, err
	}
	if !user.IsActive || user.Role == "" {
		s.recordValidation("revoked")
		return nil, shared.ErrPrincipalRevoked
	}

	codes, err := s.perms.PermissionsOf(ctx, user.Role)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.recordValidation("revoked")
			return nil, shared.ErrPrincipalRevoked
		}
		return nil, err
	}

	s.recordValidation("success")
	return shared.NewPrincipal(user.ID, user.Email, user.FullName, user.Role, codes), nil
}

// PurgeExpiredSessions removes audit rows for tokens that already expired.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.tokens.now())
}

func (s *Service) recordValidation(result string) {
	if s.metrics != nil {
		s.metrics.RecordAuthValidation(result)
	}
}
