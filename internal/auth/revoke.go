package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is the redis-backed denylist consulted during resolution.
// Logout writes the token JTI here with a TTL equal to the remaining token
// lifetime, which makes logout effective before the token expires on its own.
type RevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationList constructs a RevocationList.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

// Revoke denylists a JTI until the token's natural expiry. The entry lives
// maxClockSkew longer than the token because Parse grants that much leeway
// past expiry; without the extension a logout inside the leeway window would
// leave the token resolvable until the window closes.
func (l *RevocationList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if l.now != nil {
		remaining = expiresAt.Sub(l.now())
	}
	ttl := remaining + maxClockSkew
	if ttl <= 0 {
		// Past the leeway window, no parser will accept the token.
		return nil
	}
	return l.client.Set(ctx, revocationKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether a JTI has been denylisted.
func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := l.client.Get(ctx, revocationKey(jti)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func revocationKey(jti string) string {
	return "revoked:" + jti
}
