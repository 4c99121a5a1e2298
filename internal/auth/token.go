package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meridian-crm/meridian-crm/internal/shared"
)

const maxClockSkew = 30 * time.Second

// TokenCodec mints and verifies the signed session tokens. Tokens are HS256
// JWTs carrying subject, issued-at, expiry and a unique JTI; they are opaque
// to callers and not persisted server side.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a codec bound to the server signing key.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint issues a fresh token for the given user.
func (c *TokenCodec) Mint(userID int64) (*SessionToken, error) {
	now := c.now().UTC()
	expires := now.Add(c.ttl)
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        jti,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, err
	}
	return &SessionToken{Raw: raw, JTI: jti, IssuedAt: now, ExpiresAt: expires}, nil
}

// Parse verifies signature and expiry. Both failure modes collapse into
// shared.ErrTokenInvalid so responses never reveal which check failed.
// Only HS256 is accepted; an attacker-chosen alg header is rejected.
func (c *TokenCodec) Parse(raw string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(maxClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil || !token.Valid {
		return nil, shared.ErrTokenInvalid
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, shared.ErrTokenInvalid
	}
	parsed := &TokenClaims{UserID: userID, JTI: claims.ID}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}
