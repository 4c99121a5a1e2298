package auth

import "time"

// User is the credential-store view of a collaborator account. Role is the
// assigned role name, empty when the account has none.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionToken is the signed artifact handed to a client after login.
type SessionToken struct {
	Raw       string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenClaims is the verified payload of an incoming token.
type TokenClaims struct {
	UserID    int64
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
