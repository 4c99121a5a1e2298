package contracts

import "time"

// Contract status values.
const (
	StatusPending  = "pending"
	StatusSigned   = "signed"
	StatusCanceled = "canceled"
)

// Contract is an agreement proposed to or signed with a client.
type Contract struct {
	ID             int64
	ClientID       int64
	SalesContactID *int64
	TotalAmount    float64
	AmountDue      float64
	Status         string
	SignedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateInput carries the fields for a new contract.
type CreateInput struct {
	ClientID    int64
	TotalAmount float64
	AmountDue   float64
}

// UpdateInput carries optional updates; nil fields are left untouched.
type UpdateInput struct {
	TotalAmount *float64
	AmountDue   *float64
}

// IsSigned reports whether the contract has been signed.
func (c *Contract) IsSigned() bool {
	return c.Status == StatusSigned
}
