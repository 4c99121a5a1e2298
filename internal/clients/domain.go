package clients

import "time"

// Client is a customer record. Contact fields (email, phone, company) are
// encrypted at rest by the repository; the domain type always carries
// plaintext.
type Client struct {
	ID             int64
	Email          string
	FullName       string
	Company        string
	Phone          string
	SalesContactID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateInput carries the fields for a new client.
type CreateInput struct {
	Email    string
	FullName string
	Company  string
	Phone    string
}

// UpdateInput carries optional updates; nil fields are left untouched.
type UpdateInput struct {
	Email    *string
	FullName *string
	Company  *string
	Phone    *string
}
