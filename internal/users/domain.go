package users

import "time"

// User is a collaborator account. Accounts are only ever soft-deactivated so
// historical records keep resolvable authors.
type User struct {
	ID             int64
	Email          string
	FullName       string
	EmployeeNumber string
	PasswordHash   string
	RoleID         *int64
	RoleName       string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateInput carries the fields for a new collaborator.
type CreateInput struct {
	Email          string
	FullName       string
	EmployeeNumber string
	Password       string
	RoleName       string
}
