package events

import (
	"errors"
	"time"
)

// ErrContractNotSigned rejects attaching an event to an unsigned contract.
var ErrContractNotSigned = errors.New("events: contract not signed")

// Event is a scheduled engagement attached to a signed contract.
type Event struct {
	ID               int64
	ContractID       int64
	SupportContactID *int64
	EventDate        *time.Time
	Location         string
	Attendees        int
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ContractInfo is the slice of contract state the event rules need.
type ContractInfo struct {
	ID             int64
	Status         string
	SalesContactID *int64
}

// CreateInput carries the fields for a new event.
type CreateInput struct {
	ContractID int64
	EventDate  *time.Time
	Location   string
	Attendees  int
	Notes      string
}

// UpdateInput carries optional updates; nil fields are left untouched.
type UpdateInput struct {
	EventDate *time.Time
	Location  *string
	Attendees *int
	Notes     *string
}
