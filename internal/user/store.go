package user

import "context"

// Update carries the fields an upsert supplies. Nil fields leave the
// stored value untouched; there is deliberately no way to clear a field
// back to null through this path.
type Update struct {
	StripeCustomerID *string
	Plan             *Plan
	Status           *Status
	CurrentPeriodEnd *int64
}

// Store persists user records keyed by email.
type Store interface {
	// Get returns the record for email, or nil when none exists.
	// A miss is not an error.
	Get(ctx context.Context, email string) (*Record, error)

	// Upsert creates the record if absent, otherwise merges the
	// non-nil fields of update into it. Repeated calls with the same
	// email never create duplicates.
	Upsert(ctx context.Context, email string, update Update) error
}
