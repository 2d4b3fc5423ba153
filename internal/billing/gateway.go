package billing

import (
	"context"

	"github.com/pick3app/pick3/internal/user"
)

// CheckoutResult is the slice of a completed checkout session the
// reconciler needs.
type CheckoutResult struct {
	Email          string // billing email collected during checkout, may be empty
	CustomerID     string
	SubscriptionID string // empty when the checkout created no subscription
}

// SubscriptionInfo is the live subscription state pulled from the
// processor.
type SubscriptionInfo struct {
	Status           user.Status
	CurrentPeriodEnd int64 // epoch seconds, zero when unknown
	PriceID          string
}

// Gateway abstracts the payment processor. Every call is a synchronous
// remote request; failures are wrapped with ErrGateway.
type Gateway interface {
	// CreateCheckoutSession starts a hosted checkout for the plan and
	// returns the session ID. Unmapped plans report ErrInvalidPlan.
	CreateCheckoutSession(ctx context.Context, plan user.Plan) (string, error)

	// RetrieveCheckoutSession loads a checkout session by ID.
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutResult, error)

	// RetrieveSubscription loads live subscription state by ID.
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error)

	// CustomerEmail resolves a processor customer ID to its email,
	// which may be empty.
	CustomerEmail(ctx context.Context, customerID string) (string, error)

	// CreatePortalSession returns a billing-portal URL for the
	// customer. ErrNoCustomer when customerID is empty.
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}
