package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	portalsession "github.com/stripe/stripe-go/v84/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/subscription"

	"github.com/pick3app/pick3/internal/config"
	"github.com/pick3app/pick3/internal/user"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	prices          PriceTable
	baseURL         string
	portalReturnURL string
}

// NewStripeGateway configures the Stripe SDK and returns the gateway.
// The SDK key is process-wide; construct the gateway once at startup.
func NewStripeGateway(cfg config.Stripe, prices PriceTable, baseURL string) *StripeGateway {
	stripe.Key = cfg.SecretKey

	returnURL := cfg.PortalReturnURL
	if returnURL == "" {
		returnURL = baseURL + "/account"
	}

	return &StripeGateway{
		prices:          prices,
		baseURL:         baseURL,
		portalReturnURL: returnURL,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, plan user.Plan) (string, error) {
	priceID, ok := g.prices.PriceFor(plan)
	if !ok {
		return "", ErrInvalidPlan
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.baseURL + "/cancel"),
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", errors.Join(ErrGateway, err)
	}

	return sess.ID, nil
}

func (g *StripeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer")
	params.AddExpand("subscription")

	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve checkout session: %w", ErrGateway, err)
	}

	result := &CheckoutResult{Email: sess.CustomerEmail}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		result.Email = sess.CustomerDetails.Email
	}
	if sess.Customer != nil {
		result.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		result.SubscriptionID = sess.Subscription.ID
	}

	return result, nil
}

func (g *StripeGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price")

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve subscription: %w", ErrGateway, err)
	}

	return subscriptionInfo(sub), nil
}

func (g *StripeGateway) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := customer.Get(customerID, params)
	if err != nil {
		return "", fmt.Errorf("%w: retrieve customer: %w", ErrGateway, err)
	}

	return cust.Email, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", ErrNoCustomer
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.portalReturnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", errors.Join(ErrGateway, err)
	}

	return sess.URL, nil
}

// subscriptionInfo flattens a Stripe subscription to the fields the
// reconciler consumes. The billing period and price live on the first
// subscription item.
func subscriptionInfo(sub *stripe.Subscription) *SubscriptionInfo {
	info := &SubscriptionInfo{Status: user.Status(sub.Status)}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		info.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			info.PriceID = item.Price.ID
		}
	}

	return info
}
