package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/pick3app/pick3/internal/user"
)

// Event is a webhook event decoded at the boundary into one of the
// variants below. Payload shapes are rejected at parse time instead of
// being poked at field by field downstream.
type Event interface {
	// Kind returns the processor's event type name.
	Kind() string
}

// SubscriptionEvent covers the subscription lifecycle events and
// invoice.payment_succeeded: anything keyed by customer that carries a
// subscription status.
type SubscriptionEvent struct {
	EventKind        string
	CustomerID       string
	Status           user.Status
	CurrentPeriodEnd int64  // zero when the payload carries no period
	PriceID          string // empty when the payload carries no price
}

func (e SubscriptionEvent) Kind() string { return e.EventKind }

// CheckoutCompletedEvent is checkout.session.completed. Only the
// customer binding is taken from it; plan and status arrive through the
// subscription events, which avoids racing a checkout completion that
// fires before the subscription object is fully populated.
type CheckoutCompletedEvent struct {
	Email      string
	CustomerID string
}

func (e CheckoutCompletedEvent) Kind() string { return "checkout.session.completed" }

// IgnoredEvent is any event type reconciliation does not act on. The
// webhook route still acknowledges it.
type IgnoredEvent struct {
	EventKind string
}

func (e IgnoredEvent) Kind() string { return e.EventKind }

// WebhookParser verifies webhook signatures and decodes payloads into
// Event variants.
type WebhookParser struct {
	secret string
}

// NewWebhookParser creates a parser for the given signing secret. An
// empty secret makes Parse report ErrWebhookNotConfigured; the route
// treats that as "acknowledge without processing" so a half-configured
// environment never breaks the sender's retry loop.
func NewWebhookParser(secret string) *WebhookParser {
	return &WebhookParser{secret: secret}
}

// Parse verifies the signature header against the raw payload and
// decodes the event.
func (p *WebhookParser) Parse(payload []byte, sigHeader string) (Event, error) {
	if p.secret == "" {
		return nil, ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (Event, error) {
	kind := string(event.Type)

	switch kind {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}

		ev := SubscriptionEvent{
			EventKind: kind,
			Status:    user.Status(sub.Status),
		}
		if sub.Customer != nil {
			ev.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 {
			item := sub.Items.Data[0]
			ev.CurrentPeriodEnd = item.CurrentPeriodEnd
			if item.Price != nil {
				ev.PriceID = item.Price.ID
			}
		}
		return ev, nil

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}

		// Invoices carry no subscription price or period; the paired
		// subscription.updated event fills those in.
		ev := SubscriptionEvent{
			EventKind: kind,
			Status:    user.Status(inv.Status),
		}
		if inv.Customer != nil {
			ev.CustomerID = inv.Customer.ID
		}
		return ev, nil

	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}

		ev := CheckoutCompletedEvent{Email: sess.CustomerEmail}
		if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
			ev.Email = sess.CustomerDetails.Email
		}
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		return ev, nil
	}

	return IgnoredEvent{EventKind: kind}, nil
}
