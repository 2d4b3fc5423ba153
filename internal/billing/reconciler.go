package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/logger"
)

// Reconciler translates checkout results and webhook events into user
// record updates. It is idempotent under event replays: applying the
// same input twice produces the same stored state.
type Reconciler struct {
	store   user.Store
	gateway Gateway
	prices  PriceTable
	log     *slog.Logger
}

// NewReconciler wires the reconciliation rules to their collaborators.
// A nil logger is replaced with a discard logger.
func NewReconciler(store user.Store, gateway Gateway, prices PriceTable, log *slog.Logger) *Reconciler {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Reconciler{store: store, gateway: gateway, prices: prices, log: log}
}

// ApplyCheckoutSession pulls the completed checkout session, derives
// the full plan/status tuple, and persists it. It returns the billing
// email so the caller can establish the browser session; the email is
// empty when the session carried none, in which case nothing persists.
//
// Unlike the webhook path, checkout completion always resolves a plan:
// a session whose price matches no configured VIP price is a free
// signup.
func (r *Reconciler) ApplyCheckoutSession(ctx context.Context, sessionID string) (string, error) {
	result, err := r.gateway.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	plan := user.PlanFree
	status := user.StatusActive
	var periodEnd *int64

	if result.SubscriptionID != "" {
		info, err := r.gateway.RetrieveSubscription(ctx, result.SubscriptionID)
		if err != nil {
			return "", err
		}

		if info.Status != "" {
			status = info.Status
		}
		if info.CurrentPeriodEnd > 0 {
			periodEnd = &info.CurrentPeriodEnd
		}
		if p, ok := r.prices.PlanFor(info.PriceID); ok {
			plan = p
		}
	}

	if result.Email == "" {
		r.log.WarnContext(ctx, "checkout session has no email, skipping persistence",
			logger.Component("reconciler"))
		return "", nil
	}

	update := user.Update{Plan: &plan, Status: &status, CurrentPeriodEnd: periodEnd}
	if result.CustomerID != "" {
		update.StripeCustomerID = &result.CustomerID
	}

	if err := r.store.Upsert(ctx, result.Email, update); err != nil {
		return "", fmt.Errorf("persist checkout result: %w", err)
	}

	r.log.InfoContext(ctx, "checkout session reconciled",
		logger.Email(result.Email),
		slog.String("plan", string(plan)),
		slog.String("status", string(status)),
		logger.Component("reconciler"),
	)

	return result.Email, nil
}

// ApplyEvent applies one webhook event. Events the system cannot key to
// an email are acknowledged without persistence: email is the sole
// identity, and rejecting such events would only make the sender retry
// something that can never succeed.
func (r *Reconciler) ApplyEvent(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case SubscriptionEvent:
		return r.applySubscriptionEvent(ctx, e)
	case CheckoutCompletedEvent:
		return r.applyCheckoutCompleted(ctx, e)
	default:
		r.log.DebugContext(ctx, "webhook event ignored",
			logger.EventType(ev.Kind()), logger.Component("reconciler"))
		return nil
	}
}

func (r *Reconciler) applySubscriptionEvent(ctx context.Context, ev SubscriptionEvent) error {
	if ev.CustomerID == "" {
		r.log.WarnContext(ctx, "subscription event without customer, acknowledged",
			logger.EventType(ev.EventKind), logger.Component("reconciler"))
		return nil
	}

	email, err := r.gateway.CustomerEmail(ctx, ev.CustomerID)
	if err != nil || email == "" {
		// No email means no row to key. Acknowledge and move on.
		r.log.WarnContext(ctx, "could not resolve customer email, event acknowledged",
			logger.EventType(ev.EventKind), logger.Error(err), logger.Component("reconciler"))
		return nil
	}

	update := user.Update{StripeCustomerID: &ev.CustomerID}
	if ev.Status != "" {
		update.Status = &ev.Status
	}
	if ev.CurrentPeriodEnd > 0 {
		update.CurrentPeriodEnd = &ev.CurrentPeriodEnd
	}
	// A plan is only written when the event's price maps to a
	// configured plan. Events without a resolvable price (e.g. a
	// deletion with no items) must not downgrade an existing VIP.
	if plan, ok := r.prices.PlanFor(ev.PriceID); ok {
		update.Plan = &plan
	}

	if err := r.store.Upsert(ctx, email, update); err != nil {
		return fmt.Errorf("persist subscription event: %w", err)
	}

	r.log.InfoContext(ctx, "subscription event reconciled",
		logger.Email(email),
		logger.EventType(ev.EventKind),
		slog.String("status", string(ev.Status)),
		logger.Component("reconciler"),
	)

	return nil
}

func (r *Reconciler) applyCheckoutCompleted(ctx context.Context, ev CheckoutCompletedEvent) error {
	if ev.Email == "" {
		r.log.WarnContext(ctx, "checkout completion without email, acknowledged",
			logger.Component("reconciler"))
		return nil
	}

	// Bind the customer only. Plan and status are left to the
	// subscription events so a checkout completion that races the
	// subscription object cannot write stale state.
	update := user.Update{}
	if ev.CustomerID != "" {
		update.StripeCustomerID = &ev.CustomerID
	}

	if err := r.store.Upsert(ctx, ev.Email, update); err != nil {
		return fmt.Errorf("persist checkout completion: %w", err)
	}

	return nil
}
