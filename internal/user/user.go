package user

import "strings"

// Plan is the subscription tier a user is on.
type Plan string

const (
	PlanNone       Plan = ""
	PlanFree       Plan = "free"
	PlanVIPMonthly Plan = "vip_monthly"
	PlanVIPYearly  Plan = "vip_yearly"
)

// IsVIP reports whether the plan grants VIP features when paired with
// an entitled status.
func (p Plan) IsVIP() bool {
	return p == PlanVIPMonthly || p == PlanVIPYearly
}

// Status mirrors the payment processor's subscription status verbatim
// (active, trialing, canceled, incomplete, past_due, ...).
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusCanceled Status = "canceled"
)

// Record is the persisted state for one email address.
type Record struct {
	Email            string
	StripeCustomerID *string
	Plan             *Plan
	Status           *Status
	CurrentPeriodEnd *int64 // epoch seconds
}

// IsVIP reports whether the record is entitled to VIP access: a VIP
// plan in an active or trialing subscription. A canceled or past_due
// VIP record is not entitled.
func (r *Record) IsVIP() bool {
	if r == nil || r.Plan == nil || r.Status == nil {
		return false
	}
	if *r.Status != StatusActive && *r.Status != StatusTrialing {
		return false
	}
	return r.Plan.IsVIP()
}

// NormalizeEmail lowercases and trims an email address. Every path that
// keys the store goes through this so lookups and upserts agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
