package billing

import (
	"github.com/pick3app/pick3/internal/config"
	"github.com/pick3app/pick3/internal/user"
)

// PriceTable maps the configured processor price IDs onto plans.
type PriceTable struct {
	free       string
	vipMonthly string
	vipYearly  string
}

// NewPriceTable builds the table from the Stripe configuration.
func NewPriceTable(cfg config.Stripe) PriceTable {
	return PriceTable{
		free:       cfg.PriceIDFree,
		vipMonthly: cfg.PriceIDVIPMonthly,
		vipYearly:  cfg.PriceIDVIPYearly,
	}
}

// PlanFor resolves a price ID to a plan, checking free, vip_monthly,
// vip_yearly in that order. Unknown or empty price IDs resolve to
// nothing; empty configured prices never match.
func (t PriceTable) PlanFor(priceID string) (user.Plan, bool) {
	if priceID == "" {
		return user.PlanNone, false
	}
	switch priceID {
	case t.free:
		return user.PlanFree, true
	case t.vipMonthly:
		return user.PlanVIPMonthly, true
	case t.vipYearly:
		return user.PlanVIPYearly, true
	}
	return user.PlanNone, false
}

// PriceFor resolves a plan to its configured price ID.
func (t PriceTable) PriceFor(plan user.Plan) (string, bool) {
	var id string
	switch plan {
	case user.PlanFree:
		id = t.free
	case user.PlanVIPMonthly:
		id = t.vipMonthly
	case user.PlanVIPYearly:
		id = t.vipYearly
	}
	return id, id != ""
}
