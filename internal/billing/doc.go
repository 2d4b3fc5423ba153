// Package billing wraps the payment processor and owns subscription
// state reconciliation: the mapping from completed checkouts and
// webhook events onto the persisted user record.
package billing
