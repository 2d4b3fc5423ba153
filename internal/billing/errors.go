package billing

import "errors"

var (
	ErrInvalidPlan          = errors.New("plan is not mapped to a configured price")
	ErrGateway              = errors.New("payment gateway request failed")
	ErrNoCustomer           = errors.New("user has no payment customer id")
	ErrInvalidSignature     = errors.New("webhook signature verification failed")
	ErrWebhookNotConfigured = errors.New("webhook signing secret is not configured")
)
