// Package handler wires the HTTP surface of the app: public pages,
// magic-link authentication, checkout and billing-portal redirects,
// the Stripe webhook endpoint, and the VIP-gated API.
//
// Routes are mounted on a chi router via Handler.Routes. Session state
// is a signed cookie carrying the user's email; entitlement checks load
// the user record on every request rather than trusting the cookie.
package handler
