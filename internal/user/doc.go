// Package user holds the user record, the single row keyed by email
// that subscription state reconciles into, and its Postgres store.
package user
