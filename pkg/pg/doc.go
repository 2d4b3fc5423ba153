// Package pg wires the pgx connection pool: pooled connect with retry,
// goose schema migrations, readiness probe, and error classification
// helpers shared by the storage layer.
package pg
