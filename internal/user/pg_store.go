package user

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pick3app/pick3/pkg/pg"
)

// PGStore implements Store on a Postgres users table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, email string) (*Record, error) {
	email = NormalizeEmail(email)

	var (
		rec    Record
		plan   *string
		status *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT email, stripe_customer_id, plan, status, current_period_end
		  FROM users
		 WHERE email = $1
	`, email).Scan(&rec.Email, &rec.StripeCustomerID, &plan, &status, &rec.CurrentPeriodEnd)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %q: %w", email, err)
	}

	if plan != nil {
		p := Plan(*plan)
		rec.Plan = &p
	}
	if status != nil {
		st := Status(*status)
		rec.Status = &st
	}

	return &rec, nil
}

// Upsert merges the update into the row for email inside one atomic
// statement. COALESCE on the conflict branch gives the partial-update
// semantics: a nil field never clobbers a stored value.
func (s *PGStore) Upsert(ctx context.Context, email string, update Update) error {
	email = NormalizeEmail(email)

	var plan, status *string
	if update.Plan != nil {
		v := string(*update.Plan)
		plan = &v
	}
	if update.Status != nil {
		v := string(*update.Status)
		status = &v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (email, stripe_customer_id, plan, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, users.stripe_customer_id),
			plan               = COALESCE(EXCLUDED.plan, users.plan),
			status             = COALESCE(EXCLUDED.status, users.status),
			current_period_end = COALESCE(EXCLUDED.current_period_end, users.current_period_end)
	`, email, update.StripeCustomerID, plan, status, update.CurrentPeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert user %q: %w", email, err)
	}

	return nil
}
