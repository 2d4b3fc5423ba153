package user

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory. It backs tests and
// local development without Postgres; the merge rules match the SQL
// COALESCE upsert exactly.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(_ context.Context, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}

	return cloneRecord(rec), nil
}

func cloneRecord(rec *Record) *Record {
	clone := &Record{Email: rec.Email}
	if rec.StripeCustomerID != nil {
		v := *rec.StripeCustomerID
		clone.StripeCustomerID = &v
	}
	if rec.Plan != nil {
		v := *rec.Plan
		clone.Plan = &v
	}
	if rec.Status != nil {
		v := *rec.Status
		clone.Status = &v
	}
	if rec.CurrentPeriodEnd != nil {
		v := *rec.CurrentPeriodEnd
		clone.CurrentPeriodEnd = &v
	}
	return clone
}

func (s *MemoryStore) Upsert(_ context.Context, email string, update Update) error {
	email = NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		rec = &Record{Email: email}
		s.records[email] = rec
	}

	if update.StripeCustomerID != nil {
		v := *update.StripeCustomerID
		rec.StripeCustomerID = &v
	}
	if update.Plan != nil {
		v := *update.Plan
		rec.Plan = &v
	}
	if update.Status != nil {
		v := *update.Status
		rec.Status = &v
	}
	if update.CurrentPeriodEnd != nil {
		v := *update.CurrentPeriodEnd
		rec.CurrentPeriodEnd = &v
	}

	return nil
}
