// Package ledger holds the authoritative per-identity consumption state. The
// in-memory implementation is private to one process; a restart clears every
// record, which is an accepted property of the deployment, not a bug.
package ledger

import (
	"sync"
	"time"

	"lina-server/internal/domain"
)

// Store is the injectable ledger contract. ConsumeOne combines the admission
// check and the counter increment in one atomic step so that concurrent
// requests for the same identity can never over-consume the trial quota.
type Store interface {
	Get(identity string) (domain.UserRecord, bool)
	Ensure(identity, email string) domain.UserRecord
	ConsumeOne(identity string) (rec domain.UserRecord, metered bool, err error)
	Refund(identity string)
	ActivateSubscription(identity string, d time.Duration) (domain.UserRecord, error)
}

// MemoryStore is the process-lifetime Store implementation.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[string]*domain.UserRecord
	freeQuota int
	now       func() time.Time
}

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the store's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore builds an empty store. freeQuota is the trial ceiling applied
// to every new record.
func NewMemoryStore(freeQuota int, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:     make(map[string]*domain.UserRecord),
		freeQuota: freeQuota,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the record for identity, if any.
func (s *MemoryStore) Get(identity string) (domain.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[identity]
	if !ok {
		return domain.UserRecord{}, false
	}
	return *rec, true
}

// Ensure returns the existing record for identity or creates a zeroed one.
// Re-registering never resets counters.
func (s *MemoryStore) Ensure(identity, email string) domain.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.users[identity]; ok {
		return *rec
	}
	rec := &domain.UserRecord{
		Identity:  identity,
		Email:     email,
		FreeQuota: s.freeQuota,
		CreatedAt: s.now(),
	}
	s.users[identity] = rec
	return *rec
}

// ConsumeOne admits one request for identity. Subscribed users pass unmetered;
// trial users have their counter incremented, reserving the slot, within the
// same lock that performed the check. Callers must Refund the reservation if
// the downstream call ultimately fails.
func (s *MemoryStore) ConsumeOne(identity string) (domain.UserRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[identity]
	if !ok {
		return domain.UserRecord{}, false, domain.ErrNotFound
	}
	if rec.Subscribed(s.now()) {
		return *rec, false, nil
	}
	if rec.UsedCount >= rec.FreeQuota {
		return *rec, false, domain.ErrQuotaExhausted
	}
	rec.UsedCount++
	return *rec, true, nil
}

// Refund releases one previously reserved trial slot. It never drops the
// counter below zero and is a no-op for unknown identities.
func (s *MemoryStore) Refund(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[identity]
	if !ok {
		return
	}
	if rec.UsedCount > 0 {
		rec.UsedCount--
	}
}

// ActivateSubscription grants or extends a subscription by d. The historical
// used count is kept; it simply stops mattering while the subscription is
// active.
func (s *MemoryStore) ActivateSubscription(identity string, d time.Duration) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[identity]
	if !ok {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	base := s.now()
	if rec.SubscriptionExpiry.After(base) {
		base = rec.SubscriptionExpiry
	}
	rec.SubscriptionExpiry = base.Add(d)
	return *rec, nil
}

var _ Store = (*MemoryStore)(nil)
