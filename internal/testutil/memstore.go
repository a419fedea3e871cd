package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fundsledger/internal/model"
	"fundsledger/internal/repository"
)

var _ repository.AccountStore = (*MemoryStore)(nil)

// MemoryStore is an in-process repository.AccountStore for package tests. A
// single mutex stands in for the database's per-row serialization.
type MemoryStore struct {
	mu        sync.Mutex
	accounts  map[string]model.Account
	checkouts map[string]model.ProcessedCheckout
	outbox    []model.OutboxMessage

	calls     atomic.Int64
	conflicts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]model.Account),
		checkouts: make(map[string]model.ProcessedCheckout),
	}
}

func (s *MemoryStore) Create(_ context.Context, account *model.Account) error {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.SubjectID]; ok {
		return repository.ErrAccountExists
	}
	if account.LastUpdated.IsZero() {
		account.LastUpdated = time.Now()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	s.accounts[account.SubjectID] = *account
	return nil
}

func (s *MemoryStore) Get(_ context.Context, subjectID string) (*model.Account, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[subjectID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &account, nil
}

func (s *MemoryStore) Update(_ context.Context, subjectID string, mutate repository.MutateFunc, opts ...repository.UpdateOption) (*model.Account, error) {
	s.calls.Add(1)
	o := repository.CollectOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts > 0 {
		s.conflicts--
		return nil, repository.ErrOptimisticLock
	}
	if o.Checkout != nil {
		if _, ok := s.checkouts[o.Checkout.SessionID]; ok {
			return nil, repository.ErrCheckoutProcessed
		}
	}

	current, ok := s.accounts[subjectID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	account := current
	if err := mutate(&account); err != nil {
		return nil, err
	}
	account.Version = current.Version + 1
	account.LastUpdated = time.Now()

	var msg *model.OutboxMessage
	if o.Event != nil {
		var err error
		if msg, err = o.Event(&account); err != nil {
			return nil, err
		}
	}

	s.accounts[subjectID] = account
	if o.Checkout != nil {
		checkout := *o.Checkout
		checkout.ProcessedAt = account.LastUpdated
		s.checkouts[checkout.SessionID] = checkout
	}
	if msg != nil {
		s.outbox = append(s.outbox, *msg)
	}
	return &account, nil
}

// InjectConflicts makes the next n updates fail with repository.ErrOptimisticLock.
func (s *MemoryStore) InjectConflicts(n int) {
	s.mu.Lock()
	s.conflicts = n
	s.mu.Unlock()
}

// Calls returns how many store operations were invoked.
func (s *MemoryStore) Calls() int64 {
	return s.calls.Load()
}

func (s *MemoryStore) Outbox() []model.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OutboxMessage(nil), s.outbox...)
}

func (s *MemoryStore) Checkouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checkouts)
}
