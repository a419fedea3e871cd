package repository

import (
	"context"
	"errors"

	"fundsledger/internal/model"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrOptimisticLock    = errors.New("optimistic lock conflict, retry")
	ErrCheckoutProcessed = errors.New("checkout session already processed")
)

// MutateFunc changes an account in place. Returning an error aborts the update.
type MutateFunc func(account *model.Account) error

// EventFunc builds the outbox message for an account after mutation.
type EventFunc func(account *model.Account) (*model.OutboxMessage, error)

// AccountStore is the ledger store. Update is the only way to change a balance:
// it reads the account, applies the mutation and commits it only if no other
// writer committed in between (ErrOptimisticLock otherwise).
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, subjectID string) (*model.Account, error)
	Update(ctx context.Context, subjectID string, mutate MutateFunc, opts ...UpdateOption) (*model.Account, error)
}

// UpdateOptions are the side writes requested for one Update.
type UpdateOptions struct {
	Checkout *model.ProcessedCheckout
	Event    EventFunc
}

type UpdateOption func(*UpdateOptions)

// WithCheckout records checkout in the same transaction as the update.
// The update fails with ErrCheckoutProcessed if the session was recorded before.
func WithCheckout(checkout *model.ProcessedCheckout) UpdateOption {
	return func(o *UpdateOptions) {
		o.Checkout = checkout
	}
}

// WithEvent stores the message built by fn in the outbox alongside the update.
func WithEvent(fn EventFunc) UpdateOption {
	return func(o *UpdateOptions) {
		o.Event = fn
	}
}

// CollectOptions applies opts for AccountStore implementations.
func CollectOptions(opts []UpdateOption) UpdateOptions {
	var o UpdateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
