package repository

import (
	"context"
	"errors"
	"time"

	"fundsledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	if account.LastUpdated.IsZero() {
		account.LastUpdated = time.Now()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountExists
	}
	return nil
}

func (r *AccountRepository) Get(ctx context.Context, subjectID string) (*model.Account, error) {
	return r.get(ctx, r.db, subjectID)
}

func (r *AccountRepository) get(ctx context.Context, tx *gorm.DB, subjectID string) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).Where("subject_id = ?", subjectID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Update applies mutate inside a transaction and writes the result with a
// version compare-and-swap, so concurrent writers to one account serialize.
func (r *AccountRepository) Update(ctx context.Context, subjectID string, mutate MutateFunc, opts ...UpdateOption) (*model.Account, error) {
	o := CollectOptions(opts)

	var updated *model.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if o.Checkout != nil {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(o.Checkout)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrCheckoutProcessed
			}
		}

		account, err := r.get(ctx, tx, subjectID)
		if err != nil {
			return err
		}

		version := account.Version
		if err := mutate(account); err != nil {
			return err
		}
		account.Version = version + 1
		account.LastUpdated = time.Now()

		result := tx.Model(&model.Account{}).
			Where("subject_id = ? AND version = ?", subjectID, version).
			Updates(map[string]interface{}{
				"balance":      account.Balance,
				"version":      account.Version,
				"last_updated": account.LastUpdated,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		if o.Event != nil {
			msg, err := o.Event(account)
			if err != nil {
				return err
			}
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}

		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
