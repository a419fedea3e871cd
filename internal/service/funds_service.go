package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"fundsledger/internal/model"
	"fundsledger/internal/repository"
	"fundsledger/pkg/apperror"
	"fundsledger/pkg/idgen"

	"github.com/shopspring/decimal"
)

// FundsService owns every balance change. Deduct is user initiated; Credit is
// reserved for verified payment completions.
type FundsService struct {
	store      repository.AccountStore
	logger     *slog.Logger
	topic      string
	maxRetries int
}

func NewFundsService(store repository.AccountStore, logger *slog.Logger, topic string, maxRetries int) *FundsService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FundsService{
		store:      store,
		logger:     logger,
		topic:      topic,
		maxRetries: maxRetries,
	}
}

// ValidateAmount accepts positive amounts with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.New(apperror.InvalidArgument, "Invalid or missing amount")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperror.New(apperror.InvalidArgument, "Amount supports at most two decimal places")
	}
	return nil
}

func (s *FundsService) GetBalance(ctx context.Context, subjectID string) (decimal.Decimal, error) {
	account, err := s.store.Get(ctx, subjectID)
	if err != nil {
		return decimal.Zero, translateStoreError(err)
	}
	return account.Balance, nil
}

// Deduct removes amount from the balance, or fails with InsufficientFunds
// without changing anything.
func (s *FundsService) Deduct(ctx context.Context, subjectID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	account, err := s.update(ctx, subjectID, func(a *model.Account) error {
		if a.Balance.LessThan(amount) {
			return apperror.New(apperror.InsufficientFunds, "Insufficient funds")
		}
		a.Balance = a.Balance.Sub(amount)
		return nil
	}, repository.WithEvent(s.event(model.BalanceEventDebit, amount, "")))
	if err != nil {
		s.logger.WarnContext(ctx, "funds deduct failed",
			slog.String("subject_id", subjectID),
			slog.String("amount", amount.String()),
			slog.String("error", err.Error()))
		return decimal.Zero, err
	}

	s.logger.InfoContext(ctx, "funds deducted",
		slog.String("subject_id", subjectID),
		slog.String("amount", amount.String()),
		slog.String("balance", account.Balance.String()))
	return account.Balance, nil
}

// Credit adds amount for a completed checkout session. It never creates an
// account. A non-empty sessionID is recorded so the same session cannot be
// credited twice; a repeat fails with Conflict wrapping ErrCheckoutProcessed.
func (s *FundsService) Credit(ctx context.Context, subjectID string, amount decimal.Decimal, sessionID string) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	opts := []repository.UpdateOption{repository.WithEvent(s.event(model.BalanceEventCredit, amount, sessionID))}
	if sessionID != "" {
		opts = append(opts, repository.WithCheckout(&model.ProcessedCheckout{
			SessionID: sessionID,
			SubjectID: subjectID,
			Amount:    amount,
		}))
	}

	account, err := s.update(ctx, subjectID, func(a *model.Account) error {
		a.Balance = a.Balance.Add(amount)
		return nil
	}, opts...)
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.InfoContext(ctx, "funds credited",
		slog.String("subject_id", subjectID),
		slog.String("amount", amount.String()),
		slog.String("session_id", sessionID),
		slog.String("balance", account.Balance.String()))
	return account.Balance, nil
}

// update retries the whole read-check-write when another writer won the race.
func (s *FundsService) update(ctx context.Context, subjectID string, mutate repository.MutateFunc, opts ...repository.UpdateOption) (*model.Account, error) {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		var account *model.Account
		account, err = s.store.Update(ctx, subjectID, mutate, opts...)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, translateStoreError(err)
		}
		s.logger.DebugContext(ctx, "ledger update conflict",
			slog.String("subject_id", subjectID),
			slog.Int("attempt", attempt))
	}
	return nil, translateStoreError(err)
}

func (s *FundsService) event(kind string, amount decimal.Decimal, sessionID string) repository.EventFunc {
	return func(a *model.Account) (*model.OutboxMessage, error) {
		eventNo := idgen.GenerateEventNo()
		payload, err := json.Marshal(model.BalanceEvent{
			EventNo:   eventNo,
			SubjectID: a.SubjectID,
			Kind:      kind,
			Amount:    amount,
			Balance:   a.Balance,
			SessionID: sessionID,
			At:        a.LastUpdated.UTC().Truncate(time.Millisecond),
		})
		if err != nil {
			return nil, err
		}
		return &model.OutboxMessage{
			EventNo:   eventNo,
			SubjectID: a.SubjectID,
			Kind:      kind,
			Topic:     s.topic,
			Payload:   string(payload),
			Status:    model.OutboxStatusPending,
		}, nil
	}
}

func translateStoreError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrAccountNotFound):
		return apperror.Wrap(apperror.NotFound, "User not found", err)
	case errors.Is(err, repository.ErrAccountExists):
		return apperror.Wrap(apperror.Conflict, "User already registered", err)
	case errors.Is(err, repository.ErrCheckoutProcessed):
		return apperror.Wrap(apperror.Conflict, "Checkout session already processed", err)
	case errors.Is(err, repository.ErrOptimisticLock):
		return apperror.Wrap(apperror.Conflict, "Account is busy, please retry", err)
	default:
		return apperror.Wrap(apperror.Internal, "Ledger store error", err)
	}
}
