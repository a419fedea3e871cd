package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fundsledger/internal/gateway/payment"
	"fundsledger/internal/repository"
	"fundsledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// CheckoutState is the outcome of one completion notification.
type CheckoutState string

const (
	CheckoutPending   CheckoutState = "PENDING"
	CheckoutCompleted CheckoutState = "COMPLETED"
	CheckoutFailed    CheckoutState = "FAILED"
	// CheckoutIgnored covers verified events that carry nothing to credit.
	CheckoutIgnored CheckoutState = "IGNORED"
	// CheckoutDuplicate is a redelivery of an already credited session.
	CheckoutDuplicate CheckoutState = "DUPLICATE"
)

type CheckoutOutcome struct {
	State     CheckoutState
	EventID   string
	SessionID string
	SubjectID string
	Amount    decimal.Decimal
	Balance   decimal.Decimal
}

// CheckoutService starts checkout sessions and consumes their completion
// notifications, turning verified completions into credits.
type CheckoutService struct {
	gateway   payment.Gateway
	funds     *FundsService
	logger    *slog.Logger
	minAmount int
}

func NewCheckoutService(gateway payment.Gateway, funds *FundsService, logger *slog.Logger, minAmount int) *CheckoutService {
	return &CheckoutService{gateway: gateway, funds: funds, logger: logger, minAmount: minAmount}
}

// OnCheckoutCompleted verifies the notification before anything else. Subject
// and amount are read only from the metadata this service attached when it
// created the session. A returned error means no credit was applied.
func (c *CheckoutService) OnCheckoutCompleted(ctx context.Context, payload []byte, signature string) (*CheckoutOutcome, error) {
	outcome := &CheckoutOutcome{State: CheckoutPending}

	notification, err := c.gateway.VerifyNotification(payload, signature)
	if err != nil {
		outcome.State = CheckoutFailed
		c.logger.WarnContext(ctx, "payment notification rejected", slog.String("error", err.Error()))
		if apperror.KindOf(err) == apperror.Internal {
			err = apperror.Wrap(apperror.Unauthenticated, "invalid notification signature", err)
		}
		return outcome, err
	}
	outcome.EventID = notification.EventID
	outcome.SessionID = notification.SessionID

	if !notification.CheckoutCompleted() {
		outcome.State = CheckoutIgnored
		return outcome, nil
	}

	subjectID := notification.Metadata[payment.MetadataSubjectID]
	amount, err := decimal.NewFromString(notification.Metadata[payment.MetadataAmount])
	if subjectID == "" || err != nil || !amount.IsPositive() {
		outcome.State = CheckoutIgnored
		c.logger.WarnContext(ctx, "checkout completed without usable metadata",
			slog.String("session_id", notification.SessionID),
			slog.Any("metadata", notification.Metadata))
		return outcome, nil
	}
	outcome.SubjectID = subjectID
	outcome.Amount = amount

	balance, err := c.funds.Credit(ctx, subjectID, amount, notification.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCheckoutProcessed) {
			outcome.State = CheckoutDuplicate
			c.logger.InfoContext(ctx, "checkout already credited",
				slog.String("session_id", notification.SessionID),
				slog.String("subject_id", subjectID))
			return outcome, nil
		}
		// The payment has settled upstream; only manual reconciliation fixes this.
		outcome.State = CheckoutFailed
		c.logger.ErrorContext(ctx, "funds update via webhook failed, reconciliation required",
			slog.String("event_id", notification.EventID),
			slog.String("session_id", notification.SessionID),
			slog.String("subject_id", subjectID),
			slog.String("amount", amount.String()),
			slog.String("error", err.Error()))
		return outcome, err
	}

	outcome.State = CheckoutCompleted
	outcome.Balance = balance
	return outcome, nil
}

// CreateCheckout starts a payment of whole currency units, at least the
// configured minimum, on behalf of subjectID.
func (c *CheckoutService) CreateCheckout(ctx context.Context, subjectID string, amount decimal.Decimal) (*payment.Checkout, error) {
	if amount.LessThan(decimal.NewFromInt(int64(c.minAmount))) || !amount.IsInteger() {
		return nil, apperror.New(apperror.InvalidArgument, fmt.Sprintf("Invalid amount. Minimum is $%d.", c.minAmount))
	}

	checkout, err := c.gateway.CreateCheckout(ctx, payment.CheckoutRequest{SubjectID: subjectID, Amount: amount})
	if err != nil {
		c.logger.ErrorContext(ctx, "checkout creation failed",
			slog.String("subject_id", subjectID),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.InfoContext(ctx, "checkout created",
		slog.String("subject_id", subjectID),
		slog.String("session_id", checkout.SessionID),
		slog.String("amount", amount.String()))
	return checkout, nil
}
