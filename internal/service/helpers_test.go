package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"fundsledger/internal/gateway/email"
	"fundsledger/internal/gateway/identity"
	"fundsledger/internal/gateway/payment"
	"fundsledger/internal/model"
	"fundsledger/internal/repository"
	"fundsledger/internal/testutil"

	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFunds(t *testing.T, balances map[string]string) (*FundsService, *testutil.MemoryStore) {
	t.Helper()
	store := testutil.NewMemoryStore()
	for subjectID, balance := range balances {
		if err := store.Create(context.Background(), &model.Account{SubjectID: subjectID, Balance: dec(balance)}); err != nil {
			t.Fatalf("seed %s: %v", subjectID, err)
		}
	}
	return NewFundsService(store, discardLogger(), "funds.balance_changed", 3), store
}

func balanceOf(t *testing.T, store repository.AccountStore, subjectID string) decimal.Decimal {
	t.Helper()
	account, err := store.Get(context.Background(), subjectID)
	if err != nil {
		t.Fatalf("get %s: %v", subjectID, err)
	}
	return account.Balance
}

type fakeGateway struct {
	notification *payment.Notification
	verifyErr    error
	checkout     *payment.Checkout
	checkoutErr  error
	requests     []payment.CheckoutRequest
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.requests = append(g.requests, req)
	return g.checkout, g.checkoutErr
}

func (g *fakeGateway) VerifyNotification(_ []byte, _ string) (*payment.Notification, error) {
	return g.notification, g.verifyErr
}

type fakeSignIn struct {
	session *identity.Session
	err     error
}

func (f *fakeSignIn) SignIn(context.Context, string, string) (*identity.Session, error) {
	return f.session, f.err
}

type fakeLinks struct {
	link string
	err  error
}

func (f *fakeLinks) PasswordResetLink(context.Context, string) (string, error) {
	return f.link, f.err
}

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}
