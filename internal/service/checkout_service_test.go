package service

import (
	"context"
	"errors"
	"testing"

	"fundsledger/internal/gateway/payment"
	"fundsledger/pkg/apperror"
)

func completed(sessionID, subjectID, amount string) *payment.Notification {
	return &payment.Notification{
		EventID:   "evt_" + sessionID,
		Type:      payment.EventCheckoutCompleted,
		SessionID: sessionID,
		Metadata: map[string]string{
			payment.MetadataSubjectID: subjectID,
			payment.MetadataAmount:    amount,
		},
	}
}

func newCheckout(t *testing.T, gw *fakeGateway, balances map[string]string) (*CheckoutService, *FundsService) {
	t.Helper()
	funds, _ := newFunds(t, balances)
	return NewCheckoutService(gw, funds, discardLogger(), 5), funds
}

func TestOnCheckoutCompletedCredits(t *testing.T) {
	gw := &fakeGateway{notification: completed("cs_1", "uid", "20")}
	consumer, funds := newCheckout(t, gw, map[string]string{"uid": "10"})

	outcome, err := consumer.OnCheckoutCompleted(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("OnCheckoutCompleted: %v", err)
	}
	if outcome.State != CheckoutCompleted || outcome.SubjectID != "uid" || !outcome.Balance.Equal(dec("30")) {
		t.Fatalf("outcome = %+v", outcome)
	}
	if b, _ := funds.GetBalance(context.Background(), "uid"); !b.Equal(dec("30")) {
		t.Fatalf("balance = %s, want 30", b)
	}
}

func TestOnCheckoutCompletedRedeliveryCreditsOnce(t *testing.T) {
	gw := &fakeGateway{notification: completed("cs_1", "uid", "20")}
	consumer, funds := newCheckout(t, gw, map[string]string{"uid": "0"})

	if _, err := consumer.OnCheckoutCompleted(context.Background(), nil, "sig"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	outcome, err := consumer.OnCheckoutCompleted(context.Background(), nil, "sig")
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if outcome.State != CheckoutDuplicate {
		t.Fatalf("state = %s, want %s", outcome.State, CheckoutDuplicate)
	}
	if b, _ := funds.GetBalance(context.Background(), "uid"); !b.Equal(dec("20")) {
		t.Fatalf("balance = %s, want 20", b)
	}
}

func TestOnCheckoutCompletedBadSignature(t *testing.T) {
	gw := &fakeGateway{verifyErr: apperror.New(apperror.Unauthenticated, "Webhook Error: bad signature")}
	consumer, funds := newCheckout(t, gw, map[string]string{"uid": "10"})

	outcome, err := consumer.OnCheckoutCompleted(context.Background(), []byte("{}"), "forged")
	if !apperror.Is(err, apperror.Unauthenticated) {
		t.Fatalf("err = %v, want Unauthenticated", err)
	}
	if outcome.State != CheckoutFailed {
		t.Fatalf("state = %s, want %s", outcome.State, CheckoutFailed)
	}
	if b, _ := funds.GetBalance(context.Background(), "uid"); !b.Equal(dec("10")) {
		t.Fatalf("balance = %s, want 10", b)
	}
}

func TestOnCheckoutCompletedPlainVerifyError(t *testing.T) {
	gw := &fakeGateway{verifyErr: errors.New("no signatures found")}
	consumer, _ := newCheckout(t, gw, nil)

	_, err := consumer.OnCheckoutCompleted(context.Background(), nil, "")
	if !apperror.Is(err, apperror.Unauthenticated) {
		t.Fatalf("err = %v, want Unauthenticated", err)
	}
}

func TestOnCheckoutCompletedIgnored(t *testing.T) {
	tests := []struct {
		name         string
		notification *payment.Notification
	}{
		{"other event", &payment.Notification{EventID: "evt", Type: "payment_intent.created"}},
		{"missing subject", completed("cs_1", "", "20")},
		{"missing amount", completed("cs_1", "uid", "")},
		{"garbage amount", completed("cs_1", "uid", "twenty")},
		{"negative amount", completed("cs_1", "uid", "-5")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer, funds := newCheckout(t, &fakeGateway{notification: tt.notification}, map[string]string{"uid": "10"})

			outcome, err := consumer.OnCheckoutCompleted(context.Background(), nil, "sig")
			if err != nil {
				t.Fatalf("OnCheckoutCompleted: %v", err)
			}
			if outcome.State != CheckoutIgnored {
				t.Fatalf("state = %s, want %s", outcome.State, CheckoutIgnored)
			}
			if b, _ := funds.GetBalance(context.Background(), "uid"); !b.Equal(dec("10")) {
				t.Fatalf("balance = %s, want 10", b)
			}
		})
	}
}

func TestOnCheckoutCompletedUnknownAccount(t *testing.T) {
	gw := &fakeGateway{notification: completed("cs_1", "ghost", "20")}
	consumer, _ := newCheckout(t, gw, nil)

	outcome, err := consumer.OnCheckoutCompleted(context.Background(), nil, "sig")
	if !apperror.Is(err, apperror.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if outcome.State != CheckoutFailed {
		t.Fatalf("state = %s, want %s", outcome.State, CheckoutFailed)
	}
}

func TestCreateCheckout(t *testing.T) {
	gw := &fakeGateway{checkout: &payment.Checkout{SessionID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc, _ := newCheckout(t, gw, nil)

	checkout, err := svc.CreateCheckout(context.Background(), "uid", dec("10"))
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if checkout.URL != "https://pay.example/cs_1" {
		t.Errorf("url = %s", checkout.URL)
	}
	if len(gw.requests) != 1 || gw.requests[0].SubjectID != "uid" || !gw.requests[0].Amount.Equal(dec("10")) {
		t.Errorf("requests = %+v", gw.requests)
	}
}

func TestCreateCheckoutRejectsAmount(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newCheckout(t, gw, nil)

	for _, amount := range []string{"0", "4", "4.99", "5.50", "-10"} {
		_, err := svc.CreateCheckout(context.Background(), "uid", dec(amount))
		if !apperror.Is(err, apperror.InvalidArgument) {
			t.Errorf("CreateCheckout(%s) err = %v, want InvalidArgument", amount, err)
		}
	}
	if len(gw.requests) != 0 {
		t.Errorf("gateway called %d times for invalid amounts", len(gw.requests))
	}
}

func TestCreateCheckoutUpstreamError(t *testing.T) {
	gw := &fakeGateway{checkoutErr: apperror.New(apperror.UpstreamUnavailable, "Failed to create checkout session.")}
	svc, _ := newCheckout(t, gw, nil)

	if _, err := svc.CreateCheckout(context.Background(), "uid", dec("5")); !apperror.Is(err, apperror.UpstreamUnavailable) {
		t.Fatalf("err = %v, want UpstreamUnavailable", err)
	}
}
