// Package payment adapts the external payment processor: checkout creation and
// verification of signed completion notifications.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Metadata keys attached to every checkout session. They are set by this
// service and carried back unchanged in the completion notification.
const (
	MetadataSubjectID = "userId"
	MetadataAmount    = "amount"
)

type CheckoutRequest struct {
	SubjectID string
	Amount    decimal.Decimal
}

type Checkout struct {
	SessionID string
	URL       string
}

// Notification is a verified gateway event.
type Notification struct {
	EventID   string
	Type      string
	SessionID string
	Metadata  map[string]string
}

const EventCheckoutCompleted = "checkout.session.completed"

func (n *Notification) CheckoutCompleted() bool {
	return n.Type == EventCheckoutCompleted
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// VerifyNotification authenticates payload against signature. It has no
	// side effects; an invalid signature yields an Unauthenticated apperror.
	VerifyNotification(payload []byte, signature string) (*Notification, error)
}
