package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fundsledger/internal/config"
	"fundsledger/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway creates Stripe Checkout sessions and verifies Stripe webhooks.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	currency      string
	productName   string
	frontendURL   string
}

func NewStripeGateway(cfg *config.PaymentConfig) *StripeGateway {
	return &StripeGateway{
		client:        client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		productName:   cfg.ProductName,
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	params := g.checkoutParams(req)
	params.Context = ctx

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperror.Wrap(apperror.UpstreamUnavailable, "Failed to create checkout session.", err)
	}
	return &Checkout{SessionID: session.ID, URL: session.URL}, nil
}

func (g *StripeGateway) checkoutParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	unitAmount := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(g.productName),
					},
					UnitAmount: stripe.Int64(unitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.frontendURL + "/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.frontendURL + "/cancel.html"),
	}
	params.AddMetadata(MetadataSubjectID, req.SubjectID)
	params.AddMetadata(MetadataAmount, req.Amount.String())
	return params
}

func (g *StripeGateway) VerifyNotification(payload []byte, signature string) (*Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, apperror.Wrap(apperror.Unauthenticated, fmt.Sprintf("Webhook Error: %v", err), err)
	}

	n := &Notification{
		EventID: event.ID,
		Type:    string(event.Type),
	}
	if !n.CheckoutCompleted() {
		return n, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, apperror.Wrap(apperror.InvalidArgument, "malformed checkout session", err)
	}
	n.SessionID = session.ID
	n.Metadata = session.Metadata
	return n, nil
}
