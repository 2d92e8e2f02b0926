package payment

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v83"

	"taniconnect_back_end/internal/apperr"
)

const ProviderStripe = "stripe"

// Stripe amounts are in minor units except for these currencies.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// StripeGateway creates PaymentIntents; the client secret is the session token.
type StripeGateway struct {
	currency string
	timeout  time.Duration
	create   func(context.Context, *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
}

func NewStripeGateway(secretKey, currency string, timeout time.Duration) *StripeGateway {
	sc := stripe.NewClient(secretKey)
	return &StripeGateway{currency: currency, timeout: timeout, create: sc.V1PaymentIntents.Create}
}

func (g *StripeGateway) Provider() string { return ProviderStripe }

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	intent, err := g.create(ctx, g.intentParams(req))
	if err != nil {
		return nil, apperr.Gateway("create payment intent", err)
	}
	if intent == nil || intent.ClientSecret == "" {
		return nil, apperr.Gateway("create payment intent", errors.New("empty client secret"))
	}

	return &Session{Token: intent.ClientSecret}, nil
}

func (g *StripeGateway) intentParams(req SessionRequest) *stripe.PaymentIntentCreateParams {
	return &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(minorUnits(req.Amount, g.currency)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(req.Customer.Email),
		Metadata: map[string]string{
			"order_id": req.OrderID,
			"buyer_id": req.BuyerID,
		},
	}
}

func minorUnits(amount int64, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount
	}
	return amount * 100
}
