// Package payment holds the payment session gateways and the notification
// signature scheme. Gateways are constructed once at start-up and injected.
package payment

import (
	"context"

	"taniconnect_back_end/internal/models"
)

// Pseudo line items added so the gateway's item total matches the order total.
const (
	ItemIDShipping = "SHIPPING_COST"
	ItemIDAppFee   = "APP_FEE"
)

type SessionItem struct {
	ID       string
	Name     string
	Price    int64
	Quantity int64
}

type SessionRequest struct {
	OrderID  string
	BuyerID  string
	Amount   int64
	Items    []SessionItem
	Customer models.Customer
}

// Session is the gateway-issued handle the client widget pays against.
type Session struct {
	Token       string
	RedirectURL string
}

// Gateway creates a hosted payment session. Implementations return an
// *apperr.GatewayError on any failure, including a missing token.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	Provider() string
}

// ItemsTotal sums price*quantity over items.
func ItemsTotal(items []SessionItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Price * it.Quantity
	}
	return total
}

type callResult[T any] struct {
	value T
	err   error
}

// callWithContext runs a blocking SDK call that has no context support and
// gives up when ctx is done. The abandoned call finishes in the background.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn()
		done <- callResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
