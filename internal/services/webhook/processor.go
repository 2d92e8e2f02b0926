// Package webhook applies payment gateway notifications to stored orders.
// Every delivery is handled independently; the order store is the only
// shared state, and the last write wins.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"
	stripewebhook "github.com/stripe/stripe-go/v83/webhook"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/models"
	"taniconnect_back_end/internal/repository"
	"taniconnect_back_end/internal/services/payment"
)

// Notification is the Midtrans HTTP notification body. Amount and status
// code stay strings because the signature is computed over their raw form.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

type OrderStore interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	UpdatePayment(ctx context.Context, id string, status models.OrderStatus, info models.PaymentInfo) error
}

// Listener is told about every order whose status actually changed.
type Listener interface {
	OrderStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) error
}

type AuditLog interface {
	Record(ctx context.Context, event models.PaymentEvent) error
}

// StatusLookup fetches the gateway's current status for an order.
type StatusLookup interface {
	TransactionStatus(ctx context.Context, orderID string) (*payment.TransactionStatus, error)
}

// Archive keeps the raw body of verified notifications.
type Archive interface {
	Store(ctx context.Context, orderID string, body []byte) error
}

type Processor struct {
	store        OrderStore
	midtransKey  string
	stripeSecret string

	audit     AuditLog
	archive   Archive
	lookup    StatusLookup
	listeners []Listener
	now       func() time.Time
}

func NewProcessor(store OrderStore, midtransServerKey string) *Processor {
	return &Processor{store: store, midtransKey: midtransServerKey, now: time.Now}
}

func (p *Processor) WithStripeSecret(secret string) *Processor {
	p.stripeSecret = secret
	return p
}

func (p *Processor) WithAudit(a AuditLog) *Processor {
	p.audit = a
	return p
}

func (p *Processor) WithArchive(a Archive) *Processor {
	p.archive = a
	return p
}

// WithStatusLookup makes verified Midtrans notifications act on the status
// fetched from the gateway instead of the one in the body.
func (p *Processor) WithStatusLookup(l StatusLookup) *Processor {
	p.lookup = l
	return p
}

// OnStatusChange registers a listener. Listeners run in registration order
// and their errors are logged only.
func (p *Processor) OnStatusChange(l Listener) *Processor {
	p.listeners = append(p.listeners, l)
	return p
}

// update is one verified status report, whatever gateway it came from.
type update struct {
	provider          string
	orderID           string
	decision          Decision
	info              models.PaymentInfo
	transactionStatus string
	fraudStatus       string
}

// HandleMidtrans verifies and applies a raw Midtrans notification. It
// returns the recorded outcome. A bad signature yields *apperr.SignatureError
// and an unknown order yields *apperr.NotFoundError; neither changes state.
func (p *Processor) HandleMidtrans(ctx context.Context, body []byte) (string, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return "", apperr.Validation("Invalid notification payload")
	}
	if n.OrderID == "" {
		return "", apperr.Validation("Invalid notification payload",
			apperr.FieldError{Field: "order_id", Message: "is required"})
	}

	log.Printf("📥 Midtrans notification for %s: %s/%s", n.OrderID, n.TransactionStatus, n.FraudStatus)

	if p.midtransKey == "" || !payment.VerifyMidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, p.midtransKey, n.SignatureKey) {
		log.Printf("❌ Invalid signature on notification for %s", n.OrderID)
		p.record(ctx, models.PaymentEvent{
			OrderID:           n.OrderID,
			Provider:          payment.ProviderMidtrans,
			Outcome:           models.OutcomeRejectedSignature,
			TransactionStatus: n.TransactionStatus,
			FraudStatus:       n.FraudStatus,
		})
		return models.OutcomeRejectedSignature, &apperr.SignatureError{OrderID: n.OrderID}
	}

	if p.archive != nil {
		if err := p.archive.Store(ctx, n.OrderID, body); err != nil {
			log.Printf("⚠️ Failed to archive notification for %s: %v", n.OrderID, err)
		}
	}

	txStatus, fraudStatus := n.TransactionStatus, n.FraudStatus
	info := models.PaymentInfo{
		GatewayTransactionID: n.TransactionID,
		PaymentType:          n.PaymentType,
	}
	if p.lookup != nil {
		st, err := p.lookup.TransactionStatus(ctx, n.OrderID)
		if err != nil {
			log.Printf("❌ Could not confirm Midtrans status for %s: %v", n.OrderID, err)
			p.record(ctx, models.PaymentEvent{
				OrderID:           n.OrderID,
				Provider:          payment.ProviderMidtrans,
				Outcome:           models.OutcomeError,
				TransactionStatus: n.TransactionStatus,
				FraudStatus:       n.FraudStatus,
				Detail:            err.Error(),
			})
			return models.OutcomeError, err
		}
		if st.TransactionStatus != n.TransactionStatus || st.FraudStatus != n.FraudStatus {
			log.Printf("⚠️ Midtrans reports %s/%s for %s, notification said %s/%s",
				st.TransactionStatus, st.FraudStatus, n.OrderID, n.TransactionStatus, n.FraudStatus)
		}
		txStatus, fraudStatus = st.TransactionStatus, st.FraudStatus
		if st.TransactionID != "" {
			info.GatewayTransactionID = st.TransactionID
		}
		if st.PaymentType != "" {
			info.PaymentType = st.PaymentType
		}
	}

	return p.apply(ctx, update{
		provider:          payment.ProviderMidtrans,
		orderID:           n.OrderID,
		decision:          MapMidtransStatus(txStatus, fraudStatus),
		info:              info,
		transactionStatus: txStatus,
		fraudStatus:       fraudStatus,
	})
}

// HandleStripe verifies the Stripe-Signature header and applies
// PaymentIntent events. Other event types are acknowledged and ignored.
func (p *Processor) HandleStripe(ctx context.Context, body []byte, signatureHeader string) (string, error) {
	if p.stripeSecret == "" {
		return models.OutcomeRejectedSignature, &apperr.SignatureError{}
	}
	event, err := stripewebhook.ConstructEventWithOptions(body, signatureHeader, p.stripeSecret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Printf("❌ Invalid Stripe webhook signature: %v", err)
		p.record(ctx, models.PaymentEvent{Provider: payment.ProviderStripe, Outcome: models.OutcomeRejectedSignature})
		return models.OutcomeRejectedSignature, &apperr.SignatureError{}
	}

	eventType := string(event.Type)
	if !strings.HasPrefix(eventType, "payment_intent.") {
		log.Printf("ℹ️ Ignoring Stripe event %s", eventType)
		return models.OutcomeIgnored, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", apperr.Validation("Invalid payment intent payload")
	}
	orderID := intent.Metadata["order_id"]
	if orderID == "" {
		log.Printf("⚠️ Stripe event %s for %s carries no order_id", eventType, intent.ID)
		p.record(ctx, models.PaymentEvent{
			Provider:          payment.ProviderStripe,
			Outcome:           models.OutcomeIgnored,
			TransactionStatus: eventType,
			Detail:            "payment intent " + intent.ID + " has no order_id metadata",
		})
		return models.OutcomeIgnored, nil
	}

	info := models.PaymentInfo{GatewayTransactionID: intent.ID}
	if len(intent.PaymentMethodTypes) > 0 {
		info.PaymentType = intent.PaymentMethodTypes[0]
	}

	return p.apply(ctx, update{
		provider:          payment.ProviderStripe,
		orderID:           orderID,
		decision:          MapStripeEvent(eventType),
		info:              info,
		transactionStatus: eventType,
	})
}

func (p *Processor) apply(ctx context.Context, u update) (string, error) {
	event := models.PaymentEvent{
		OrderID:           u.orderID,
		Provider:          u.provider,
		TransactionStatus: u.transactionStatus,
		FraudStatus:       u.fraudStatus,
	}

	order, err := p.store.FindByID(ctx, u.orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			log.Printf("⚠️ Notification for unknown order %s", u.orderID)
			event.Outcome = models.OutcomeOrderNotFound
			p.record(ctx, event)
			return event.Outcome, apperr.NotFound("order", u.orderID)
		}
		event.Outcome = models.OutcomeError
		event.Detail = err.Error()
		p.record(ctx, event)
		return event.Outcome, fmt.Errorf("failed to load order %s: %w", u.orderID, err)
	}

	previous := order.Status
	next := previous
	switch u.decision.Action {
	case ActionApply:
		next = u.decision.Status
		event.Outcome = models.OutcomeApplied
		if next == previous {
			event.Outcome = models.OutcomeUnchanged
		}
	case ActionHold:
		log.Printf("⚠️ Order %s held: %s with fraud status %q needs a product owner decision, status left at %s",
			u.orderID, u.transactionStatus, u.fraudStatus, previous)
		event.Outcome = models.OutcomeHeld
	default:
		log.Printf("⚠️ Unrecognized %s status %q for order %s, status left at %s",
			u.provider, u.transactionStatus, u.orderID, previous)
		event.Outcome = models.OutcomeIgnored
	}
	event.PreviousStatus = previous
	event.NewStatus = next

	if err := p.store.UpdatePayment(ctx, u.orderID, next, u.info); err != nil {
		event.Outcome = models.OutcomeError
		event.Detail = err.Error()
		p.record(ctx, event)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return event.Outcome, apperr.NotFound("order", u.orderID)
		}
		return event.Outcome, fmt.Errorf("failed to update order %s: %w", u.orderID, err)
	}
	p.record(ctx, event)

	if next != previous {
		log.Printf("✅ Order %s: %s -> %s", u.orderID, previous, next)
		updated := *order
		updated.Status = next
		if u.info.GatewayTransactionID != "" {
			updated.PaymentInfo.GatewayTransactionID = u.info.GatewayTransactionID
		}
		if u.info.PaymentType != "" {
			updated.PaymentInfo.PaymentType = u.info.PaymentType
		}
		p.notify(ctx, updated, previous)
	}

	return event.Outcome, nil
}

func (p *Processor) notify(ctx context.Context, order models.Order, previous models.OrderStatus) {
	for _, l := range p.listeners {
		if err := l.OrderStatusChanged(ctx, order, previous); err != nil {
			log.Printf("⚠️ Status listener failed for order %s: %v", order.ID, err)
		}
	}
}

func (p *Processor) record(ctx context.Context, event models.PaymentEvent) {
	if p.audit == nil {
		return
	}
	event.ReceivedAt = p.now()
	if err := p.audit.Record(ctx, event); err != nil {
		log.Printf("⚠️ Failed to record payment event for %s: %v", event.OrderID, err)
	}
}
