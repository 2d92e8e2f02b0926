// Package orders turns a validated checkout into a persisted, payable order.
package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/models"
	"taniconnect_back_end/internal/services/payment"
	"taniconnect_back_end/internal/services/pricing"
)

// AppFee is the flat surcharge added to every order, in rupiah.
const AppFee int64 = 2000

const persistTimeout = 10 * time.Second

const (
	shippingItemName = "Biaya Pengiriman"
	appFeeItemName   = "Biaya Aplikasi"
)

type Pricer interface {
	Recalculate(ctx context.Context, lines []pricing.Line) (*pricing.Result, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
}

type CartClearer interface {
	Clear(ctx context.Context, buyerID string) error
}

// Indexer receives every newly created order.
type Indexer interface {
	IndexOrder(ctx context.Context, order models.Order) error
}

// IncidentRecorder stores events that need manual follow-up.
type IncidentRecorder interface {
	Record(ctx context.Context, event models.PaymentEvent) error
}

// Result is what the buyer gets back from a successful checkout.
type Result struct {
	Order        *models.Order `json:"order"`
	PaymentToken string        `json:"paymentToken"`
}

type Orchestrator struct {
	pricer  Pricer
	gateway payment.Gateway
	store   OrderStore
	cart    CartClearer

	indexer   Indexer
	incidents IncidentRecorder
	now       func() time.Time
}

func NewOrchestrator(pricer Pricer, gateway payment.Gateway, store OrderStore, cart CartClearer) *Orchestrator {
	return &Orchestrator{
		pricer:  pricer,
		gateway: gateway,
		store:   store,
		cart:    cart,
		now:     time.Now,
	}
}

// WithIndexer registers the search index fed on creation. Nil disables it.
func (o *Orchestrator) WithIndexer(ix Indexer) *Orchestrator {
	o.indexer = ix
	return o
}

// WithIncidents registers where reconciliation events are recorded. Nil disables it.
func (o *Orchestrator) WithIncidents(r IncidentRecorder) *Orchestrator {
	o.incidents = r
	return o
}

// CreateOrder runs one checkout: validate, reprice from the catalog, open a
// payment session, persist the order, then clear the cart. Nothing is retried.
// Any failure before persistence leaves no order behind.
func (o *Orchestrator) CreateOrder(ctx context.Context, buyer models.Principal, req CreateOrderRequest) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, pricing.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	priced, err := o.pricer.Recalculate(ctx, lines)
	if err != nil {
		return nil, err
	}

	now := o.now()
	amount := models.OrderAmount{
		Subtotal: priced.Subtotal,
		Shipping: req.ShippingInfo.Cost,
		AppFee:   AppFee,
	}
	amount.Total, err = pricing.Sum(amount.Subtotal, amount.Shipping, amount.AppFee)
	if err != nil {
		return nil, apperr.Validation(pricing.MsgAmountTooLarge,
			apperr.FieldError{Field: "shippingInfo.cost", Message: "order amount is too large"})
	}

	order := &models.Order{
		ID:      OrderID(now, buyer.ID),
		BuyerID: buyer.ID,
		Customer: models.Customer{
			Name:  buyer.Name,
			Email: buyer.Email,
			Phone: buyer.Phone,
		},
		Items:        priced.Items,
		Amount:       amount,
		ShippingInfo: req.ShippingInfo,
		Status:       models.StatusPendingPayment,
		CreatedAt:    now,
	}

	session, err := o.gateway.CreateSession(ctx, sessionRequest(order))
	if err != nil {
		log.Printf("❌ Payment session failed for %s: %v", order.ID, err)
		return nil, err
	}
	order.PaymentInfo.PaymentToken = session.Token
	log.Printf("💳 Payment session opened for %s (%s, total %d)", order.ID, o.gateway.Provider(), amount.Total)

	// The session now exists at the gateway; a buyer disconnect must not abort the insert.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	err = o.store.Create(persistCtx, order)
	cancel()
	if err != nil {
		o.reconciliationRequired(ctx, order, err)
		return nil, fmt.Errorf("failed to persist order %s: %w", order.ID, err)
	}
	log.Printf("✅ Order %s created for buyer %s", order.ID, buyer.ID)

	if err := o.cart.Clear(ctx, buyer.ID); err != nil {
		log.Printf("⚠️ Order %s created but cart of %s was not cleared: %v", order.ID, buyer.ID, err)
	} else {
		log.Printf("🧹 Cart cleared for buyer %s", buyer.ID)
	}

	if o.indexer != nil {
		if err := o.indexer.IndexOrder(ctx, *order); err != nil {
			log.Printf("⚠️ Failed to index order %s: %v", order.ID, err)
		}
	}

	return &Result{Order: order, PaymentToken: session.Token}, nil
}

// reconciliationRequired reports a payment session that exists at the
// gateway without a matching order.
func (o *Orchestrator) reconciliationRequired(ctx context.Context, order *models.Order, cause error) {
	log.Printf("❌ Reconciliation required: payment session for %s (%s, total %d) has no stored order: %v",
		order.ID, o.gateway.Provider(), order.Amount.Total, cause)

	if o.incidents == nil {
		return
	}
	event := models.PaymentEvent{
		OrderID:   order.ID,
		Provider:  o.gateway.Provider(),
		Outcome:   models.OutcomeReconciliationRequired,
		NewStatus: models.StatusPendingPayment,
		Detail: fmt.Sprintf("buyer=%s total=%d token=%s error=%v",
			order.BuyerID, order.Amount.Total, order.PaymentInfo.PaymentToken, cause),
		ReceivedAt: o.now(),
	}
	if err := o.incidents.Record(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("❌ Failed to record reconciliation event for %s: %v", order.ID, err)
	}
}

// OrderID builds "TNC-<unix millis>-<last 4 chars of buyer id>".
func OrderID(now time.Time, buyerID string) string {
	suffix := buyerID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return fmt.Sprintf("TNC-%d-%s", now.UnixMilli(), suffix)
}

// sessionRequest lists the order lines plus shipping and app fee pseudo
// items so the gateway's item total equals the order total.
func sessionRequest(order *models.Order) payment.SessionRequest {
	items := make([]payment.SessionItem, 0, len(order.Items)+2)
	for _, it := range order.Items {
		items = append(items, payment.SessionItem{
			ID:       it.ProductID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	items = append(items,
		payment.SessionItem{ID: payment.ItemIDShipping, Name: shippingItemName, Price: order.Amount.Shipping, Quantity: 1},
		payment.SessionItem{ID: payment.ItemIDAppFee, Name: appFeeItemName, Price: order.Amount.AppFee, Quantity: 1},
	)

	return payment.SessionRequest{
		OrderID:  order.ID,
		BuyerID:  order.BuyerID,
		Amount:   order.Amount.Total,
		Items:    items,
		Customer: order.Customer,
	}
}
