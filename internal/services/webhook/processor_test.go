package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v83/webhook"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/models"
	"taniconnect_back_end/internal/repository"
	"taniconnect_back_end/internal/services/payment"
)

const serverKey = "SB-Mid-server-test"

type memStore struct {
	orders  map[string]models.Order
	updates int
	err     error
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStore) UpdatePayment(_ context.Context, id string, status models.OrderStatus, info models.PaymentInfo) error {
	if s.err != nil {
		return s.err
	}
	o := s.orders[id]
	o.Status = status
	if info.GatewayTransactionID != "" {
		o.PaymentInfo.GatewayTransactionID = info.GatewayTransactionID
	}
	if info.PaymentType != "" {
		o.PaymentInfo.PaymentType = info.PaymentType
	}
	s.orders[id] = o
	s.updates++
	return nil
}

type recordingListener struct{ changes []string }

func (l *recordingListener) OrderStatusChanged(_ context.Context, o models.Order, prev models.OrderStatus) error {
	l.changes = append(l.changes, fmt.Sprintf("%s:%s->%s", o.ID, prev, o.Status))
	return errors.New("listener errors are logged only")
}

type memAudit struct{ events []models.PaymentEvent }

func (a *memAudit) Record(_ context.Context, e models.PaymentEvent) error {
	a.events = append(a.events, e)
	return nil
}

func (a *memAudit) last() models.PaymentEvent { return a.events[len(a.events)-1] }

type memArchive struct{ bodies map[string][]byte }

func (a *memArchive) Store(_ context.Context, orderID string, body []byte) error {
	a.bodies[orderID] = body
	return nil
}

type harness struct {
	store    *memStore
	audit    *memAudit
	archive  *memArchive
	listener *recordingListener
	proc     *Processor
}

const orderID = "TNC-1700000000123-ab12"

func newHarness() *harness {
	h := &harness{
		store: &memStore{orders: map[string]models.Order{
			orderID: {ID: orderID, Status: models.StatusPendingPayment, PaymentInfo: models.PaymentInfo{PaymentToken: "snap-token"}},
		}},
		audit:    &memAudit{},
		archive:  &memArchive{bodies: map[string][]byte{}},
		listener: &recordingListener{},
	}
	h.proc = NewProcessor(h.store, serverKey).
		WithAudit(h.audit).
		WithArchive(h.archive).
		OnStatusChange(h.listener)
	return h
}

func notification(id, txStatus, fraud string) []byte {
	n := Notification{
		OrderID:           id,
		TransactionStatus: txStatus,
		FraudStatus:       fraud,
		StatusCode:        "200",
		GrossAmount:       "27000.00",
		TransactionID:     "trx-1",
		PaymentType:       "bank_transfer",
	}
	n.SignatureKey = payment.MidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	body, _ := json.Marshal(n)
	return body
}

func TestMapMidtransStatus(t *testing.T) {
	tests := []struct {
		tx, fraud string
		want      Decision
	}{
		{"capture", "accept", Decision{Action: ActionApply, Status: models.StatusPaid}},
		{"capture", "challenge", Decision{Action: ActionHold}},
		{"capture", "", Decision{Action: ActionHold}},
		{"settlement", "", Decision{Action: ActionApply, Status: models.StatusPaid}},
		{"settlement", "deny", Decision{Action: ActionApply, Status: models.StatusPaid}},
		{"cancel", "", Decision{Action: ActionApply, Status: models.StatusFailed}},
		{"deny", "", Decision{Action: ActionApply, Status: models.StatusFailed}},
		{"expire", "", Decision{Action: ActionApply, Status: models.StatusFailed}},
		{"pending", "", Decision{Action: ActionApply, Status: models.StatusPendingPayment}},
		{"refund", "", Decision{Action: ActionIgnore}},
		{"", "", Decision{Action: ActionIgnore}},
	}
	for _, tt := range tests {
		t.Run(tt.tx+"/"+tt.fraud, func(t *testing.T) {
			assert.Equal(t, tt.want, MapMidtransStatus(tt.tx, tt.fraud))
		})
	}
}

func TestMapStripeEvent(t *testing.T) {
	assert.Equal(t, models.StatusPaid, MapStripeEvent("payment_intent.succeeded").Status)
	assert.Equal(t, models.StatusFailed, MapStripeEvent("payment_intent.payment_failed").Status)
	assert.Equal(t, models.StatusFailed, MapStripeEvent("payment_intent.canceled").Status)
	assert.Equal(t, models.StatusPendingPayment, MapStripeEvent("payment_intent.processing").Status)
	assert.Equal(t, ActionIgnore, MapStripeEvent("payment_intent.created").Action)
}

func TestHandleMidtrans_SettlementMarksPaid(t *testing.T) {
	h := newHarness()

	outcome, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "settlement", ""))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, outcome)
	o := h.store.orders[orderID]
	assert.Equal(t, models.StatusPaid, o.Status)
	assert.Equal(t, "trx-1", o.PaymentInfo.GatewayTransactionID)
	assert.Equal(t, "bank_transfer", o.PaymentInfo.PaymentType)
	assert.Equal(t, "snap-token", o.PaymentInfo.PaymentToken)
	assert.Equal(t, []string{orderID + ":pending_payment->paid"}, h.listener.changes)
	assert.Contains(t, h.archive.bodies, orderID)
	assert.Equal(t, models.StatusPendingPayment, h.audit.last().PreviousStatus)
	assert.Equal(t, models.StatusPaid, h.audit.last().NewStatus)
}

func TestHandleMidtrans_ExpireMarksFailed(t *testing.T) {
	h := newHarness()

	_, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "expire", ""))

	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, h.store.orders[orderID].Status)
}

func TestHandleMidtrans_ReplayIsIdempotent(t *testing.T) {
	h := newHarness()
	body := notification(orderID, "settlement", "")

	first, err := h.proc.HandleMidtrans(context.Background(), body)
	require.NoError(t, err)
	second, err := h.proc.HandleMidtrans(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeApplied, first)
	assert.Equal(t, models.OutcomeUnchanged, second)
	assert.Equal(t, models.StatusPaid, h.store.orders[orderID].Status)
	assert.Equal(t, 2, h.store.updates)
	assert.Len(t, h.listener.changes, 1)
}

func TestHandleMidtrans_BadSignatureChangesNothing(t *testing.T) {
	h := newHarness()
	var n Notification
	require.NoError(t, json.Unmarshal(notification(orderID, "settlement", ""), &n))
	n.GrossAmount = "1.00"
	body, _ := json.Marshal(n)

	outcome, err := h.proc.HandleMidtrans(context.Background(), body)

	var serr *apperr.SignatureError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 403, apperr.HTTPStatus(err))
	assert.Equal(t, models.OutcomeRejectedSignature, outcome)
	assert.Equal(t, models.StatusPendingPayment, h.store.orders[orderID].Status)
	assert.Zero(t, h.store.updates)
	assert.Empty(t, h.archive.bodies)
	assert.Equal(t, models.OutcomeRejectedSignature, h.audit.last().Outcome)
}

func TestHandleMidtrans_UnknownOrder(t *testing.T) {
	h := newHarness()

	_, err := h.proc.HandleMidtrans(context.Background(), notification("TNC-1-zzzz", "settlement", ""))

	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 404, apperr.HTTPStatus(err))
	assert.Zero(t, h.store.updates)
	assert.Equal(t, models.OutcomeOrderNotFound, h.audit.last().Outcome)
}

func TestHandleMidtrans_CaptureWithoutAcceptIsHeld(t *testing.T) {
	h := newHarness()

	outcome, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "capture", "challenge"))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeHeld, outcome)
	assert.Equal(t, models.StatusPendingPayment, h.store.orders[orderID].Status)
	assert.Equal(t, 1, h.store.updates)
	assert.Empty(t, h.listener.changes)
}

func TestHandleMidtrans_UnrecognizedStatusIsIgnored(t *testing.T) {
	h := newHarness()

	outcome, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "authorize", ""))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIgnored, outcome)
	assert.Equal(t, models.StatusPendingPayment, h.store.orders[orderID].Status)
	assert.Empty(t, h.listener.changes)
}

func TestHandleMidtrans_StoreFailure(t *testing.T) {
	h := newHarness()
	h.store.err = errors.New("mongo down")

	outcome, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "settlement", ""))

	require.Error(t, err)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	assert.Equal(t, models.OutcomeError, outcome)
}

func TestHandleMidtrans_MalformedBody(t *testing.T) {
	h := newHarness()

	_, err := h.proc.HandleMidtrans(context.Background(), []byte("{not json"))

	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
}

type fakeLookup struct {
	status *payment.TransactionStatus
	err    error
	asked  []string
}

func (l *fakeLookup) TransactionStatus(_ context.Context, id string) (*payment.TransactionStatus, error) {
	l.asked = append(l.asked, id)
	return l.status, l.err
}

func TestHandleMidtrans_ActsOnGatewayStatus(t *testing.T) {
	h := newHarness()
	lookup := &fakeLookup{status: &payment.TransactionStatus{
		TransactionStatus: "expire",
		TransactionID:     "trx-gw",
		PaymentType:       "qris",
	}}
	h.proc.WithStatusLookup(lookup)

	outcome, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "settlement", ""))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, outcome)
	assert.Equal(t, []string{orderID}, lookup.asked)
	o := h.store.orders[orderID]
	assert.Equal(t, models.StatusFailed, o.Status)
	assert.Equal(t, "trx-gw", o.PaymentInfo.GatewayTransactionID)
	assert.Equal(t, "qris", o.PaymentInfo.PaymentType)
	assert.Equal(t, "expire", h.audit.last().TransactionStatus)
}

func TestHandleMidtrans_StatusLookupFailure(t *testing.T) {
	h := newHarness()
	h.proc.WithStatusLookup(&fakeLookup{err: apperr.Gateway("check transaction status", errors.New("timeout"))})

	outcome, err := h.proc.HandleMidtrans(context.Background(), notification(orderID, "settlement", ""))

	var gerr *apperr.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	assert.Equal(t, models.OutcomeError, outcome)
	assert.Equal(t, models.StatusPendingPayment, h.store.orders[orderID].Status)
	assert.Zero(t, h.store.updates)
	assert.Equal(t, models.OutcomeError, h.audit.last().Outcome)
}

func TestHandleMidtrans_BadSignatureSkipsLookup(t *testing.T) {
	h := newHarness()
	lookup := &fakeLookup{status: &payment.TransactionStatus{TransactionStatus: "settlement"}}
	h.proc.WithStatusLookup(lookup)
	var n Notification
	require.NoError(t, json.Unmarshal(notification(orderID, "settlement", ""), &n))
	n.SignatureKey = "forged"
	body, _ := json.Marshal(n)

	_, err := h.proc.HandleMidtrans(context.Background(), body)

	var serr *apperr.SignatureError
	require.ErrorAs(t, err, &serr)
	assert.Empty(t, lookup.asked)
}

const stripeSecret = "whsec_test"

func signedStripeEvent(t *testing.T, eventType, orderID string) ([]byte, string) {
	t.Helper()
	payload := fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"data":{"object":{"id":"pi_1","object":"payment_intent","payment_method_types":["card"],"metadata":{"order_id":%q}}}}`,
		eventType, orderID)
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    stripeSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestHandleStripe_SucceededMarksPaid(t *testing.T) {
	h := newHarness()
	h.proc.WithStripeSecret(stripeSecret)
	body, header := signedStripeEvent(t, "payment_intent.succeeded", orderID)

	outcome, err := h.proc.HandleStripe(context.Background(), body, header)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, outcome)
	o := h.store.orders[orderID]
	assert.Equal(t, models.StatusPaid, o.Status)
	assert.Equal(t, "pi_1", o.PaymentInfo.GatewayTransactionID)
	assert.Equal(t, "card", o.PaymentInfo.PaymentType)
}

func TestHandleStripe_BadSignature(t *testing.T) {
	h := newHarness()
	h.proc.WithStripeSecret("whsec_other")
	body, header := signedStripeEvent(t, "payment_intent.succeeded", orderID)

	_, err := h.proc.HandleStripe(context.Background(), body, header)

	var serr *apperr.SignatureError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.StatusPendingPayment, h.store.orders[orderID].Status)
}

func TestHandleStripe_OtherEventsIgnored(t *testing.T) {
	h := newHarness()
	h.proc.WithStripeSecret(stripeSecret)
	body, header := signedStripeEvent(t, "charge.refunded", orderID)

	outcome, err := h.proc.HandleStripe(context.Background(), body, header)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIgnored, outcome)
	assert.Zero(t, h.store.updates)
}
