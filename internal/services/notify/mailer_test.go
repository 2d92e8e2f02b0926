package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"taniconnect_back_end/internal/models"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	f.sent = append(f.sent, msgs...)
	return f.err
}

func paidOrder() models.Order {
	return models.Order{
		ID:       "TNC-1700000000123-ab12",
		Status:   models.StatusPaid,
		Customer: models.Customer{Name: "Siti <b>", Email: "siti@example.com"},
		Items:    []models.OrderItem{{Name: "Tomat", Price: 10000, Quantity: 2}},
		Amount:   models.OrderAmount{Subtotal: 20000, Shipping: 5000, AppFee: 2000, Total: 27000},
	}
}

func newTestMailer(s sender) *Mailer {
	return &Mailer{client: s, from: "noreply@taniconnect.id", frontendURL: "https://taniconnect.id"}
}

func TestOrderStatusChanged_SendsForPaid(t *testing.T) {
	s := &fakeSender{}

	err := newTestMailer(s).OrderStatusChanged(context.Background(), paidOrder(), models.StatusPendingPayment)

	require.NoError(t, err)
	require.Len(t, s.sent, 1)
	msg := s.sent[0]
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"siti@example.com"}, rcpts)
	assert.Equal(t, []string{"Pembayaran diterima - TNC-1700000000123-ab12"}, msg.GetGenHeader(mail.HeaderSubject))
	assert.Len(t, msg.GetAttachments(), 1)
}

func TestOrderStatusChanged_SkipsOtherStatuses(t *testing.T) {
	s := &fakeSender{}
	o := paidOrder()
	o.Status = models.StatusPendingPayment

	require.NoError(t, newTestMailer(s).OrderStatusChanged(context.Background(), o, models.StatusFailed))
	assert.Empty(t, s.sent)
}

func TestOrderStatusChanged_SendError(t *testing.T) {
	s := &fakeSender{err: errors.New("smtp refused")}

	err := newTestMailer(s).OrderStatusChanged(context.Background(), paidOrder(), models.StatusPendingPayment)

	assert.Error(t, err)
}

func TestOrderStatusChanged_MissingEmail(t *testing.T) {
	o := paidOrder()
	o.Customer.Email = ""

	assert.Error(t, newTestMailer(&fakeSender{}).OrderStatusChanged(context.Background(), o, models.StatusPendingPayment))
}

func TestTemplateEscapesCustomerName(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, statusTemplate.Execute(&buf, newView(paidOrder(), "https://taniconnect.id")))

	assert.Contains(t, buf.String(), "Siti &lt;b&gt;")
	assert.Contains(t, buf.String(), "Rp 27.000")
	assert.Contains(t, buf.String(), "https://taniconnect.id/orders/TNC-1700000000123-ab12")
}

func TestRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", Rupiah(0))
	assert.Equal(t, "Rp 500", Rupiah(500))
	assert.Equal(t, "Rp 2.000", Rupiah(2000))
	assert.Equal(t, "Rp 27.000", Rupiah(27000))
	assert.Equal(t, "Rp 1.250.000", Rupiah(1250000))
}

func TestOrderQR(t *testing.T) {
	png, err := OrderQR("TNC-1700000000123-ab12")

	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
