// Package notify e-mails buyers when their payment settles or fails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/wneessen/go-mail"

	"taniconnect_back_end/internal/config"
	"taniconnect_back_end/internal/models"
)

const sendTimeout = 30 * time.Second

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	client      sender
	from        string
	frontendURL string
	async       bool
}

func NewMailer(cfg config.SMTPConfig, frontendURL string) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &Mailer{client: client, from: cfg.From, frontendURL: frontendURL, async: true}, nil
}

// OrderStatusChanged mails the buyer about paid and failed orders. Sending
// happens in the background; other statuses are skipped.
func (m *Mailer) OrderStatusChanged(ctx context.Context, order models.Order, _ models.OrderStatus) error {
	if order.Status != models.StatusPaid && order.Status != models.StatusFailed {
		return nil
	}
	if order.Customer.Email == "" {
		return fmt.Errorf("order %s has no customer e-mail", order.ID)
	}

	msg, err := m.buildMessage(order)
	if err != nil {
		return err
	}

	if !m.async {
		return m.send(ctx, order, msg)
	}
	go func() {
		if err := m.send(context.WithoutCancel(ctx), order, msg); err != nil {
			log.Printf("❌ Failed to e-mail %s about order %s: %v", order.Customer.Email, order.ID, err)
		}
	}()
	return nil
}

func (m *Mailer) send(ctx context.Context, order models.Order, msg *mail.Msg) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	log.Printf("📤 Sending %s e-mail for order %s", order.Status, order.ID)
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) buildMessage(order models.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(order.Customer.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject(order))

	var body bytes.Buffer
	if err := statusTemplate.Execute(&body, newView(order, m.frontendURL)); err != nil {
		return nil, fmt.Errorf("failed to render e-mail: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	png, err := OrderQR(order.ID)
	if err != nil {
		return nil, err
	}
	if err := msg.AttachReader("pesanan-"+order.ID+".png", bytes.NewReader(png)); err != nil {
		return nil, fmt.Errorf("failed to attach QR code: %w", err)
	}
	return msg, nil
}

// OrderQR encodes the order id as a PNG QR code for pickup and support lookups.
func OrderQR(orderID string) ([]byte, error) {
	png, err := qrcode.Encode(orderID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

func subject(order models.Order) string {
	if order.Status == models.StatusPaid {
		return "Pembayaran diterima - " + order.ID
	}
	return "Pembayaran gagal - " + order.ID
}

// Rupiah formats whole rupiah with dot thousands separators: 27000 -> "Rp 27.000".
func Rupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}
