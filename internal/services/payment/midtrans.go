package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"taniconnect_back_end/internal/apperr"
)

const ProviderMidtrans = "midtrans"

type snapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// MidtransGateway creates Snap transactions.
type MidtransGateway struct {
	snap    snapCreator
	timeout time.Duration
}

func NewMidtransGateway(serverKey string, production bool, timeout time.Duration) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &MidtransGateway{snap: &client, timeout: timeout}
}

func (g *MidtransGateway) Provider() string { return ProviderMidtrans }

func (g *MidtransGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	for _, it := range req.Items {
		if it.Quantity < 1 || it.Quantity > math.MaxInt32 {
			return nil, apperr.Gateway("create snap transaction",
				fmt.Errorf("item %s quantity %d out of range", it.ID, it.Quantity))
		}
	}

	resp, err := callWithContext(ctx, func() (*snap.Response, error) {
		resp, mErr := g.snap.CreateTransaction(buildSnapRequest(req))
		if mErr != nil {
			return nil, mErr
		}
		return resp, nil
	})
	if err != nil {
		var mErr *midtrans.Error
		if errors.As(err, &mErr) {
			log.Printf("❌ Midtrans error for %s: %s (status %d)", req.OrderID, mErr.Message, mErr.StatusCode)
		}
		return nil, apperr.Gateway("create snap transaction", err)
	}
	if resp == nil || resp.Token == "" {
		return nil, apperr.Gateway("create snap transaction", errors.New("empty token in response"))
	}

	return &Session{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func buildSnapRequest(req SessionRequest) *snap.Request {
	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  truncate(it.Name, 50),
			Price: it.Price,
			Qty:   int32(it.Quantity),
		})
	}

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		Items: &items,
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	}
}

// Midtrans rejects item names longer than 50 characters.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
