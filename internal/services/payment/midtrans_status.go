package payment

import (
	"context"
	"errors"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"

	"taniconnect_back_end/internal/apperr"
)

type transactionChecker interface {
	CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

// TransactionStatus is the gateway's own record of a transaction.
type TransactionStatus struct {
	TransactionStatus string
	FraudStatus       string
	TransactionID     string
	PaymentType       string
}

// MidtransStatusClient reads transaction status from the Core API so that a
// notification is applied with the status Midtrans reports, not the one in
// the delivered body.
type MidtransStatusClient struct {
	core    transactionChecker
	timeout time.Duration
}

func NewMidtransStatusClient(serverKey string, production bool, timeout time.Duration) *MidtransStatusClient {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client coreapi.Client
	client.New(serverKey, env)
	return &MidtransStatusClient{core: &client, timeout: timeout}
}

func (c *MidtransStatusClient) TransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := callWithContext(ctx, func() (*coreapi.TransactionStatusResponse, error) {
		resp, mErr := c.core.CheckTransaction(orderID)
		if mErr != nil {
			return nil, mErr
		}
		return resp, nil
	})
	if err != nil {
		return nil, apperr.Gateway("check transaction status", err)
	}
	if resp == nil || resp.TransactionStatus == "" {
		return nil, apperr.Gateway("check transaction status", errors.New("empty transaction status"))
	}
	if resp.OrderID != "" && resp.OrderID != orderID {
		return nil, apperr.Gateway("check transaction status", errors.New("status is for order "+resp.OrderID))
	}

	return &TransactionStatus{
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		TransactionID:     resp.TransactionID,
		PaymentType:       resp.PaymentType,
	}, nil
}
