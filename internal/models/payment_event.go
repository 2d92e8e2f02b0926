package models

import "time"

// Outcomes recorded for each gateway notification or orchestrator incident.
const (
	OutcomeApplied                = "applied"
	OutcomeUnchanged              = "unchanged"
	OutcomeHeld                   = "held"
	OutcomeIgnored                = "ignored"
	OutcomeRejectedSignature      = "rejected_signature"
	OutcomeOrderNotFound          = "order_not_found"
	OutcomeError                  = "error"
	OutcomeReconciliationRequired = "reconciliation_required"
)

type PaymentEvent struct {
	OrderID           string      `json:"orderId"`
	Provider          string      `json:"provider"`
	Outcome           string      `json:"outcome"`
	TransactionStatus string      `json:"transactionStatus,omitempty"`
	FraudStatus       string      `json:"fraudStatus,omitempty"`
	PreviousStatus    OrderStatus `json:"previousStatus,omitempty"`
	NewStatus         OrderStatus `json:"newStatus,omitempty"`
	Detail            string      `json:"detail,omitempty"`
	ReceivedAt        time.Time   `json:"receivedAt"`
}
