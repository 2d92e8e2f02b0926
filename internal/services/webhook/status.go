package webhook

import "taniconnect_back_end/internal/models"

// Action says what a gateway status means for the order.
type Action int

const (
	// ActionApply moves the order to Decision.Status.
	ActionApply Action = iota
	// ActionHold keeps the current status. The payment was captured but flagged by fraud screening.
	ActionHold
	// ActionIgnore keeps the current status. The gateway status is not one we map.
	ActionIgnore
)

type Decision struct {
	Action Action
	Status models.OrderStatus
}

// MapMidtransStatus maps a Midtrans transaction/fraud status pair onto an order status.
func MapMidtransStatus(transactionStatus, fraudStatus string) Decision {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return Decision{Action: ActionApply, Status: models.StatusPaid}
		}
		return Decision{Action: ActionHold}
	case "settlement":
		return Decision{Action: ActionApply, Status: models.StatusPaid}
	case "cancel", "deny", "expire":
		return Decision{Action: ActionApply, Status: models.StatusFailed}
	case "pending":
		return Decision{Action: ActionApply, Status: models.StatusPendingPayment}
	default:
		return Decision{Action: ActionIgnore}
	}
}

// MapStripeEvent maps a PaymentIntent event type onto an order status.
func MapStripeEvent(eventType string) Decision {
	switch eventType {
	case "payment_intent.succeeded":
		return Decision{Action: ActionApply, Status: models.StatusPaid}
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return Decision{Action: ActionApply, Status: models.StatusFailed}
	case "payment_intent.processing":
		return Decision{Action: ActionApply, Status: models.StatusPendingPayment}
	default:
		return Decision{Action: ActionIgnore}
	}
}
