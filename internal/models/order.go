package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusFailed         OrderStatus = "failed"
)

// Valid reports whether s is one of the persisted order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Order is the snapshot of a checkout. Items, amounts and shipping info are
// frozen at creation; only Status and PaymentInfo change afterwards. Buyer
// and product ids are ObjectID hex strings; the repository stores them as
// ObjectID references.
type Order struct {
	ID           string       `json:"_id"`
	BuyerID      string       `json:"buyerId"`
	Customer     Customer     `json:"customer"`
	Items        []OrderItem  `json:"items"`
	Amount       OrderAmount  `json:"amount"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	Status       OrderStatus  `json:"status"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

// LineTotal is the unit price snapshot times the quantity.
func (i OrderItem) LineTotal() int64 {
	return i.Price * i.Quantity
}

// OrderAmount is expressed in whole rupiah.
type OrderAmount struct {
	Subtotal int64 `bson:"subtotal" json:"subtotal"`
	Shipping int64 `bson:"shipping" json:"shipping"`
	AppFee   int64 `bson:"appFee" json:"appFee"`
	Total    int64 `bson:"total" json:"total"`
}

type ShippingInfo struct {
	Address    string `bson:"address" json:"address" validate:"required"`
	City       string `bson:"city" json:"city" validate:"required"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Courier    string `bson:"courier" json:"courier" validate:"required"`
	Service    string `bson:"service" json:"service" validate:"required"`
	Cost       int64  `bson:"cost" json:"cost" validate:"gte=0"`
	Etd        string `bson:"etd,omitempty" json:"etd,omitempty"`
}

type PaymentInfo struct {
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
	PaymentType          string `json:"paymentType,omitempty"`
	PaymentToken         string `json:"paymentToken,omitempty"`
}

// Customer is the buyer contact captured when the order was placed.
type Customer struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}
