package repository

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taniconnect_back_end/internal/models"
)

// ErrInvalidReference is returned when a buyer or product id is not an ObjectID hex string.
var ErrInvalidReference = errors.New("invalid ObjectID reference")

// orderDocument is the stored shape of an order. Buyer and product ids are
// ObjectID references into the users and products collections.
type orderDocument struct {
	ID           string              `bson:"_id"`
	BuyerID      primitive.ObjectID  `bson:"buyerId"`
	Customer     models.Customer     `bson:"customer"`
	Items        []orderItemDocument `bson:"items"`
	Amount       models.OrderAmount  `bson:"amount"`
	ShippingInfo models.ShippingInfo `bson:"shippingInfo"`
	Status       models.OrderStatus  `bson:"status"`
	PaymentInfo  paymentDocument     `bson:"paymentInfo"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

type orderItemDocument struct {
	ProductID primitive.ObjectID `bson:"productId"`
	Name      string             `bson:"name"`
	Image     string             `bson:"image"`
	Price     int64              `bson:"price"`
	Quantity  int64              `bson:"quantity"`
}

type paymentDocument struct {
	MidtransTransactionID string `bson:"midtransTransactionId,omitempty"`
	PaymentType           string `bson:"paymentType,omitempty"`
	PaymentToken          string `bson:"paymentToken,omitempty"`
}

func newOrderDocument(o *models.Order) (*orderDocument, error) {
	buyer, err := primitive.ObjectIDFromHex(o.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("buyer %q: %w", o.BuyerID, ErrInvalidReference)
	}

	items := make([]orderItemDocument, 0, len(o.Items))
	for _, it := range o.Items {
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", it.ProductID, ErrInvalidReference)
		}
		items = append(items, orderItemDocument{
			ProductID: pid,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return &orderDocument{
		ID:           o.ID,
		BuyerID:      buyer,
		Customer:     o.Customer,
		Items:        items,
		Amount:       o.Amount,
		ShippingInfo: o.ShippingInfo,
		Status:       o.Status,
		PaymentInfo: paymentDocument{
			MidtransTransactionID: o.PaymentInfo.GatewayTransactionID,
			PaymentType:           o.PaymentInfo.PaymentType,
			PaymentToken:          o.PaymentInfo.PaymentToken,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}, nil
}

func (d *orderDocument) model() models.Order {
	items := make([]models.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID.Hex(),
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return models.Order{
		ID:           d.ID,
		BuyerID:      d.BuyerID.Hex(),
		Customer:     d.Customer,
		Items:        items,
		Amount:       d.Amount,
		ShippingInfo: d.ShippingInfo,
		Status:       d.Status,
		PaymentInfo: models.PaymentInfo{
			GatewayTransactionID: d.PaymentInfo.MidtransTransactionID,
			PaymentType:          d.PaymentInfo.PaymentType,
			PaymentToken:         d.PaymentInfo.PaymentToken,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
