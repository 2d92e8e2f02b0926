// Package pricing rebuilds order lines from the catalog so that prices and
// names submitted by the client never reach an order.
package pricing

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/models"
)

// MsgProductsMissing is returned when a requested product id is not in the catalog.
const MsgProductsMissing = "Some products in your cart could not be found."

// MsgAmountTooLarge is returned when the order amount cannot be represented.
const MsgAmountTooLarge = "Order amount is too large"

type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// Line is a product reference and quantity as submitted by the buyer.
type Line struct {
	ProductID string
	Quantity  int64
}

type Result struct {
	Items    []models.OrderItem
	Subtotal int64
}

type Recalculator struct {
	products ProductFinder
}

func NewRecalculator(products ProductFinder) *Recalculator {
	return &Recalculator{products: products}
}

// Recalculate prices every line with the catalog price at call time. It is
// all-or-nothing: one unknown product id fails the whole request.
func (r *Recalculator) Recalculate(ctx context.Context, lines []Line) (*Result, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("Cart must not be empty",
			apperr.FieldError{Field: "items", Message: "at least one item is required"})
	}

	ids := make([]primitive.ObjectID, 0, len(lines))
	seen := make(map[primitive.ObjectID]struct{}, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("Quantity must be a positive number",
				apperr.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be greater than 0"})
		}
		oid, err := primitive.ObjectIDFromHex(line.ProductID)
		if err != nil {
			return nil, apperr.Validation(MsgProductsMissing,
				apperr.FieldError{Field: fmt.Sprintf("items[%d].productId", i), Message: "unknown product"})
		}
		if _, dup := seen[oid]; !dup {
			seen[oid] = struct{}{}
			ids = append(ids, oid)
		}
	}

	products, err := r.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) != len(ids) {
		return nil, apperr.Validation(MsgProductsMissing)
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID.Hex()] = p
	}

	result := &Result{Items: make([]models.OrderItem, 0, len(lines))}
	for i, line := range lines {
		p, ok := byID[normalizeID(line.ProductID)]
		if !ok {
			return nil, apperr.Validation(MsgProductsMissing)
		}
		item := models.OrderItem{
			ProductID: p.ID.Hex(),
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			Price:     p.Price,
			Quantity:  line.Quantity,
		}
		lineTotal, err := Multiply(item.Price, item.Quantity)
		if err == nil {
			result.Subtotal, err = Sum(result.Subtotal, lineTotal)
		}
		if err != nil {
			return nil, apperr.Validation(MsgAmountTooLarge,
				apperr.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "order amount is too large"})
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// normalizeID lower-cases hex ids so "ABC..." and "abc..." match the catalog key.
func normalizeID(id string) string {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}
	return oid.Hex()
}
