// Package search keeps an Elasticsearch copy of orders for support tooling.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"taniconnect_back_end/internal/models"
)

const indexName = "orders"

type OrderIndex struct {
	client *elasticsearch.Client
}

func NewOrderIndex(client *elasticsearch.Client) *OrderIndex {
	return &OrderIndex{client: client}
}

// document is the indexed shape. Item names and city are flattened for full-text queries.
type document struct {
	ID        string             `json:"id"`
	BuyerID   string             `json:"buyerId"`
	Status    models.OrderStatus `json:"status"`
	Customer  string             `json:"customer"`
	Email     string             `json:"email"`
	ItemNames []string           `json:"itemNames"`
	City      string             `json:"city"`
	Courier   string             `json:"courier"`
	Total     int64              `json:"total"`
	CreatedAt string             `json:"createdAt"`
	Order     models.Order       `json:"order"`
}

func toDocument(o models.Order) document {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		names = append(names, it.Name)
	}
	return document{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		Status:    o.Status,
		Customer:  o.Customer.Name,
		Email:     o.Customer.Email,
		ItemNames: names,
		City:      o.ShippingInfo.City,
		Courier:   o.ShippingInfo.Courier,
		Total:     o.Amount.Total,
		CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Order:     o,
	}
}

func (ix *OrderIndex) IndexOrder(ctx context.Context, o models.Order) error {
	data, err := json.Marshal(toDocument(o))
	if err != nil {
		return fmt.Errorf("failed to encode order %s: %w", o.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: o.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("elastic request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic rejected order %s: %s", o.ID, res.String())
	}
	return nil
}

// OrderStatusChanged re-indexes the order with its new status.
func (ix *OrderIndex) OrderStatusChanged(ctx context.Context, o models.Order, _ models.OrderStatus) error {
	return ix.IndexOrder(ctx, o)
}

// Search runs a full-text query over order id, buyer, status, item names and city.
func (ix *OrderIndex) Search(ctx context.Context, query string, size int) ([]models.Order, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(query, size)); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  &buf,
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return nil, fmt.Errorf("elastic request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("❌ Elasticsearch error: %s", res.String())
		return nil, errors.New("order search failed")
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	orders := make([]models.Order, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		orders = append(orders, h.Source.Order)
	}
	return orders, nil
}

func searchBody(query string, size int) map[string]interface{} {
	return map[string]interface{}{
		"size": size,
		"sort": []interface{}{map[string]interface{}{"createdAt": "desc"}},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":   query,
				"fields":  []string{"id^3", "buyerId^2", "status", "customer", "email", "itemNames", "city", "courier"},
				"lenient": true,
			},
		},
	}
}
