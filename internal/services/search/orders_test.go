package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taniconnect_back_end/internal/models"
)

type recorded struct {
	method, path string
	body         map[string]interface{}
}

func newTestIndex(t *testing.T, status int, response string) (*OrderIndex, *[]recorded) {
	t.Helper()
	calls := &[]recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &rec.body)
		*calls = append(*calls, rec)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewOrderIndex(client), calls
}

func sampleOrder() models.Order {
	return models.Order{
		ID:           "TNC-1700000000123-ab12",
		BuyerID:      "64b7f0c2e1d3a4b5c6d7ab12",
		Status:       models.StatusPaid,
		Customer:     models.Customer{Name: "Siti", Email: "siti@example.com"},
		Items:        []models.OrderItem{{ProductID: "p1", Name: "Tomat", Price: 10000, Quantity: 2}},
		Amount:       models.OrderAmount{Subtotal: 20000, Shipping: 5000, AppFee: 2000, Total: 27000},
		ShippingInfo: models.ShippingInfo{City: "Bandung", Courier: "jne"},
	}
}

func TestIndexOrder(t *testing.T) {
	ix, calls := newTestIndex(t, http.StatusCreated, `{"result":"created"}`)

	require.NoError(t, ix.IndexOrder(context.Background(), sampleOrder()))

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "/orders/_doc/TNC-1700000000123-ab12", c.path)
	assert.Equal(t, "paid", c.body["status"])
	assert.Equal(t, "Bandung", c.body["city"])
	assert.Equal(t, []interface{}{"Tomat"}, c.body["itemNames"])
}

func TestIndexOrder_ElasticError(t *testing.T) {
	ix, _ := newTestIndex(t, http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`)

	assert.Error(t, ix.IndexOrder(context.Background(), sampleOrder()))
}

func TestSearch(t *testing.T) {
	doc, _ := json.Marshal(toDocument(sampleOrder()))
	ix, calls := newTestIndex(t, http.StatusOK, `{"hits":{"hits":[{"_source":`+string(doc)+`}]}}`)

	orders, err := ix.Search(context.Background(), "Bandung", 20)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "TNC-1700000000123-ab12", orders[0].ID)
	assert.Equal(t, int64(27000), orders[0].Amount.Total)
	assert.Equal(t, "/orders/_search", (*calls)[0].path)
	assert.EqualValues(t, 20, (*calls)[0].body["size"])
}

func TestSearch_ElasticError(t *testing.T) {
	ix, _ := newTestIndex(t, http.StatusNotFound, `{"error":"index_not_found_exception"}`)

	_, err := ix.Search(context.Background(), "x", 10)

	assert.Error(t, err)
}
