// Package audit keeps the payment event trail in ScyllaDB.
package audit

import (
	"context"
	"fmt"
	"log"

	"github.com/gocql/gocql"

	"taniconnect_back_end/internal/models"
)

// Events without an order id (a Stripe delivery that failed verification)
// are filed under this partition.
const unknownOrder = "-"

const (
	createTable = `CREATE TABLE IF NOT EXISTS payment_events (
		order_id text,
		event_id timeuuid,
		provider text,
		outcome text,
		transaction_status text,
		fraud_status text,
		previous_status text,
		new_status text,
		detail text,
		received_at timestamp,
		PRIMARY KEY (order_id, event_id)
	) WITH CLUSTERING ORDER BY (event_id DESC)`

	insertEvent = `INSERT INTO payment_events (order_id, event_id, provider, outcome, transaction_status,
		fraud_status, previous_status, new_status, detail, received_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectEvents = `SELECT provider, outcome, transaction_status, fraud_status, previous_status, new_status,
		detail, received_at FROM payment_events WHERE order_id = ? LIMIT ?`
)

type ScyllaLog struct {
	session *gocql.Session
}

func NewScyllaLog(session *gocql.Session) *ScyllaLog {
	return &ScyllaLog{session: session}
}

// Migrate creates the payment_events table in the session keyspace.
func (l *ScyllaLog) Migrate(ctx context.Context) error {
	if err := l.session.Query(createTable).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to create payment_events: %w", err)
	}
	log.Println("✅ payment_events table ready")
	return nil
}

func (l *ScyllaLog) Record(ctx context.Context, event models.PaymentEvent) error {
	err := l.session.Query(insertEvent, insertArgs(event, gocql.TimeUUID())...).
		WithContext(ctx).
		Consistency(gocql.One).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert payment event: %w", err)
	}
	return nil
}

// ListForOrder returns the newest events first.
func (l *ScyllaLog) ListForOrder(ctx context.Context, orderID string, limit int) ([]models.PaymentEvent, error) {
	iter := l.session.Query(selectEvents, orderID, limit).WithContext(ctx).Iter()

	events := []models.PaymentEvent{}
	var (
		e              models.PaymentEvent
		previous, next string
	)
	for iter.Scan(&e.Provider, &e.Outcome, &e.TransactionStatus, &e.FraudStatus, &previous, &next, &e.Detail, &e.ReceivedAt) {
		e.OrderID = orderID
		e.PreviousStatus = models.OrderStatus(previous)
		e.NewStatus = models.OrderStatus(next)
		events = append(events, e)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read payment events: %w", err)
	}
	return events, nil
}

func insertArgs(e models.PaymentEvent, id gocql.UUID) []interface{} {
	orderID := e.OrderID
	if orderID == "" {
		orderID = unknownOrder
	}
	return []interface{}{
		orderID,
		id,
		e.Provider,
		e.Outcome,
		e.TransactionStatus,
		e.FraudStatus,
		string(e.PreviousStatus),
		string(e.NewStatus),
		e.Detail,
		e.ReceivedAt,
	}
}
