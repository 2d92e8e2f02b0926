package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taniconnect_back_end/internal/models"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order id already exists")
)

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection("orders")}
}

// Create inserts a new order document. The id is assigned by the caller.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	doc, err := newOrderDocument(order)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindForBuyer returns the order only when it belongs to buyerID.
func (r *OrderRepository) FindForBuyer(ctx context.Context, id, buyerID string) (*models.Order, error) {
	buyer, err := primitive.ObjectIDFromHex(buyerID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return r.findOne(ctx, bson.M{"_id": id, "buyerId": buyer})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order := doc.model()
	return &order, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	orders := []models.Order{}
	buyer, err := primitive.ObjectIDFromHex(buyerID)
	if err != nil {
		return orders, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"buyerId": buyer}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	for i := range docs {
		orders = append(orders, docs[i].model())
	}
	return orders, nil
}

// UpdatePayment writes the status unconditionally and merges the non-empty
// gateway fields of info. The payment token written at creation is kept.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id string, status models.OrderStatus, info models.PaymentInfo) error {
	set := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if info.GatewayTransactionID != "" {
		set["paymentInfo.midtransTransactionId"] = info.GatewayTransactionID
	}
	if info.PaymentType != "" {
		set["paymentInfo.paymentType"] = info.PaymentType
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
