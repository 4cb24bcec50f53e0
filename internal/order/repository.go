package order

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo persists confirmed orders in a MongoDB collection. It implements
// the Creator collaborator consumed by the submission service.
type MongoRepo struct {
	C *mongo.Collection
}

// CreateOrder implements Creator. Returns the assigned order identifier.
func (r *MongoRepo) CreateOrder(ctx context.Context, order ConfirmedOrder) (string, error) {
	if r == nil || r.C == nil {
		return "", errors.New("order repository not configured")
	}
	if order.UserID == "" || len(order.Items) == 0 {
		return "", errors.New("missing required order information")
	}
	order.OrderID = primitive.NewObjectID().Hex()
	if _, err := r.C.InsertOne(ctx, order); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return order.OrderID, nil
}

// ListByUser returns the user's confirmed orders, newest first.
func (r *MongoRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ConfirmedOrder, error) {
	if r == nil || r.C == nil {
		return nil, errors.New("order repository not configured")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := r.C.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cur.Close(ctx)
	var orders []ConfirmedOrder
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// CountByUser returns the number of confirmed orders for the user.
func (r *MongoRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	if r == nil || r.C == nil {
		return 0, errors.New("order repository not configured")
	}
	total, err := r.C.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

// GetForUser loads one order scoped to its owner.
func (r *MongoRepo) GetForUser(ctx context.Context, userID, orderID string) (ConfirmedOrder, error) {
	if r == nil || r.C == nil {
		return ConfirmedOrder{}, errors.New("order repository not configured")
	}
	var order ConfirmedOrder
	err := r.C.FindOne(ctx, bson.M{"_id": orderID, "user_id": userID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ConfirmedOrder{}, ErrNotFound
		}
		return ConfirmedOrder{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}
