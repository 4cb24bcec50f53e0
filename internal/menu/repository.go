package menu

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spicefactory/backend-dine/internal/store"
)

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	DB *mongo.Database
}

func (r *MongoRepo) col() *mongo.Collection {
	return r.DB.Collection(store.ColMenuItems)
}

// List implements Repo, sorted by display id ascending.
func (r *MongoRepo) List(ctx context.Context) ([]Item, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("menu repository not configured")
	}
	opts := options.Find().SetSort(bson.D{{Key: "display_id", Value: 1}})
	cur, err := r.col().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer cur.Close(ctx)
	var items []Item
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode menu items: %w", err)
	}
	return items, nil
}

// Insert implements Repo.
func (r *MongoRepo) Insert(ctx context.Context, item Item) (Item, error) {
	if r == nil || r.DB == nil {
		return Item{}, errors.New("menu repository not configured")
	}
	item.ID = primitive.NewObjectID().Hex()
	if _, err := r.col().InsertOne(ctx, item); err != nil {
		return Item{}, fmt.Errorf("insert menu item: %w", err)
	}
	return item, nil
}

// Update implements Repo, replacing the mutable fields.
func (r *MongoRepo) Update(ctx context.Context, id string, in Input) (Item, error) {
	if r == nil || r.DB == nil {
		return Item{}, errors.New("menu repository not configured")
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":     in.Name,
			"price":    in.Price,
			"category": in.Category,
		},
		"$currentDate": bson.M{"updated_at": true},
	}
	var item Item
	err := r.col().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("update menu item: %w", err)
	}
	return item, nil
}

// Delete implements Repo.
func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	if r == nil || r.DB == nil {
		return errors.New("menu repository not configured")
	}
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// NextDisplayID implements Repo via the shared counter collection.
func (r *MongoRepo) NextDisplayID(ctx context.Context) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, errors.New("menu repository not configured")
	}
	return store.NextSequence(ctx, r.DB, "menu_display_id")
}
