package user

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepo stores table-session users in the users collection.
type MongoRepo struct {
	Col *mongo.Collection
}

func NewMongoRepo(db *mongo.Database, col string) *MongoRepo {
	return &MongoRepo{Col: db.Collection(col)}
}

func (r *MongoRepo) Insert(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.Col.InsertOne(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}
