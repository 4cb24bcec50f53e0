package events

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore persists events in a MongoDB collection.
type MongoStore struct {
	C *mongo.Collection
}

// InsertEvent implements Store.
func (s *MongoStore) InsertEvent(ctx context.Context, ev Event) (Event, error) {
	if s == nil || s.C == nil {
		return Event{}, errors.New("events: mongo store not configured")
	}
	ev.ID = primitive.NewObjectID().Hex()
	if _, err := s.C.InsertOne(ctx, ev); err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}
