package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const countersCollection = "counters"

// sequence hands out increasing numeric ids so documents share the id space of the SQL store
type sequence struct {
	collection *mongo.Collection
}

func newSequence(database *mongo.Database) *sequence {
	return &sequence{collection: database.Collection(countersCollection)}
}

func (s *sequence) next(ctx context.Context, name string) (uint, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	return uint(counter.Value), nil
}
