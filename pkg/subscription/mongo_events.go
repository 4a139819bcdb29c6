package subscription

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const eventsCollection = "webhook_events"

// MongoEventStore implements EventStore on a MongoDB collection.
type MongoEventStore struct {
	coll *mongo.Collection
}

func NewMongoEventStore(db *mongo.Database) *MongoEventStore {
	return &MongoEventStore{coll: db.Collection(eventsCollection)}
}

func (s *MongoEventStore) Append(ctx context.Context, event *WebhookEvent) error {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append webhook event: %w", err)
	}
	return nil
}

func (s *MongoEventStore) ListRecent(ctx context.Context, limit int64) ([]WebhookEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "receivedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []WebhookEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode webhook events: %w", err)
	}
	return events, nil
}

func (s *MongoEventStore) HasRecentAuthorizedCharge(ctx context.Context, email string, since time.Time) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"summary.payerEmail": email,
		"summary.status":     string(StatusAuthorized),
		"receivedAt":         bson.M{"$gte": since},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to query webhook events: %w", err)
	}
	return count > 0, nil
}
