package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const subscriptionsCollection = "subscriptions"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates the store on the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(subscriptionsCollection)}
}

func (s *MongoStore) InsertPending(ctx context.Context, sub *Subscription) error {
	now := time.Now().UTC()
	sub.Status = StatusPending
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("failed to insert pending subscription: %w", err)
	}
	return nil
}

func (s *MongoStore) LinkPreapprovalID(ctx context.Context, tempID, preapprovalID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"tempId": tempID},
		bson.M{"$set": bson.M{
			"preapprovalId": preapprovalID,
			"updatedAt":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to link preapproval id: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus enforces the transition table inside the update filter so a
// concurrent writer can never resurrect a cancelled record.
func (s *MongoStore) SetStatus(ctx context.Context, preapprovalID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	// Statuses nothing transitions to (pending) skip the update and
	// rely on the re-read below, where current==target is the no-op.
	if sources := transitionSources(status); len(sources) > 0 {
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"preapprovalId": preapprovalID, "status": bson.M{"$in": sources}},
			bson.M{"$set": bson.M{
				"status":    status,
				"updatedAt": time.Now().UTC(),
			}},
		)
		if err != nil {
			return fmt.Errorf("failed to set subscription status: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}

	// Nothing matched: distinguish missing record, no-op, and a
	// disallowed transition.
	current, err := s.FindByPreapprovalID(ctx, preapprovalID)
	if err != nil {
		return err
	}
	return resolveUnmatchedStatus(current.Status, status)
}

// resolveUnmatchedStatus decides the outcome when the guarded update
// matched nothing but the record exists: re-setting the current status
// is a no-op, anything else is a refused transition.
func resolveUnmatchedStatus(current, target Status) error {
	if current == target {
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, target)
}

// transitionSources returns the statuses allowed to move to target.
func transitionSources(target Status) []Status {
	var sources []Status
	for from, allowed := range allowedTransitions {
		for _, to := range allowed {
			if to == target {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

func (s *MongoStore) SetMetadata(ctx context.Context, preapprovalID string, md OperationalMetadata) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"preapprovalId": preapprovalID},
		bson.M{"$set": bson.M{
			"metadata":  md,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set subscription metadata: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindByTempID(ctx context.Context, tempID string) (*Subscription, error) {
	return s.findOne(ctx, bson.M{"tempId": tempID}, nil)
}

func (s *MongoStore) FindByPreapprovalID(ctx context.Context, preapprovalID string) (*Subscription, error) {
	return s.findOne(ctx, bson.M{"preapprovalId": preapprovalID}, nil)
}

func (s *MongoStore) FindAuthorizedByEmail(ctx context.Context, email string) (*Subscription, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.findOne(ctx, bson.M{"email": email, "status": StatusAuthorized}, opts)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts options.Lister[options.FindOneOptions]) (*Subscription, error) {
	var sub Subscription
	var err error
	if opts != nil {
		err = s.coll.FindOne(ctx, filter, opts).Decode(&sub)
	} else {
		err = s.coll.FindOne(ctx, filter).Decode(&sub)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return &sub, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}
