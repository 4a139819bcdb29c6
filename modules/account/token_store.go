package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// LoginToken is an ephemeral magic-link record. It is destroyed on
// consumption; expired tokens are simply never matched.
type LoginToken struct {
	Token     string    `bson:"token"`
	Email     string    `bson:"email"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// TokenStore persists magic-link tokens. Consume must be atomic at the
// storage layer: under concurrent duplicate requests exactly one caller
// may receive the token.
type TokenStore interface {
	Create(ctx context.Context, token *LoginToken) error
	Consume(ctx context.Context, token string, now time.Time) (*LoginToken, error)
}

const tokensCollection = "login_tokens"

// MongoTokenStore implements TokenStore. Single-use consumption rides on
// FindOneAndDelete, which is atomic per document.
type MongoTokenStore struct {
	coll *mongo.Collection
}

func NewMongoTokenStore(db *mongo.Database) *MongoTokenStore {
	return &MongoTokenStore{coll: db.Collection(tokensCollection)}
}

func (s *MongoTokenStore) Create(ctx context.Context, token *LoginToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, token); err != nil {
		return fmt.Errorf("failed to store login token: %w", err)
	}
	return nil
}

func (s *MongoTokenStore) Consume(ctx context.Context, token string, now time.Time) (*LoginToken, error) {
	var record LoginToken
	err := s.coll.FindOneAndDelete(ctx, bson.M{
		"token":     token,
		"expiresAt": bson.M{"$gt": now},
	}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to consume login token: %w", err)
	}
	return &record, nil
}
