package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore is a store backed by a MongoDB collection. Expiry is enforced
// on read and by a TTL index on expires_at, which lets the server reap
// stale documents in the background.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDocument struct {
	Key       string     `bson:"_id"`
	Value     string     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

func (d mongoDocument) expired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// NewMongoStore connects to uri and uses database.collection for entries.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Get retrieves a value from the collection.
func (s *MongoStore) Get(ctx context.Context, key string) (string, bool, error) {
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if doc.expired(time.Now()) {
		return "", false, nil
	}
	return doc.Value, true, nil
}

// Set upserts a value, clearing any previous expiry.
func (s *MongoStore) Set(ctx context.Context, key, value string) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoDocument{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Expire sets the expiry of an existing key.
func (s *MongoStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"expires_at": time.Now().Add(ttl)}},
	)
	return err
}

// Keys lists live keys matching pattern.
func (s *MongoStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	filter := bson.M{
		"_id": bson.M{"$regex": globRegexp(pattern).String()},
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []mongoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, d.Key)
	}
	return keys, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
