// Package mongo persists log documents and the allowlist in MongoDB: one
// database per monitored account, one collection per log type.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

// Documents implements ports.DocumentStore on a MongoDB client.
type Documents struct {
	client *mongo.Client
}

func NewDocuments(client *mongo.Client) *Documents {
	return &Documents{client: client}
}

func (s *Documents) InsertOne(ctx context.Context, namespace, collection string, doc domain.Document) error {
	coll := s.client.Database(namespace).Collection(collection)
	if _, err := coll.InsertOne(ctx, bson.M(doc)); err != nil {
		return classify(fmt.Errorf("insert into %s.%s: %w", namespace, collection, err))
	}
	return nil
}

// UpsertByCapID $sets doc on the first document matching capID, inserting it
// when none matches.
func (s *Documents) UpsertByCapID(ctx context.Context, namespace, collection, capID string, doc domain.Document) error {
	coll := s.client.Database(namespace).Collection(collection)
	filter := bson.M{domain.FieldCapID: capID}
	update := bson.M{"$set": bson.M(doc)}
	if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return classify(fmt.Errorf("upsert %s.%s cap_id=%s: %w", namespace, collection, capID, err))
	}
	return nil
}

// classify marks server-side write rejections as permanent. Network errors,
// timeouts and write-concern failures stay retryable.
func classify(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", sentinel.ErrRejected, err)
	}
	var we mongo.WriteException
	if errors.As(err, &we) && len(we.WriteErrors) > 0 {
		return fmt.Errorf("%w: %w", sentinel.ErrRejected, err)
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}
