package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"capacitor/internal/capacitor/domain"
)

type accountRecord struct {
	AccountID string `bson:"account_id"`
}

// Allowlist stores monitored accounts in capacitor.allowed_account_ids.
type Allowlist struct {
	coll *mongo.Collection
}

func NewAllowlist(client *mongo.Client) *Allowlist {
	return &Allowlist{
		coll: client.Database(domain.AllowlistNamespace).Collection(domain.AllowlistCollection),
	}
}

func (s *Allowlist) List(ctx context.Context) ([]string, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"account_id": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("list allowed accounts: %w", err)
	}
	var records []accountRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("read allowed accounts: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.AccountID)
	}
	return ids, nil
}

func (s *Allowlist) Exists(ctx context.Context, accountID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"account_id": accountID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check allowed account: %w", err)
	}
	return n > 0, nil
}

// Insert adds accountID unless a record for it already exists, so writers in
// other processes cannot store it twice. A duplicate key from a unique index
// on account_id means another writer won the race and is not an error.
func (s *Allowlist) Insert(ctx context.Context, accountID string) error {
	filter := bson.M{"account_id": accountID}
	update := bson.M{"$setOnInsert": accountRecord{AccountID: accountID}}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert allowed account: %w", err)
	}
	return nil
}
