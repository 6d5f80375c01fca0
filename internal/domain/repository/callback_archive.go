package repository

import (
	"context"
	"fmt"

	"creativerse/internal/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CallbackArchive keeps the raw payment gateway callbacks for audits and refunds.
type CallbackArchive interface {
	Save(ctx context.Context, cb model.GatewayCallback) error
	ListByTransaction(ctx context.Context, transactionID string) ([]model.GatewayCallback, error)
}

type MongoCallbackArchive struct {
	coll *mongo.Collection
}

var _ CallbackArchive = (*MongoCallbackArchive)(nil)

func NewMongoCallbackArchive(db *mongo.Database) *MongoCallbackArchive {
	return &MongoCallbackArchive{coll: db.Collection("payment_callbacks")}
}

// NewMongoCallbackArchiveFromCollection is used by tests that already hold a collection.
func NewMongoCallbackArchiveFromCollection(coll *mongo.Collection) *MongoCallbackArchive {
	return &MongoCallbackArchive{coll: coll}
}

func (a *MongoCallbackArchive) Save(ctx context.Context, cb model.GatewayCallback) error {
	if _, err := a.coll.InsertOne(ctx, cb); err != nil {
		return fmt.Errorf("MongoCallbackArchive.Save: %w", err)
	}
	return nil
}

func (a *MongoCallbackArchive) ListByTransaction(ctx context.Context, transactionID string) ([]model.GatewayCallback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "received_at", Value: 1}})
	cursor, err := a.coll.Find(ctx, bson.M{"transaction_id": transactionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("MongoCallbackArchive.ListByTransaction: %w", err)
	}
	defer cursor.Close(ctx)

	var out []model.GatewayCallback
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("MongoCallbackArchive.ListByTransaction decode: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the lookup index on transaction_id.
func (a *MongoCallbackArchive) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "transaction_id", Value: 1}, {Key: "received_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("MongoCallbackArchive.EnsureIndexes: %w", err)
	}
	return nil
}
