package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionInterface is the part of *mongo.Collection the document store
// uses, so tests can substitute an in-memory collection.
type CollectionInterface interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (UpdateResultInterface, error)
	CreateIndex(ctx context.Context, index mongo.IndexModel) (string, error)
}

type UpdateResultInterface interface {
	Matched() int64
	Upserted() bool
}

type CursorInterface interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Close(ctx context.Context) error
	Err() error
}

// Adapter to make *mongo.Collection compatible with CollectionInterface for production code

type MongoCollectionAdapter struct {
	col *mongo.Collection
}

func NewMongoCollectionAdapter(col *mongo.Collection) *MongoCollectionAdapter {
	return &MongoCollectionAdapter{col: col}
}

func (m *MongoCollectionAdapter) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error) {
	cur, err := m.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &MongoCursorAdapter{cur: cur}, nil
}

func (m *MongoCollectionAdapter) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (UpdateResultInterface, error) {
	res, err := m.col.ReplaceOne(ctx, filter, replacement, opts...)
	if err != nil {
		return nil, err
	}
	return &MongoUpdateResultAdapter{matched: res.MatchedCount, upserted: res.UpsertedID != nil}, nil
}

func (m *MongoCollectionAdapter) CreateIndex(ctx context.Context, index mongo.IndexModel) (string, error) {
	return m.col.Indexes().CreateOne(ctx, index)
}

// --- Adapters for result types ---

// MongoUpdateResultAdapter wraps the matched count
type MongoUpdateResultAdapter struct {
	matched  int64
	upserted bool
}

func (m *MongoUpdateResultAdapter) Matched() int64 { return m.matched }
func (m *MongoUpdateResultAdapter) Upserted() bool { return m.upserted }

type MongoCursorAdapter struct {
	cur *mongo.Cursor
}

func (m *MongoCursorAdapter) Next(ctx context.Context) bool   { return m.cur.Next(ctx) }
func (m *MongoCursorAdapter) Decode(val interface{}) error    { return m.cur.Decode(val) }
func (m *MongoCursorAdapter) Close(ctx context.Context) error { return m.cur.Close(ctx) }
func (m *MongoCursorAdapter) Err() error                      { return m.cur.Err() }
