package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoConfig describes the MongoDB deployment backing the store.
type MongoConfig struct {
	URI     string
	DBName  string
	Timeout time.Duration
}

// NewMongoConnection connects and pings MongoDB, disconnecting again when the ping fails.
func NewMongoConnection(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.DBName))
	return client, nil
}

// MongoStore implements Store on MongoDB. Document ids are stored in _id as strings.
// Transactions need a replica set deployment.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore wraps a connected client.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

// splitUpdate builds a $set/$inc update document.
func splitUpdate(fields map[string]any) bson.M {
	set := bson.M{}
	inc := bson.M{}
	for k, v := range fields {
		if n, ok := v.(Increment); ok {
			inc[k] = int64(n)
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	return update
}

// withoutIncrements resolves Increment values against an absent document.
func withoutIncrements(data map[string]any) bson.M {
	out := bson.M{}
	for k, v := range data {
		if n, ok := v.(Increment); ok {
			out[k] = int64(n)
			continue
		}
		out[k] = v
	}
	return out
}

// plain converts decoded BSON into the map/slice/time shapes the rest of the code reads.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return t.String()
		}
		return f
	}
	return v
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func toDocument(raw bson.M) Document {
	data := plainMap(raw)
	id, _ := data["_id"].(string)
	delete(data, "_id")
	return Document{ID: id, Data: data}
}

func findOne(ctx context.Context, coll *mongo.Collection, collection, id string) (*Document, error) {
	var raw bson.M
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	doc := toDocument(raw)
	return &doc, nil
}

// Get retrieves a document.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	return findOne(ctx, s.db.Collection(collection), collection, id)
}

// Add inserts a document under a generated id.
func (s *MongoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	doc := withoutIncrements(data)
	doc["_id"] = id
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return id, nil
}

// Set replaces (or inserts) a document.
func (s *MongoStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	doc := withoutIncrements(data)
	doc["_id"] = id
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return nil
}

// Merge upserts fields.
func (s *MongoStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, splitUpdate(fields), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return nil
}

// Update writes fields of an existing document.
func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return updateExisting(ctx, s.db.Collection(collection), collection, id, fields)
}

func updateExisting(ctx context.Context, coll *mongo.Collection, collection, id string, fields map[string]any) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, splitUpdate(fields))
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return nil
}

// Query returns the documents where field equals value.
func (s *MongoStore) Query(ctx context.Context, collection, field string, value any) ([]Document, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

// All returns every document of the collection.
func (s *MongoStore) All(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDocument(raw))
	}
	return docs, nil
}

// RunTransaction runs fn inside a session transaction.
func (s *MongoStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, &mongoTx{ctx: sc, db: s.db})
	})
	return err
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type mongoTx struct {
	ctx mongo.SessionContext
	db  *mongo.Database
}

func (t *mongoTx) Get(collection, id string) (*Document, error) {
	return findOne(t.ctx, t.db.Collection(collection), collection, id)
}

func (t *mongoTx) Create(collection, id string, data map[string]any) error {
	doc := withoutIncrements(data)
	doc["_id"] = id
	if _, err := t.db.Collection(collection).InsertOne(t.ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
		}
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return nil
}

func (t *mongoTx) Update(collection, id string, fields map[string]any) error {
	return updateExisting(t.ctx, t.db.Collection(collection), collection, id, fields)
}

func (t *mongoTx) Merge(collection, id string, fields map[string]any) error {
	_, err := t.db.Collection(collection).UpdateOne(t.ctx, bson.M{"_id": id}, splitUpdate(fields), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return nil
}
