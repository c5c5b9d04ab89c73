package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// mapFirestoreError translates gRPC status codes into store errors.
func mapFirestoreError(err error, collection, id string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	return fmt.Errorf("%s/%s: %w", collection, id, err)
}

// toFirestore replaces Increment values with Firestore transforms.
func toFirestore(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if inc, ok := v.(Increment); ok {
			out[k] = firestore.Increment(int64(inc))
			continue
		}
		out[k] = v
	}
	return out
}

func toUpdates(fields map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range toFirestore(fields) {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	return updates
}

// Get retrieves a document.
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, collection, id)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// Add creates a document with a generated id.
func (s *FirestoreStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestore(data))
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return ref.ID, nil
}

// Set overwrites a document.
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestore(data)); err != nil {
		return mapFirestoreError(err, collection, id)
	}
	return nil
}

// Merge writes fields with MergeAll, creating the document when missing.
func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestore(fields), firestore.MergeAll); err != nil {
		return mapFirestoreError(err, collection, id)
	}
	return nil
}

// Update writes fields of an existing document.
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields)); err != nil {
		return mapFirestoreError(err, collection, id)
	}
	return nil
}

// Delete removes a document.
func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return mapFirestoreError(err, collection, id)
	}
	return nil
}

// Query runs an equality query.
func (s *FirestoreStore) Query(ctx context.Context, collection, field string, value any) ([]Document, error) {
	return drain(s.client.Collection(collection).Where(field, "==", value).Documents(ctx), collection)
}

// All scans the collection.
func (s *FirestoreStore) All(ctx context.Context, collection string) ([]Document, error) {
	return drain(s.client.Collection(collection).Documents(ctx), collection)
}

func drain(it *firestore.DocumentIterator, collection string) ([]Document, error) {
	defer it.Stop()
	docs := []Document{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", collection, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
}

// RunTransaction runs fn in a Firestore transaction.
func (s *FirestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: s.client, tx: tx})
	})
}

// Close closes the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) Get(collection, id string) (*Document, error) {
	snap, err := t.tx.Get(t.client.Collection(collection).Doc(id))
	if err != nil {
		return nil, mapFirestoreError(err, collection, id)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (t *firestoreTx) Create(collection, id string, data map[string]any) error {
	return t.tx.Create(t.client.Collection(collection).Doc(id), toFirestore(data))
}

func (t *firestoreTx) Update(collection, id string, fields map[string]any) error {
	return t.tx.Update(t.client.Collection(collection).Doc(id), toUpdates(fields))
}

func (t *firestoreTx) Merge(collection, id string, fields map[string]any) error {
	return t.tx.Set(t.client.Collection(collection).Doc(id), toFirestore(fields), firestore.MergeAll)
}
