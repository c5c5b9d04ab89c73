package db

import (
	"context"
	"errors"
)

// Collection names shared by every backend.
const (
	UsersCollection  = "users"
	OrdersCollection = "orders"
	IssuesCollection = "issues"
	// PaymentsCollection is keyed by gateway payment id.
	PaymentsCollection = "payments"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned by Create when the document id is taken.
var ErrAlreadyExists = errors.New("document already exists")

// Document is a schemaless record addressed by collection and id.
type Document struct {
	ID   string
	Data map[string]any
}

// Increment is a field value that atomically adds to the stored number instead of
// overwriting it. A missing field is treated as zero.
type Increment int64

// Store is the remote document store: single-document reads and writes, equality queries,
// full collection scans and atomic multi-document transactions.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Add creates a document with a store-generated id and returns that id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Set overwrites (or creates) the whole document.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Merge writes the given fields, creating the document when missing.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	// Update writes the given fields of an existing document; ErrNotFound otherwise.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Query returns the documents whose field equals value, in store order.
	Query(ctx context.Context, collection, field string, value any) ([]Document, error)
	// All returns every document of the collection, in store order.
	All(ctx context.Context, collection string) ([]Document, error)
	// RunTransaction runs fn atomically. Reads must precede writes inside fn. fn may be
	// retried by the backend on contention, so it must not have side effects outside tx.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	Get(collection, id string) (*Document, error)
	Create(collection, id string, data map[string]any) error
	Update(collection, id string, fields map[string]any) error
	Merge(collection, id string, fields map[string]any) error
}
