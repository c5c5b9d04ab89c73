package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Write is one committed mutation, recorded by MemoryStore.
type Write struct {
	Op         string
	Collection string
	ID         string
	Fields     map[string]any
}

// MemoryStore is an in-process Store for development runs and tests. Transactions are
// serialized and their writes applied together when fn returns nil.
type MemoryStore struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	data   map[string]map[string]map[string]any
	order  map[string][]string
	writes []Write
	fail   map[string]error
	txFail error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  map[string]map[string]map[string]any{},
		order: map[string][]string{},
		fail:  map[string]error{},
	}
}

// Seed stores a document without recording a write.
func (m *MemoryStore) Seed(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, copyMap(data))
}

// FailCollection makes every read of collection return err. A nil err clears it.
func (m *MemoryStore) FailCollection(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, collection)
		return
	}
	m.fail[collection] = err
}

// FailTransactions makes RunTransaction return err without running fn.
func (m *MemoryStore) FailTransactions(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txFail = err
}

// Writes returns the writes committed so far.
func (m *MemoryStore) Writes() []Write {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// WritesTo returns the committed writes addressed to collection.
func (m *MemoryStore) WritesTo(collection string) []Write {
	var out []Write
	for _, w := range m.Writes() {
		if w.Collection == collection {
			out = append(out, w)
		}
	}
	return out
}

func (m *MemoryStore) put(collection, id string, doc map[string]any) {
	coll, ok := m.data[collection]
	if !ok {
		coll = map[string]map[string]any{}
		m.data[collection] = coll
	}
	if _, exists := coll[id]; !exists {
		m.order[collection] = append(m.order[collection], id)
	}
	coll[id] = doc
}

func (m *MemoryStore) get(collection, id string) (map[string]any, bool) {
	doc, ok := m.data[collection][id]
	return doc, ok
}

func (m *MemoryStore) readErr(collection string) error {
	if err := m.fail[collection]; err != nil {
		return fmt.Errorf("%s: %w", collection, err)
	}
	return nil
}

// Get retrieves a document.
func (m *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(collection, id)
}

func (m *MemoryStore) getLocked(collection, id string) (*Document, error) {
	if err := m.readErr(collection); err != nil {
		return nil, err
	}
	doc, ok := m.get(collection, id)
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return &Document{ID: id, Data: copyMap(doc)}, nil
}

// Add stores a document under a generated id.
func (m *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	return id, m.Set(ctx, collection, id, data)
}

// Set overwrites a document.
func (m *MemoryStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(Write{Op: "set", Collection: collection, ID: id, Fields: copyMap(data)})
	return nil
}

// Merge writes fields, creating the document when missing.
func (m *MemoryStore) Merge(_ context.Context, collection, id string, fields map[string]any) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(Write{Op: "merge", Collection: collection, ID: id, Fields: copyMap(fields)})
	return nil
}

// Update writes fields of an existing document.
func (m *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.get(collection, id); !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	m.applyLocked(Write{Op: "update", Collection: collection, ID: id, Fields: copyMap(fields)})
	return nil
}

// Delete removes a document.
func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(Write{Op: "delete", Collection: collection, ID: id})
	return nil
}

// Query returns documents whose field equals value, in insertion order.
func (m *MemoryStore) Query(_ context.Context, collection, field string, value any) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.readErr(collection); err != nil {
		return nil, err
	}
	docs := []Document{}
	for _, id := range m.order[collection] {
		doc := m.data[collection][id]
		if v, ok := doc[field]; ok && v == value {
			docs = append(docs, Document{ID: id, Data: copyMap(doc)})
		}
	}
	return docs, nil
}

// All returns every document of the collection, in insertion order.
func (m *MemoryStore) All(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.readErr(collection); err != nil {
		return nil, err
	}
	docs := []Document{}
	for _, id := range m.order[collection] {
		docs = append(docs, Document{ID: id, Data: copyMap(m.data[collection][id])})
	}
	return docs, nil
}

// RunTransaction runs fn and applies its staged writes atomically when it returns nil.
// Plain writes wait until the transaction has finished, so fn must write through tx only.
func (m *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	txFail := m.txFail
	m.mu.RUnlock()
	if txFail != nil {
		return txFail
	}

	tx := &memoryTx{store: m, pending: map[string]bool{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range tx.staged {
		m.applyLocked(w)
	}
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) applyLocked(w Write) {
	switch w.Op {
	case "delete":
		if coll, ok := m.data[w.Collection]; ok {
			delete(coll, w.ID)
			ids := m.order[w.Collection]
			for i, id := range ids {
				if id == w.ID {
					m.order[w.Collection] = append(ids[:i:i], ids[i+1:]...)
					break
				}
			}
		}
	case "set", "create":
		m.put(w.Collection, w.ID, resolve(nil, w.Fields))
	default:
		current, _ := m.get(w.Collection, w.ID)
		m.put(w.Collection, w.ID, resolve(current, w.Fields))
	}
	m.writes = append(m.writes, Write{Op: w.Op, Collection: w.Collection, ID: w.ID, Fields: copyMap(w.Fields)})
}

// resolve merges fields into a copy of current, applying Increment values and merging
// nested maps.
func resolve(current, fields map[string]any) map[string]any {
	out := copyMap(current)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range fields {
		switch val := v.(type) {
		case Increment:
			base := int64(0)
			switch n := out[k].(type) {
			case int64:
				base = n
			case int:
				base = int64(n)
			case float64:
				base = int64(n)
			}
			out[k] = base + int64(val)
		case map[string]any:
			existing, _ := out[k].(map[string]any)
			out[k] = resolve(existing, val)
		default:
			out[k] = copyValue(v)
		}
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	}
	return v
}

type memoryTx struct {
	store   *MemoryStore
	staged  []Write
	pending map[string]bool
}

func (t *memoryTx) Get(collection, id string) (*Document, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.getLocked(collection, id)
}

func (t *memoryTx) Create(collection, id string, data map[string]any) error {
	key := collection + "/" + id
	t.store.mu.RLock()
	_, exists := t.store.get(collection, id)
	t.store.mu.RUnlock()
	if exists || t.pending[key] {
		return fmt.Errorf("%s: %w", key, ErrAlreadyExists)
	}
	t.pending[key] = true
	t.staged = append(t.staged, Write{Op: "create", Collection: collection, ID: id, Fields: copyMap(data)})
	return nil
}

func (t *memoryTx) Update(collection, id string, fields map[string]any) error {
	key := collection + "/" + id
	t.store.mu.RLock()
	_, exists := t.store.get(collection, id)
	t.store.mu.RUnlock()
	if !exists && !t.pending[key] {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	t.staged = append(t.staged, Write{Op: "update", Collection: collection, ID: id, Fields: copyMap(fields)})
	return nil
}

func (t *memoryTx) Merge(collection, id string, fields map[string]any) error {
	t.pending[collection+"/"+id] = true
	t.staged = append(t.staged, Write{Op: "merge", Collection: collection, ID: id, Fields: copyMap(fields)})
	return nil
}
