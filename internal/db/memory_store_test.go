package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "Watches", "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Merge_CreatesAndIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Merge(ctx, UsersCollection, "a@b.com", map[string]any{"orderCount": Increment(1)}))
	require.NoError(t, store.Merge(ctx, UsersCollection, "a@b.com", map[string]any{"orderCount": Increment(1), "name": "A"}))

	doc, err := store.Get(ctx, UsersCollection, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Data["orderCount"])
	assert.Equal(t, "A", doc.Data["name"])
}

func TestMemoryStore_Merge_NestedMaps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed(UsersCollection, "u", map[string]any{"preferences": map[string]any{"theme": "dark", "lang": "en"}})

	require.NoError(t, store.Merge(ctx, UsersCollection, "u", map[string]any{"preferences": map[string]any{"lang": "hi"}}))

	doc, err := store.Get(ctx, UsersCollection, "u")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark", "lang": "hi"}, doc.Data["preferences"])
}

func TestMemoryStore_Update_MissingDocument(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), "Shoes", "s1", map[string]any{"stock": 3})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.Writes())
}

func TestMemoryStore_Get_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Bags", "b1", map[string]any{"images": []any{"x.png"}})

	doc, err := store.Get(ctx, "Bags", "b1")
	require.NoError(t, err)
	doc.Data["images"].([]any)[0] = "mutated"

	again, err := store.Get(ctx, "Bags", "b1")
	require.NoError(t, err)
	assert.Equal(t, []any{"x.png"}, again.Data["images"])
}

func TestMemoryStore_Query_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed(OrdersCollection, "o3", map[string]any{"userId": "a"})
	store.Seed(OrdersCollection, "o1", map[string]any{"userId": "b"})
	store.Seed(OrdersCollection, "o2", map[string]any{"userId": "a"})

	docs, err := store.Query(ctx, OrdersCollection, "userId", "a")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "o3", docs[0].ID)
	assert.Equal(t, "o2", docs[1].ID)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Fashion", "f1", map[string]any{"name": "Scarf"})
	store.Seed("Fashion", "f2", map[string]any{"name": "Cap"})

	require.NoError(t, store.Delete(ctx, "Fashion", "f1"))

	docs, err := store.All(ctx, "Fashion")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "f2", docs[0].ID)
}

func TestMemoryStore_FailCollection(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("unavailable")
	store.FailCollection("Electronics", boom)

	_, err := store.All(context.Background(), "Electronics")
	assert.ErrorIs(t, err, boom)

	store.FailCollection("Electronics", nil)
	_, err = store.All(context.Background(), "Electronics")
	assert.NoError(t, err)
}

func TestMemoryStore_RunTransaction_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Watches", "w1", map[string]any{"stock": int64(5)})
	boom := errors.New("boom")

	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.Create(OrdersCollection, "o1", map[string]any{"amount": 10.0}))
		require.NoError(t, tx.Update("Watches", "w1", map[string]any{"stock": Increment(-2)}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Writes())
	_, err = store.Get(ctx, OrdersCollection, "o1")
	assert.ErrorIs(t, err, ErrNotFound)
	doc, err := store.Get(ctx, "Watches", "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc.Data["stock"])
}

func TestMemoryStore_RunTransaction_Commit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Watches", "w1", map[string]any{"stock": int64(5)})

	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		doc, err := tx.Get("Watches", "w1")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(5), doc.Data["stock"])
		if err := tx.Create(OrdersCollection, "o1", map[string]any{"amount": 10.0}); err != nil {
			return err
		}
		return tx.Update("Watches", "w1", map[string]any{"stock": Increment(-2)})
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "Watches", "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Data["stock"])
	assert.Len(t, store.WritesTo("Watches"), 1)
	assert.Len(t, store.WritesTo(OrdersCollection), 1)
}

func TestMemoryStore_Tx_CreateExisting(t *testing.T) {
	store := NewMemoryStore()
	store.Seed(OrdersCollection, "o1", map[string]any{})

	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.Create(OrdersCollection, "o1", map[string]any{})
	})

	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_RunTransaction_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
				return tx.Merge(UsersCollection, "a@b.com", map[string]any{"orderCount": Increment(1)})
			})
		}()
	}
	wg.Wait()

	doc, err := store.Get(ctx, UsersCollection, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(20), doc.Data["orderCount"])
}

func TestMemoryStore_PlainWriteWaitsForTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("Watches", "w1", map[string]any{"stock": int64(5)})

	written := make(chan struct{})
	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		doc, err := tx.Get("Watches", "w1")
		if err != nil {
			return err
		}
		go func() {
			_ = store.Update(ctx, "Watches", "w1", map[string]any{"stock": int64(10)})
			close(written)
		}()
		select {
		case <-written:
			t.Error("plain write applied while the transaction was open")
		case <-time.After(50 * time.Millisecond):
		}
		stock, _ := doc.Data["stock"].(int64)
		return tx.Update("Watches", "w1", map[string]any{"stock": stock - 2})
	})
	require.NoError(t, err)
	<-written

	doc, err := store.Get(ctx, "Watches", "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc.Data["stock"])
	writes := store.WritesTo("Watches")
	require.Len(t, writes, 2)
	assert.Equal(t, int64(3), writes[0].Fields["stock"])
	assert.Equal(t, int64(10), writes[1].Fields["stock"])
}
