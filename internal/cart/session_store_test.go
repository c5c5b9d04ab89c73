package cart

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/crypto"
	"github.com/example/storefront/pkg/cache"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *cache.MemoryCache) {
	t.Helper()
	sealer, err := crypto.NewSealer(bytes.Repeat([]byte{9}, crypto.KeyLength))
	require.NoError(t, err)
	c := cache.NewMemory()
	return NewSessionStore(c, sealer, 0, zap.NewNop()), c
}

func TestSessionStore_LoadMissingIsEmpty(t *testing.T) {
	store, _ := newTestSessionStore(t)

	c := store.Load(context.Background(), "a@b.com")

	assert.True(t, c.IsEmpty())
}

func TestSessionStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t)
	c := New()
	c.AddItem(watch("w1", 5000), 2)

	require.NoError(t, store.Save(ctx, "a@b.com", c))

	loaded := store.Load(ctx, "a@b.com")
	assert.Equal(t, c.Items(), loaded.Items())
	assert.True(t, store.Load(ctx, "other@b.com").IsEmpty())
}

func TestSessionStore_StoredValueIsSealed(t *testing.T) {
	ctx := context.Background()
	store, raw := newTestSessionStore(t)
	c := New()
	c.AddItem(watch("w1", 5000), 2)
	require.NoError(t, store.Save(ctx, "a@b.com", c))

	sealed, err := raw.Get(ctx, "cart:a@b.com")
	require.NoError(t, err)

	assert.NotContains(t, sealed, "w1")
}

func TestSessionStore_CorruptCartIsEmpty(t *testing.T) {
	ctx := context.Background()
	store, raw := newTestSessionStore(t)
	require.NoError(t, raw.Set(ctx, "cart:a@b.com", "garbage", 0))

	assert.True(t, store.Load(ctx, "a@b.com").IsEmpty())
}

func TestSessionStore_CartBoundToUser(t *testing.T) {
	ctx := context.Background()
	store, raw := newTestSessionStore(t)
	c := New()
	c.AddItem(watch("w1", 1), 1)
	require.NoError(t, store.Save(ctx, "a@b.com", c))
	sealed, err := raw.Get(ctx, "cart:a@b.com")
	require.NoError(t, err)

	require.NoError(t, raw.Set(ctx, "cart:eve@b.com", sealed, 0))

	assert.True(t, store.Load(ctx, "eve@b.com").IsEmpty())
}

func TestSessionStore_Update(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t)

	_, err := store.Update(ctx, "a@b.com", func(c *Cart) error {
		c.AddItem(watch("w1", 5000), 1)
		return nil
	})
	require.NoError(t, err)

	_, err = store.Update(ctx, "a@b.com", func(c *Cart) error {
		return c.UpdateQuantity("w1", 0)
	})
	assert.ErrorIs(t, err, ErrQuantityBelowMinimum)

	assert.Equal(t, 1, store.Load(ctx, "a@b.com").TotalItems())
}

func TestSessionStore_UpdateFailureNotSaved(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t)
	boom := errors.New("boom")

	_, err := store.Update(ctx, "a@b.com", func(c *Cart) error {
		c.AddItem(watch("w1", 1), 1)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.True(t, store.Load(ctx, "a@b.com").IsEmpty())
}

func TestSessionStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "a@b.com", func(c *Cart) error {
				c.AddItem(watch("w1", 1), 1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, store.Load(ctx, "a@b.com").TotalItems())
}

func TestSessionStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t)
	c := New()
	c.AddItem(watch("w1", 1), 1)
	require.NoError(t, store.Save(ctx, "a@b.com", c))

	require.NoError(t, store.Clear(ctx, "a@b.com"))

	assert.True(t, store.Load(ctx, "a@b.com").IsEmpty())
}
