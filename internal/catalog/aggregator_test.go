package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
)

func seededStore() *db.MemoryStore {
	store := db.NewMemoryStore()
	store.Seed(models.CategoryShoes, "s1", map[string]any{"name": "Runner", "price": 100.0, "stock": int64(1)})
	store.Seed(models.CategoryWatches, "w2", map[string]any{"Name": "Diver", "Price": 7000.0, "Stock": int64(2)})
	store.Seed(models.CategoryWatches, "w1", map[string]any{"name": "Chrono", "price": 5000.0, "stock": int64(5)})
	store.Seed(models.CategoryBags, "bad", map[string]any{"name": "No price"})
	store.Seed(models.CategoryElectronics, "e1", map[string]any{"name": "Phone", "price": 20000.0})
	return store
}

func ids(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Category+"/"+p.ID)
	}
	return out
}

func TestAggregator_FetchAllProducts(t *testing.T) {
	agg := NewAggregator(seededStore(), cache.NewMemory(), 0, zap.NewNop())

	products, err := agg.FetchAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Watches/w2", "Watches/w1", "Shoes/s1", "Electronics/e1"}, ids(products))
}

func TestAggregator_FailingCategoryContributesNothing(t *testing.T) {
	store := seededStore()
	store.FailCollection(models.CategoryWatches, errors.New("unavailable"))
	agg := NewAggregator(store, cache.NewMemory(), time.Minute, zap.NewNop())

	products, err := agg.FetchAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Shoes/s1", "Electronics/e1"}, ids(products))

	store.FailCollection(models.CategoryWatches, nil)
	products, err = agg.FetchAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 4, "a partial result is not cached")
}

func TestAggregator_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	agg := NewAggregator(store, cache.NewMemory(), time.Minute, zap.NewNop())

	first, err := agg.FetchAllProducts(ctx)
	require.NoError(t, err)
	store.Seed(models.CategoryAccessories, "a1", map[string]any{"name": "Belt", "price": 10.0})

	cached, err := agg.FetchAllProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(cached))

	agg.Invalidate(ctx)
	fresh, err := agg.FetchAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, len(first)+1)
}

func TestAggregator_FetchCategory(t *testing.T) {
	agg := NewAggregator(seededStore(), cache.NewMemory(), 0, zap.NewNop())

	products, err := agg.FetchCategory(context.Background(), models.CategoryWatches)
	require.NoError(t, err)
	assert.Equal(t, []string{"Watches/w2", "Watches/w1"}, ids(products))

	_, err = agg.FetchCategory(context.Background(), "Toys")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestAggregator_FetchProduct(t *testing.T) {
	agg := NewAggregator(seededStore(), cache.NewMemory(), 0, zap.NewNop())

	p, err := agg.FetchProduct(context.Background(), models.CategoryWatches, "w1")
	require.NoError(t, err)
	assert.Equal(t, "Chrono", p.Name)

	_, err = agg.FetchProduct(context.Background(), models.CategoryWatches, "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAggregator_AddAndDeleteProduct(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	agg := NewAggregator(store, cache.NewMemory(), time.Minute, zap.NewNop())
	_, err := agg.FetchAllProducts(ctx)
	require.NoError(t, err)

	added, err := agg.AddProduct(ctx, models.Product{Category: models.CategoryBags, Name: "Tote", Price: 900, StockCount: 3})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	assert.True(t, added.InStock)

	all, err := agg.FetchAllProducts(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(all), "Bags/"+added.ID)

	deleted, err := agg.DeleteProduct(ctx, models.CategoryBags, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tote", deleted.Name)

	all, err = agg.FetchAllProducts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(all), "Bags/"+added.ID)

	_, err = agg.AddProduct(ctx, models.Product{Category: "Toys", Name: "x", Price: 1})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}
