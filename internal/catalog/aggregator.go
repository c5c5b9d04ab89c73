// Package catalog reads products out of the per-category collections.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
)

const allProductsKey = "catalog:all"

var (
	// ErrUnknownCategory is returned for a category outside models.Categories.
	ErrUnknownCategory = errors.New("unknown product category")
	// ErrProductNotFound is returned when a product document does not exist.
	ErrProductNotFound = errors.New("product not found")
)

// Aggregator fans reads out across the category collections and normalizes the results.
type Aggregator struct {
	store  db.Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator builds an Aggregator. A zero ttl disables caching of the aggregated list.
func NewAggregator(store db.Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: store, cache: c, ttl: ttl, logger: logger, now: time.Now}
}

// FetchAllProducts returns the products of every category. Categories are queried
// concurrently; a category whose query fails contributes no products and is logged.
// Products are grouped by category in the order of models.Categories, each group keeping the
// store's order.
func (a *Aggregator) FetchAllProducts(ctx context.Context) ([]models.Product, error) {
	if a.ttl > 0 {
		var cached []models.Product
		err := cache.GetJSON(ctx, a.cache, allProductsKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			a.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
	}

	groups := make([][]models.Product, len(models.Categories))
	failed := make([]bool, len(models.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range models.Categories {
		g.Go(func() error {
			products, err := a.fetchCategory(gctx, category)
			if err != nil {
				a.logger.Warn("Category query failed, skipping", zap.String("category", category), zap.Error(err))
				failed[i] = true
				return nil
			}
			groups[i] = products
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := []models.Product{}
	partial := false
	for i, group := range groups {
		all = append(all, group...)
		partial = partial || failed[i]
	}

	if a.ttl > 0 && !partial {
		if err := cache.SetJSON(ctx, a.cache, allProductsKey, all, a.ttl); err != nil {
			a.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}
	return all, nil
}

// FetchCategory returns the products of one category.
func (a *Aggregator) FetchCategory(ctx context.Context, category string) ([]models.Product, error) {
	if !models.IsCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return a.fetchCategory(ctx, category)
}

func (a *Aggregator) fetchCategory(ctx context.Context, category string) ([]models.Product, error) {
	docs, err := a.store.All(ctx, category)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := Normalize(category, doc.ID, doc.Data)
		if err != nil {
			a.logger.Warn("Dropping product record", zap.String("category", category), zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// FetchProduct returns one product.
func (a *Aggregator) FetchProduct(ctx context.Context, category, id string) (*models.Product, error) {
	if !models.IsCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	doc, err := a.store.Get(ctx, category, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrProductNotFound, category, id)
		}
		return nil, err
	}
	p, err := Normalize(category, doc.ID, doc.Data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProduct writes a new product to its category collection and returns it with its id.
func (a *Aggregator) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if !models.IsCategory(p.Category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, p.Category)
	}
	now := a.now().UTC()
	id, err := a.store.Add(ctx, p.Category, newProductDocument(p, now))
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}
	p.ID = id
	p.CreatedAt = &now
	p.InStock = p.StockCount > 0
	a.Invalidate(ctx)
	return &p, nil
}

// DeleteProduct removes a product and returns what was deleted.
func (a *Aggregator) DeleteProduct(ctx context.Context, category, id string) (*models.Product, error) {
	p, err := a.FetchProduct(ctx, category, id)
	if err != nil {
		return nil, err
	}
	if err := a.store.Delete(ctx, category, id); err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	a.Invalidate(ctx)
	return p, nil
}

// Invalidate drops the cached aggregated catalog.
func (a *Aggregator) Invalidate(ctx context.Context) {
	if err := a.cache.Delete(ctx, allProductsKey); err != nil {
		a.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
