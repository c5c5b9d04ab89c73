package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
)

const statsCacheKey = "stats:admin"

// sellerQueryLimit bounds the concurrent per-seller order queries.
const sellerQueryLimit = 4

type statsService struct {
	store   db.Store
	catalog Catalog
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsService creates the admin statistics service. A zero ttl disables caching.
func NewStatsService(store db.Store, catalog Catalog, c cache.Cache, ttl time.Duration, logger *zap.Logger) StatsService {
	return &statsService{store: store, catalog: catalog, cache: c, ttl: ttl, logger: logger, now: time.Now}
}

// ComputeStatistics scans orders, users and the catalog and aggregates the dashboard numbers.
func (s *statsService) ComputeStatistics(ctx context.Context) (*models.Statistics, error) {
	if s.ttl > 0 {
		var cached models.Statistics
		err := cache.GetJSON(ctx, s.cache, statsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Stats cache read failed", zap.Error(err))
		}
	}

	var (
		orders   []db.Document
		users    []db.Document
		products []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.store.All(gctx, db.OrdersCollection)
		if err != nil {
			return fmt.Errorf("scan orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.store.All(gctx, db.UsersCollection)
		if err != nil {
			return fmt.Errorf("scan users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = s.catalog.FetchAllProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Statistics scan failed", zap.Error(err))
		return nil, err
	}

	stats := &models.Statistics{
		OrdersByStatus: map[string]int{},
		GeneratedAt:    s.now().UTC(),
	}

	lineSales := map[string]*sellerSales{}
	revenueByMonth := map[string]decimal.Decimal{}
	trends := map[string]*models.OrderTrend{}
	revenue := decimal.Zero
	for _, doc := range orders {
		amount := decimal.NewFromFloat(models.OrderRevenue(doc.Data))
		revenue = revenue.Add(amount)

		order := models.OrderFromDocument(doc.ID, doc.Data)
		if order.Status != "" {
			stats.OrdersByStatus[string(order.Status)]++
		}
		for _, it := range order.Items {
			stats.Totals.UnitsOrdered += int64(it.Quantity)
		}
		if order.SellerID == "" {
			addLineSales(lineSales, order.Items)
		}
		if order.OrderDate.IsZero() {
			continue
		}
		month := order.OrderDate.Month().String()
		revenueByMonth[month] = revenueByMonth[month].Add(amount)
		t, ok := trends[month]
		if !ok {
			t = &models.OrderTrend{Month: month}
			trends[month] = t
		}
		t.Orders++
		t.Revenue, _ = decimal.NewFromFloat(t.Revenue).Add(amount).Float64()
	}

	stats.Totals.Revenue = revenue.InexactFloat64()
	stats.Totals.Orders = len(orders)
	if len(orders) > 0 {
		stats.Totals.AverageOrder = revenue.Div(decimal.NewFromInt(int64(len(orders)))).Round(2).InexactFloat64()
	}
	for month, v := range revenueByMonth {
		stats.RevenueByMonth = append(stats.RevenueByMonth, models.MonthlyValue{Month: month, Value: v.InexactFloat64()})
	}
	sortMonthly(stats.RevenueByMonth)
	for _, t := range trends {
		stats.OrderTrends = append(stats.OrderTrends, *t)
	}
	sort.Slice(stats.OrderTrends, func(i, j int) bool {
		return models.MonthOrder[stats.OrderTrends[i].Month] < models.MonthOrder[stats.OrderTrends[j].Month]
	})

	perCategory := map[string]int{}
	sellerProducts := map[string]int{}
	for _, p := range products {
		perCategory[p.Category]++
		if !p.InStock {
			stats.Totals.OutOfStock++
		}
		if owner := p.SellerID; owner != "" {
			sellerProducts[models.UserKey(owner)]++
		} else if p.Seller.Email != "" {
			sellerProducts[models.UserKey(p.Seller.Email)]++
		}
	}
	stats.Totals.Products = len(products)
	for _, c := range models.Categories {
		stats.CategoryDistribution = append(stats.CategoryDistribution, models.CategoryShare{Category: c, Products: perCategory[c]})
	}

	growth := map[string]int{}
	var sellers []models.User
	for _, doc := range users {
		u := models.UserFromDocument(doc.ID, doc.Data)
		if u.IsSeller() {
			sellers = append(sellers, u)
		}
		if !u.CreatedAt.IsZero() {
			growth[u.CreatedAt.Month().String()]++
		}
	}
	stats.Totals.Users = len(users)
	stats.Totals.Sellers = len(sellers)
	for month, n := range growth {
		stats.UserGrowth = append(stats.UserGrowth, models.MonthlyValue{Month: month, Value: float64(n)})
	}
	sortMonthly(stats.UserGrowth)

	perf, err := s.sellerPerformance(ctx, sellers, sellerProducts, lineSales)
	if err != nil {
		return nil, err
	}
	stats.SellerPerformance = perf

	if s.ttl > 0 {
		if err := cache.SetJSON(ctx, s.cache, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}
	s.logger.Info("Statistics computed",
		zap.Int("orders", len(orders)),
		zap.Int("users", len(users)),
		zap.Int("products", len(products)),
		zap.Int("sellers", len(sellers)))
	return stats, nil
}

// sellerSales is what a seller sold through orders shared with other sellers.
type sellerSales struct {
	orders  int
	revenue decimal.Decimal
}

// addLineSales credits each seller with its own lines of an order that has no single seller.
func addLineSales(sales map[string]*sellerSales, items []models.OrderItem) {
	seen := map[string]bool{}
	for _, it := range items {
		if it.SellerID == "" {
			continue
		}
		s, ok := sales[it.SellerID]
		if !ok {
			s = &sellerSales{}
			sales[it.SellerID] = s
		}
		if !seen[it.SellerID] {
			seen[it.SellerID] = true
			s.orders++
		}
		s.revenue = s.revenue.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
}

// sellerPerformance runs one orders query per seller for single-seller orders and adds the
// seller's lines of mixed orders. Results are sorted by revenue, highest first.
func (s *statsService) sellerPerformance(ctx context.Context, sellers []models.User, products map[string]int, lines map[string]*sellerSales) ([]models.SellerPerformance, error) {
	out := make([]models.SellerPerformance, len(sellers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sellerQueryLimit)
	for i, seller := range sellers {
		g.Go(func() error {
			docs, err := s.store.Query(gctx, db.OrdersCollection, "sellerId", seller.ID)
			if err != nil {
				return fmt.Errorf("orders of seller %s: %w", seller.ID, err)
			}
			revenue := decimal.Zero
			for _, d := range docs {
				revenue = revenue.Add(decimal.NewFromFloat(models.OrderRevenue(d.Data)))
			}
			orders := len(docs)
			if mixed, ok := lines[seller.ID]; ok {
				orders += mixed.orders
				revenue = revenue.Add(mixed.revenue)
			}
			out[i] = models.SellerPerformance{
				SellerID:  seller.ID,
				StoreName: seller.SellerProfile.StoreName,
				Orders:    orders,
				Revenue:   revenue.InexactFloat64(),
				Products:  products[seller.ID],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Seller performance scan failed", zap.Error(err))
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	return out, nil
}

func sortMonthly(values []models.MonthlyValue) {
	sort.Slice(values, func(i, j int) bool {
		return models.MonthOrder[values[i].Month] < models.MonthOrder[values[j].Month]
	})
}
