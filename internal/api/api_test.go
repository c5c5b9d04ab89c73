package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/crypto"
	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
)

type stubVerifier map[string]*auth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token expired")
}

func newTestServer(t *testing.T) (*gin.Engine, *db.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := db.NewMemoryStore()
	sealer, err := crypto.NewSealer(bytes.Repeat([]byte{9}, crypto.KeyLength))
	require.NoError(t, err)
	carts := cart.NewSessionStore(cache.NewMemory(), sealer, 0, logger)
	agg := catalog.NewAggregator(store, cache.NewMemory(), 0, logger)
	payments, err := core.NewPaymentService(core.PaymentConfig{PublicKey: "pk_test", Currency: "INR"}, logger)
	require.NoError(t, err)
	users := core.NewUserService(store, logger)

	svc := Services{
		Catalog:  agg,
		Carts:    core.NewCartService(carts, agg, logger),
		Payments: payments,
		Users:    users,
		Sellers:  core.NewSellerService(agg, users, nil, logger),
		Issues:   core.NewIssueService(store, logger),
		Stats:    core.NewStatsService(store, agg, cache.NewMemory(), 0, logger),
		Orders: core.NewOrderService(core.OrderDeps{
			Store:    store,
			Carts:    carts,
			Catalog:  agg,
			Payments: payments,
			Pricing:  models.Pricing{TaxRate: decimal.RequireFromString("0.18")},
			Logger:   logger,
		}),
	}

	verifier := stubVerifier{
		"buyer": {UID: "u1", Claims: map[string]interface{}{"email": "buyer@example.com", "name": "Buyer"}},
		"boss":  {UID: "u2", Claims: map[string]interface{}{"email": "boss@example.com"}},
	}
	router := gin.New()
	require.NoError(t, SetupRoutes(router, middleware.NewAuthMiddleware(verifier, []string{"boss@example.com"}, logger), svc, logger))

	store.Seed(models.CategoryWatches, "w1", map[string]any{"name": "Chrono", "price": 5000.0, "stock": int64(5)})
	return router, store
}

func call(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func checkoutBody(pincode, method string) map[string]any {
	return map[string]any{
		"address": map[string]any{
			"name":    "Buyer",
			"phone":   "9876543210",
			"line1":   "12 MG Road",
			"city":    "Pune",
			"state":   "MH",
			"pincode": pincode,
		},
		"paymentMethod": method,
	}
}

func TestPublicRoutes(t *testing.T) {
	r, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "", nil).Code)

	w := call(r, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/products?category=watches", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/products/watches/w1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/products/watches/missing", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/v1/products/cars", "", nil).Code)

	w = call(r, http.MethodGet, "/api/v1/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cfg struct {
		Payment    map[string]string `json:"payment"`
		Categories []string          `json:"categories"`
	}
	decode(t, w, &cfg)
	assert.Equal(t, "pk_test", cfg.Payment["paymentKey"])
	assert.Equal(t, models.Categories, cfg.Categories)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/users/me", "/api/v1/admin/stats"} {
		assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, path, "", nil).Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/v1/cart", "forged", nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	r, _ := newTestServer(t)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/admin/stats", "buyer", nil).Code)

	w := call(r, http.MethodGet, "/api/v1/admin/stats", "boss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.Statistics
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.Totals.Products)
}

func TestCheckoutFlow(t *testing.T) {
	r, store := newTestServer(t)

	w := call(r, http.MethodPost, "/api/v1/checkout", "buyer", checkoutBody("411001", models.PaymentCOD))
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	w = call(r, http.MethodPost, "/api/v1/cart/items", "buyer", map[string]any{"category": "watches", "productId": "w1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary cart.Summary
	decode(t, w, &summary)
	assert.Equal(t, 2, summary.TotalItems)

	w = call(r, http.MethodPut, "/api/v1/cart/items/w1", "buyer", map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, "/api/v1/checkout/options", "buyer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var quote models.CheckoutQuote
	decode(t, w, &quote)
	assert.Equal(t, 11800.0, quote.Amount)
	assert.Equal(t, int64(1180000), quote.Gateway.Amount)

	w = call(r, http.MethodPost, "/api/v1/checkout", "buyer", checkoutBody("4110", models.PaymentCOD))
	require.Equal(t, http.StatusBadRequest, w.Code)
	var bad ErrorResponse
	decode(t, w, &bad)
	assert.NotEmpty(t, bad.Fields)

	w = call(r, http.MethodPost, "/api/v1/checkout", "buyer", checkoutBody("411001", models.PaymentOnline))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Empty(t, store.WritesTo(db.OrdersCollection))

	w = call(r, http.MethodPost, "/api/v1/checkout", "buyer", checkoutBody("411001", models.PaymentCOD))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 11800.0, order.Amount)

	w = call(r, http.MethodGet, "/api/v1/cart", "buyer", nil)
	decode(t, w, &summary)
	assert.Zero(t, summary.TotalItems)

	w = call(r, http.MethodGet, "/api/v1/orders/"+order.ID, "buyer", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/orders/ORD-missing", "buyer", nil).Code)

	w = call(r, http.MethodPut, "/api/v1/admin/orders/"+order.ID+"/status", "boss", map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", "buyer", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitIssueAnonymously(t *testing.T) {
	r, store := newTestServer(t)

	w := call(r, http.MethodPost, "/api/v1/issues", "", map[string]any{
		"email":   "visitor@example.com",
		"subject": "Late delivery",
		"message": "Still waiting",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var issue models.Issue
	decode(t, w, &issue)
	assert.Empty(t, issue.UserID)
	assert.Len(t, store.WritesTo(db.IssuesCollection), 1)

	w = call(r, http.MethodPost, "/api/v1/issues", "", map[string]any{"email": "not-an-email", "subject": "x", "message": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		err       error
		code      int
		retryable bool
	}{
		{core.ErrUnauthenticated, http.StatusUnauthorized, false},
		{core.ErrForbidden, http.StatusForbidden, false},
		{core.ErrPaymentNotConfirmed, http.StatusPaymentRequired, false},
		{core.ErrOrderCreationFailed, http.StatusServiceUnavailable, true},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, true},
		{core.ErrEmptyCart, http.StatusBadRequest, false},
		{catalog.ErrProductNotFound, http.StatusNotFound, false},
		{core.ErrInvalidStatusTransition, http.StatusConflict, false},
		{core.ErrPaymentAlreadyUsed, http.StatusConflict, false},
		{errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, resp := errorResponse(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.retryable, resp.Retryable)
		})
	}
}
