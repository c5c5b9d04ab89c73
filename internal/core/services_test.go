package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/crypto"
	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/media"
)

type fakeUploader struct {
	uploads []string
	deleted []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, folder string) (media.Image, error) {
	if f.err != nil {
		return media.Image{}, f.err
	}
	body, _ := io.ReadAll(file)
	f.uploads = append(f.uploads, folder+":"+string(body))
	return media.Image{URL: "https://img.example.com/" + folder + "/1.jpg", PublicID: folder + "/1"}, nil
}

func (f *fakeUploader) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func TestUserService_GetOrCreate(t *testing.T) {
	store := db.NewMemoryStore()
	svc := NewUserService(store, zap.NewNop())

	user, created, err := svc.GetOrCreate(context.Background(), customer())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "buyer@example.com", user.ID)
	assert.Equal(t, "Buyer", user.DisplayName)

	again, created, err := svc.GetOrCreate(context.Background(), customer())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Len(t, store.WritesTo(db.UsersCollection), 1)

	_, _, err = svc.GetOrCreate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUserService_UpdateProfileKeepsCounter(t *testing.T) {
	store := db.NewMemoryStore()
	store.Seed(db.UsersCollection, "buyer@example.com", map[string]any{"email": "buyer@example.com", "orderCount": int64(4)})
	svc := NewUserService(store, zap.NewNop())
	phone := "9876543210"

	user, err := svc.UpdateProfile(context.Background(), customer(), models.UpdateProfileRequest{
		Phone:     &phone,
		Addresses: &[]models.Address{validAddress()},
	})

	require.NoError(t, err)
	assert.Equal(t, phone, user.Phone)
	assert.Equal(t, int64(4), user.OrderCount)
	require.Len(t, user.Addresses, 1)
	assert.Equal(t, "411001", user.Addresses[0].Pincode)
	assert.False(t, user.UpdatedAt.IsZero())
}

func TestUserService_CompleteOnboarding(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore(), zap.NewNop())

	user, err := svc.CompleteOnboarding(context.Background(), customer())

	require.NoError(t, err)
	assert.True(t, user.OnboardingComplete)
}

func TestUserService_GetByIDMissing(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore(), zap.NewNop())

	_, err := svc.GetByID(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestIssueService_Submit(t *testing.T) {
	store := db.NewMemoryStore()
	svc := NewIssueService(store, zap.NewNop())

	issue, err := svc.Submit(context.Background(), customer(), models.CreateIssueRequest{
		Email:   "buyer@example.com",
		Subject: "  Late delivery ",
		Message: "Where is my order?",
		OrderID: "ORD-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Late delivery", issue.Subject)
	assert.Equal(t, "open", issue.Status)
	assert.Equal(t, "buyer@example.com", issue.UserID)
	doc, err := store.Get(context.Background(), db.IssuesCollection, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", doc.Data["orderId"])
}

func TestIssueService_SubmitSignedOut(t *testing.T) {
	svc := NewIssueService(db.NewMemoryStore(), zap.NewNop())

	issue, err := svc.Submit(context.Background(), nil, models.CreateIssueRequest{Email: "guest@example.com", Subject: "Hi", Message: "Hello"})

	require.NoError(t, err)
	assert.Empty(t, issue.UserID)
}

func newSellerFixture(uploader media.Uploader) (SellerService, *db.MemoryStore) {
	logger := zap.NewNop()
	store := db.NewMemoryStore()
	agg := catalog.NewAggregator(store, cache.NewMemory(), time.Minute, logger)
	return NewSellerService(agg, NewUserService(store, logger), uploader, logger), store
}

func listing() models.SubmitProductRequest {
	return models.SubmitProductRequest{
		Category: models.CategoryWatches,
		Name:     "Chrono",
		Price:    5000,
		Stock:    3,
	}
}

func TestSellerService_SubmitNeedsStoreName(t *testing.T) {
	svc, store := newSellerFixture(nil)

	_, err := svc.SubmitProduct(context.Background(), customer(), listing(), nil)

	assert.ErrorIs(t, err, ErrSellerProfileRequired)
	assert.Empty(t, store.WritesTo(models.CategoryWatches))
}

func TestSellerService_SubmitSavesProfileAndUploads(t *testing.T) {
	uploader := &fakeUploader{}
	svc, store := newSellerFixture(uploader)
	req := listing()
	req.StoreName = "Time Shop"
	req.SellerPhone = "9876543210"

	product, err := svc.SubmitProduct(context.Background(), customer(), req, strings.NewReader("jpeg"))

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.True(t, product.InStock)
	assert.Equal(t, "Time Shop", product.Seller.Name)
	assert.Equal(t, "buyer@example.com", product.SellerID)
	assert.Equal(t, []string{"products/watches:jpeg"}, uploader.uploads)
	assert.Equal(t, "https://img.example.com/products/watches/1.jpg", product.Image())

	doc, err := store.Get(context.Background(), models.CategoryWatches, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "products/watches/1", doc.Data["imagePublicId"])

	user, err := store.Get(context.Background(), db.UsersCollection, "buyer@example.com")
	require.NoError(t, err)
	profile, ok := user.Data["sellerProfile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Time Shop", profile["storeName"])

	again, err := svc.SubmitProduct(context.Background(), customer(), listing(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Time Shop", again.Seller.Name, "prefilled from the saved seller profile")
}

func TestSellerService_SubmitImageWithoutUploader(t *testing.T) {
	svc, _ := newSellerFixture(nil)
	req := listing()
	req.StoreName = "Shop"

	_, err := svc.SubmitProduct(context.Background(), customer(), req, bytes.NewReader([]byte("x")))

	assert.ErrorIs(t, err, media.ErrNotConfigured)
}

func TestSellerService_SubmitUnknownCategory(t *testing.T) {
	uploader := &fakeUploader{}
	svc, _ := newSellerFixture(uploader)
	req := listing()
	req.StoreName = "Shop"
	req.Category = "Toys"

	_, err := svc.SubmitProduct(context.Background(), customer(), req, strings.NewReader("x"))

	assert.ErrorIs(t, err, catalog.ErrUnknownCategory)
	assert.Empty(t, uploader.uploads)
}

func TestSellerService_DeleteProduct(t *testing.T) {
	uploader := &fakeUploader{}
	svc, store := newSellerFixture(uploader)
	store.Seed(models.CategoryBags, "b1", map[string]any{"name": "Tote", "price": 900.0, "imagePublicId": "products/bags/1"})

	err := svc.DeleteProduct(context.Background(), customer(), models.CategoryBags, "b1")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteProduct(context.Background(), admin(), models.CategoryBags, "b1"))
	_, err = store.Get(context.Background(), models.CategoryBags, "b1")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, []string{"products/bags/1"}, uploader.deleted)

	err = svc.DeleteProduct(context.Background(), admin(), models.CategoryBags, "b1")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func newCartFixture(t *testing.T) (CartService, *db.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()
	store := db.NewMemoryStore()
	sealer, err := crypto.NewSealer(bytes.Repeat([]byte{3}, crypto.KeyLength))
	require.NoError(t, err)
	carts := cart.NewSessionStore(cache.NewMemory(), sealer, 0, logger)
	agg := catalog.NewAggregator(store, cache.NewMemory(), 0, logger)
	return NewCartService(carts, agg, logger), store
}

func TestCartService_Flow(t *testing.T) {
	ctx := context.Background()
	svc, store := newCartFixture(t)
	store.Seed(models.CategoryWatches, "w1", map[string]any{"name": "Chrono", "price": 5000.0, "stock": int64(5)})
	store.Seed(models.CategoryShoes, "s1", map[string]any{"name": "Runner", "price": 100.0, "stock": int64(5)})

	_, err := svc.AddItem(ctx, customer(), models.AddItemRequest{Category: models.CategoryWatches, ProductID: "w1"})
	require.NoError(t, err)
	summary, err := svc.AddItem(ctx, customer(), models.AddItemRequest{Category: models.CategoryShoes, ProductID: "s1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalItems)
	assert.Equal(t, 5300.0, summary.Total)

	summary, err = svc.UpdateQuantity(ctx, customer(), "w1", 2)
	require.NoError(t, err)
	assert.Equal(t, 10300.0, summary.Total)

	_, err = svc.UpdateQuantity(ctx, customer(), "w1", 0)
	assert.ErrorIs(t, err, cart.ErrQuantityBelowMinimum)
	summary, err = svc.Get(ctx, customer())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalItems, "rejected update leaves the cart unchanged")

	summary, err = svc.RemoveItem(ctx, customer(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalItems)

	require.NoError(t, svc.Clear(ctx, customer()))
	summary, err = svc.Get(ctx, customer())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalItems)
}

func TestCartService_AddItemErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := newCartFixture(t)
	store.Seed(models.CategoryWatches, "sold-out", map[string]any{"name": "Rare", "price": 9000.0, "stock": int64(0)})

	_, err := svc.AddItem(ctx, customer(), models.AddItemRequest{Category: models.CategoryWatches, ProductID: "sold-out"})
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AddItem(ctx, customer(), models.AddItemRequest{Category: models.CategoryWatches, ProductID: "missing"})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = svc.AddItem(ctx, nil, models.AddItemRequest{Category: models.CategoryWatches, ProductID: "sold-out"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.UpdateQuantity(ctx, customer(), "missing", 2)
	assert.True(t, errors.Is(err, cart.ErrItemNotFound))
}
